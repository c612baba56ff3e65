package generation

import "studio-server/internal/domain"

// Provider status vocabulary as it appears on the wire.
const (
	providerStatusQueued    = "queued"
	providerStatusStarted   = "started"
	providerStatusCompleted = "completed"
	providerStatusFailed    = "failed"
)

// MapProviderStatus translates the provider's status vocabulary into the
// canonical generation state. The second return reports whether the provider
// status was recognized; unrecognized values map to pending so they are
// recorded rather than silently dropped, and the caller logs them.
func MapProviderStatus(providerStatus string) (domain.GenerationStatus, bool) {
	switch providerStatus {
	case providerStatusQueued:
		return domain.GenerationStatusSubmitted, true
	case providerStatusStarted:
		return domain.GenerationStatusDreaming, true
	case providerStatusCompleted:
		return domain.GenerationStatusCompleted, true
	case providerStatusFailed:
		return domain.GenerationStatusFailed, true
	default:
		return domain.GenerationStatusPending, false
	}
}
