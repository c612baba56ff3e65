package domain

import "time"

// APIProvider identifies which external capability a generation invoked.
type APIProvider string

const (
	ProviderImage APIProvider = "provider_image"
	ProviderVideo APIProvider = "provider_video"
	ProviderText  APIProvider = "text"
)

// GenerationStatus enumerates the canonical generation lifecycle states.
type GenerationStatus string

const (
	GenerationStatusPending   GenerationStatus = "pending"
	GenerationStatusSubmitted GenerationStatus = "submitted"
	GenerationStatusDreaming  GenerationStatus = "dreaming"
	GenerationStatusCompleted GenerationStatus = "completed"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// IsTerminal reports whether the status permits no further transitions.
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusCompleted || s == GenerationStatusFailed
}

// Generation records one asynchronous request to an external
// media-generation provider. It is created by the submitter and mutated only
// by the webhook processor or the poll loop until it reaches a terminal
// state; terminal states are final.
type Generation struct {
	ID                 string
	UserID             string
	ProjectID          string
	ShotID             string
	APIProvider        APIProvider
	ExternalRequestID  string
	RequestPayload     []byte
	Status             GenerationStatus
	FailureReason      string
	ResultMediaAssetID string
	CallbackReceivedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
