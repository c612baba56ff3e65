package generation

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio-server/internal/domain"
	"studio-server/internal/infra"
)

// CallbackPayload is the provider's webhook body.
type CallbackPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output struct {
		Images []string `json:"images,omitempty"`
		Videos []string `json:"videos,omitempty"`
	} `json:"output,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// CallbackOutcome reports how a delivery was resolved. Everything except a
// processing error answers the provider with success, since the provider's
// retry queue is driven solely by response codes.
type CallbackOutcome string

const (
	// OutcomeProcessed means the delivery transitioned the generation.
	OutcomeProcessed CallbackOutcome = "processed"
	// OutcomeDuplicate means the generation was already terminal.
	OutcomeDuplicate CallbackOutcome = "duplicate"
	// OutcomeUnknown means no generation matches the external id.
	OutcomeUnknown CallbackOutcome = "unknown"
)

// Processor reconciles asynchronous status notifications onto persisted
// generation records and links resulting artifacts. It is stateless and safe
// for concurrent use: all coordination happens through conditional updates
// on the datastore, never in memory.
type Processor struct {
	gens   domain.GenerationRepository
	assets domain.MediaAssetRepository
	shots  domain.ShotRepository
	logger infra.Logger
	now    func() time.Time
}

// NewProcessor constructs a processor with injected dependencies.
func NewProcessor(gens domain.GenerationRepository, assets domain.MediaAssetRepository, shots domain.ShotRepository, logger infra.Logger) *Processor {
	return &Processor{gens: gens, assets: assets, shots: shots, logger: logger, now: time.Now}
}

// ProcessCallback applies one webhook delivery. Deliveries arrive
// at-least-once and unordered, possibly concurrently for the same external
// id; the terminal-state claim makes reprocessing harmless.
//
// Error contract: domain.ErrInvalidPayload means the payload can never
// become valid by retrying (the handler answers 400); any other error is a
// persistence failure the provider should retry (5xx).
func (p *Processor) ProcessCallback(ctx context.Context, payload CallbackPayload) (CallbackOutcome, error) {
	externalID := strings.TrimSpace(payload.ID)
	providerStatus := strings.TrimSpace(payload.Status)
	if externalID == "" || providerStatus == "" {
		webhookDeliveries.WithLabelValues("invalid").Inc()
		return "", fmt.Errorf("%w: missing id or status", domain.ErrInvalidPayload)
	}

	status, known := MapProviderStatus(providerStatus)
	if !known {
		p.logger.Warn().
			Str("external_request_id", externalID).
			Str("provider_status", providerStatus).
			Msg("webhook: unexpected provider status")
	}

	outcome, err := p.apply(ctx, externalID, status, payload)
	if err != nil {
		webhookDeliveries.WithLabelValues("error").Inc()
		return "", err
	}
	webhookDeliveries.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}

func (p *Processor) apply(ctx context.Context, externalID string, status domain.GenerationStatus, payload CallbackPayload) (CallbackOutcome, error) {
	if !status.IsTerminal() {
		updated, err := p.gens.UpdateProgress(ctx, externalID, status, p.now())
		if err != nil {
			return "", fmt.Errorf("persist generation progress: %w", err)
		}
		if updated {
			return OutcomeProcessed, nil
		}
		return p.resolveMiss(ctx, externalID)
	}

	// Terminal path. The read establishes the capability so the artifact can
	// be validated, and short-circuits the common duplicate case; the claim
	// below remains the authority under concurrent deliveries.
	g, err := p.gens.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.logger.Info().
				Str("external_request_id", externalID).
				Msg("webhook: delivery for untracked generation, dropping")
			return OutcomeUnknown, nil
		}
		return "", fmt.Errorf("load generation: %w", err)
	}
	if g.Status.IsTerminal() {
		return OutcomeDuplicate, nil
	}

	transition := domain.TerminalTransition{Status: status, ReceivedAt: p.now()}
	var artifactURL string
	if status == domain.GenerationStatusCompleted {
		artifactURL = artifactFromPayload(g.APIProvider, payload)
		if artifactURL == "" && expectsArtifact(g.APIProvider) {
			// A reported completion with no artifact is indistinguishable
			// from a provider bug and must not surface as success.
			transition.Status = domain.GenerationStatusFailed
			transition.FailureReason = fmt.Sprintf("provider reported completion without %s output", artifactKind(g.APIProvider))
		}
	} else {
		transition.FailureReason = strings.TrimSpace(payload.FailureReason)
		if transition.FailureReason == "" {
			transition.FailureReason = "generation failed"
		}
	}

	claimed, err := p.gens.ClaimTerminal(ctx, externalID, transition)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Another delivery made the generation terminal between the read
			// and the claim.
			return OutcomeDuplicate, nil
		}
		return "", fmt.Errorf("persist terminal transition: %w", err)
	}
	terminalTransitions.WithLabelValues(string(claimed.Status), string(claimed.APIProvider)).Inc()

	if claimed.Status == domain.GenerationStatusCompleted {
		if err := p.linkArtifact(ctx, claimed, artifactURL); err != nil {
			return "", err
		}
	} else {
		p.syncShotFailure(ctx, claimed)
	}
	return OutcomeProcessed, nil
}

func (p *Processor) resolveMiss(ctx context.Context, externalID string) (CallbackOutcome, error) {
	_, err := p.gens.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Responding success on a miss avoids a provider retry storm for
			// generations this system no longer tracks; the cost is one
			// dropped notification.
			p.logger.Info().
				Str("external_request_id", externalID).
				Msg("webhook: delivery for untracked generation, dropping")
			return OutcomeUnknown, nil
		}
		return "", fmt.Errorf("load generation: %w", err)
	}
	return OutcomeDuplicate, nil
}

// MarkCompleted records a terminal success observed outside the webhook
// channel (the text poll loop). Text generations produce no media asset; the
// result payload is returned to the caller directly.
func (p *Processor) MarkCompleted(ctx context.Context, externalID string) error {
	claimed, err := p.gens.ClaimTerminal(ctx, externalID, domain.TerminalTransition{
		Status:     domain.GenerationStatusCompleted,
		ReceivedAt: p.now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("persist terminal transition: %w", err)
	}
	terminalTransitions.WithLabelValues(string(claimed.Status), string(claimed.APIProvider)).Inc()
	return nil
}

// MarkFailed records a terminal failure observed outside the webhook channel
// (poll loop failures, reconciler deadline expiry) and propagates it to the
// owner shot. Already-terminal generations are left untouched.
func (p *Processor) MarkFailed(ctx context.Context, externalID, reason string) error {
	claimed, err := p.gens.ClaimTerminal(ctx, externalID, domain.TerminalTransition{
		Status:        domain.GenerationStatusFailed,
		FailureReason: reason,
		ReceivedAt:    p.now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("persist terminal transition: %w", err)
	}
	terminalTransitions.WithLabelValues(string(claimed.Status), string(claimed.APIProvider)).Inc()
	p.syncShotFailure(ctx, claimed)
	return nil
}

// linkArtifact creates the media asset for a claimed completion and updates
// the owner shot. The claim preceding this call guarantees at most one asset
// per generation; a crash between asset insert and the back-reference update
// leaves an orphaned append-only row, which is harmless.
func (p *Processor) linkArtifact(ctx context.Context, g *domain.Generation, artifactURL string) error {
	if !expectsArtifact(g.APIProvider) {
		return nil
	}
	asset := &domain.MediaAsset{
		ID:        uuid.NewString(),
		UserID:    g.UserID,
		ProjectID: g.ProjectID,
		CDNURL:    artifactURL,
		FileName:  fileNameFromURL(artifactURL),
		MimeType:  mimeTypeForURL(g.APIProvider, artifactURL),
		AssetType: assetTypeFor(g.APIProvider),
		Purpose:   domain.AssetPurposeGenerationResult,
	}
	if err := p.assets.Create(ctx, asset); err != nil {
		return fmt.Errorf("persist media asset: %w", err)
	}
	if err := p.gens.SetResultAsset(ctx, g.ID, asset.ID); err != nil {
		return fmt.Errorf("persist result asset link: %w", err)
	}
	p.logger.Info().
		Str("generation_id", g.ID).
		Str("media_asset_id", asset.ID).
		Str("cdn_url", artifactURL).
		Msg("generation artifact linked")

	// Video completions update the generation and asset only; shots carry no
	// video result surface.
	if g.APIProvider == domain.ProviderImage && g.ShotID != "" {
		if err := p.shots.SetImageResult(ctx, g.ShotID, artifactURL); err != nil {
			return fmt.Errorf("persist shot image result: %w", err)
		}
	}
	return nil
}

// syncShotFailure propagates a terminal failure onto the owner shot. Only
// image generations drive shot state; failures on other capabilities update
// the generation record alone.
func (p *Processor) syncShotFailure(ctx context.Context, g *domain.Generation) {
	if g.APIProvider != domain.ProviderImage || g.ShotID == "" {
		return
	}
	if err := p.shots.SetImageFailure(ctx, g.ShotID, g.FailureReason); err != nil {
		// The generation already holds the authoritative failure; a shot
		// sync miss only stales the UI, so it is logged rather than failing
		// the delivery into a provider retry.
		p.logger.Error().Err(err).
			Str("generation_id", g.ID).
			Str("shot_id", g.ShotID).
			Msg("failed to sync shot failure state")
	}
}

func expectsArtifact(p domain.APIProvider) bool {
	return p == domain.ProviderImage || p == domain.ProviderVideo
}

func artifactFromPayload(p domain.APIProvider, payload CallbackPayload) string {
	switch p {
	case domain.ProviderImage:
		if len(payload.Output.Images) > 0 {
			return strings.TrimSpace(payload.Output.Images[0])
		}
	case domain.ProviderVideo:
		if len(payload.Output.Videos) > 0 {
			return strings.TrimSpace(payload.Output.Videos[0])
		}
	}
	return ""
}

func artifactKind(p domain.APIProvider) string {
	if p == domain.ProviderVideo {
		return "video"
	}
	return "image"
}

func assetTypeFor(p domain.APIProvider) domain.AssetType {
	if p == domain.ProviderVideo {
		return domain.AssetTypeVideo
	}
	return domain.AssetTypeImage
}

func fileNameFromURL(rawURL string) string {
	name := path.Base(strings.SplitN(rawURL, "?", 2)[0])
	if name == "." || name == "/" || name == "" {
		return "result"
	}
	return name
}

func mimeTypeForURL(p domain.APIProvider, rawURL string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0]))
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	}
	if p == domain.ProviderVideo {
		return "video/mp4"
	}
	return "image/png"
}
