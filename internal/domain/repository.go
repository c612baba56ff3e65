package domain

import (
	"context"
	"time"
)

// TerminalTransition describes a claim of a generation's final state. The
// claim is performed with a conditional update so that exactly one caller
// wins, no matter how many duplicate deliveries race for the same record.
type TerminalTransition struct {
	Status        GenerationStatus
	FailureReason string
	ReceivedAt    time.Time
}

// GenerationRepository defines persistence for generation records. Webhook
// reconciliation keys on the external request id alone, since the provider
// does not echo back which capability produced a delivery.
type GenerationRepository interface {
	Create(ctx context.Context, g *Generation) error
	GetByID(ctx context.Context, id string) (*Generation, error)
	GetByExternalID(ctx context.Context, externalID string) (*Generation, error)
	// UpdateProgress moves a non-terminal generation to another non-terminal
	// status and stamps callback_received_at on first notification. It
	// reports whether a row was updated; false means the generation is
	// unknown or already terminal.
	UpdateProgress(ctx context.Context, externalID string, status GenerationStatus, receivedAt time.Time) (bool, error)
	// ClaimTerminal atomically transitions a non-terminal generation to a
	// terminal state and returns the claimed record. ErrNotFound means the
	// generation is unknown or another caller already made it terminal.
	ClaimTerminal(ctx context.Context, externalID string, t TerminalTransition) (*Generation, error)
	// SetResultAsset links the media asset produced by a completed
	// generation.
	SetResultAsset(ctx context.Context, generationID, assetID string) error
	// ListStale returns non-terminal generations for the provider that have
	// not been touched since the cutoff.
	ListStale(ctx context.Context, provider APIProvider, cutoff time.Time, limit int) ([]Generation, error)
}

// MediaAssetRepository handles persistence for produced artifacts.
type MediaAssetRepository interface {
	Create(ctx context.Context, a *MediaAsset) error
	GetByID(ctx context.Context, id string) (*MediaAsset, error)
}

// ShotRepository updates the image result surface of the owner entity.
type ShotRepository interface {
	// SetImageResult records a successful image generation on the shot and
	// clears any previous failure reason.
	SetImageResult(ctx context.Context, shotID, imageURL string) error
	// SetImageFailure marks the shot failed with the generation's reason.
	SetImageFailure(ctx context.Context, shotID, reason string) error
}
