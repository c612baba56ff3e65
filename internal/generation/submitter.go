package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studio-server/internal/domain"
	"studio-server/internal/infra"
	"studio-server/internal/providers/dream"
	"studio-server/internal/providers/textgen"
)

// ImageSubmitter places webhook-tracked generation requests with the
// provider.
type ImageSubmitter interface {
	SubmitImage(ctx context.Context, req dream.ImageRequest) (*dream.Submission, error)
	SubmitVideo(ctx context.Context, req dream.VideoRequest) (*dream.Submission, error)
}

// TextSubmitter places poll-tracked requests with the intermediary.
type TextSubmitter interface {
	Submit(ctx context.Context, req textgen.SubmitRequest) (*textgen.Submission, error)
}

// Submitter issues generation requests and records them. A generation row is
// inserted only after the provider acknowledged the request with an external
// id; no partial state is left behind on any failure path.
type Submitter struct {
	gens   domain.GenerationRepository
	dream  ImageSubmitter
	text   TextSubmitter
	logger infra.Logger
}

// NewSubmitter constructs a submitter with injected dependencies.
func NewSubmitter(gens domain.GenerationRepository, dreamClient ImageSubmitter, textClient TextSubmitter, logger infra.Logger) *Submitter {
	return &Submitter{gens: gens, dream: dreamClient, text: textClient, logger: logger}
}

// SubmitParams carries the target capability, payload, and owner identifiers
// for one generation request.
type SubmitParams struct {
	Provider      domain.APIProvider
	Prompt        string
	AspectRatio   string
	InputImageURL string
	Model         string
	UserID        string
	ProjectID     string
	ShotID        string
}

// Submit constructs the provider-specific request, places it, and persists
// the generation in submitted state. The external id returned by the
// provider is captured verbatim as the reconciliation key.
func (s *Submitter) Submit(ctx context.Context, p SubmitParams) (*domain.Generation, error) {
	var externalID string
	var payload []byte

	switch p.Provider {
	case domain.ProviderImage:
		sub, err := s.dream.SubmitImage(ctx, dream.ImageRequest{
			Prompt:      p.Prompt,
			AspectRatio: p.AspectRatio,
			Model:       p.Model,
		})
		if err != nil {
			return nil, err
		}
		externalID, payload = sub.ID, sub.Payload
	case domain.ProviderVideo:
		sub, err := s.dream.SubmitVideo(ctx, dream.VideoRequest{
			Prompt:        p.Prompt,
			InputImageURL: p.InputImageURL,
			Model:         p.Model,
		})
		if err != nil {
			return nil, err
		}
		externalID, payload = sub.ID, sub.Payload
	case domain.ProviderText:
		sub, err := s.text.Submit(ctx, textgen.SubmitRequest{Prompt: p.Prompt, Model: p.Model})
		if err != nil {
			return nil, err
		}
		externalID, payload = sub.RequestID, sub.Payload
	default:
		return nil, fmt.Errorf("unsupported api provider %q", p.Provider)
	}

	g := &domain.Generation{
		ID:                uuid.NewString(),
		UserID:            p.UserID,
		ProjectID:         p.ProjectID,
		ShotID:            p.ShotID,
		APIProvider:       p.Provider,
		ExternalRequestID: externalID,
		RequestPayload:    payload,
		Status:            domain.GenerationStatusSubmitted,
	}
	if err := s.gens.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("persist generation: %w", err)
	}
	s.logger.Info().
		Str("generation_id", g.ID).
		Str("external_request_id", externalID).
		Str("api_provider", string(p.Provider)).
		Msg("generation submitted")
	return g, nil
}
