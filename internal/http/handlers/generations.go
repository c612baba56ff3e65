package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"studio-server/internal/domain"
	"studio-server/internal/generation"
)

type generateRequest struct {
	APIProvider   string `json:"api_provider"`
	Prompt        string `json:"prompt"`
	AspectRatio   string `json:"aspect_ratio,omitempty"`
	InputImageURL string `json:"input_image_url,omitempty"`
	Model         string `json:"model,omitempty"`
	UserID        string `json:"user_id"`
	ProjectID     string `json:"project_id"`
	ShotID        string `json:"shot_id,omitempty"`
}

type generationResponse struct {
	ID                 string `json:"id"`
	APIProvider        string `json:"api_provider"`
	ExternalRequestID  string `json:"external_request_id"`
	Status             string `json:"status"`
	FailureReason      string `json:"failure_reason,omitempty"`
	ResultMediaAssetID string `json:"result_media_asset_id,omitempty"`
	ShotID             string `json:"shot_id,omitempty"`
}

func toGenerationResponse(g *domain.Generation) generationResponse {
	return generationResponse{
		ID:                 g.ID,
		APIProvider:        string(g.APIProvider),
		ExternalRequestID:  g.ExternalRequestID,
		Status:             string(g.Status),
		FailureReason:      g.FailureReason,
		ResultMediaAssetID: g.ResultMediaAssetID,
		ShotID:             g.ShotID,
	}
}

// GenerationsCreate submits an image or video generation and returns the
// persisted record in submitted state. Lifecycle from here on is driven by
// provider webhooks, never by this API.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	provider := domain.APIProvider(strings.TrimSpace(req.APIProvider))
	if provider != domain.ProviderImage && provider != domain.ProviderVideo {
		a.error(w, http.StatusBadRequest, "bad_request", "api_provider must be provider_image or provider_video")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" && provider == domain.ProviderImage {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	if req.UserID == "" || req.ProjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id and project_id are required")
		return
	}

	g, err := a.Submitter.Submit(r.Context(), generation.SubmitParams{
		Provider:      provider,
		Prompt:        req.Prompt,
		AspectRatio:   req.AspectRatio,
		InputImageURL: req.InputImageURL,
		Model:         req.Model,
		UserID:        req.UserID,
		ProjectID:     req.ProjectID,
		ShotID:        req.ShotID,
	})
	if err != nil {
		a.submitError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, toGenerationResponse(g))
}

// GenerationsText submits a text generation and runs the poll loop inline.
// The request context cancels polling when the client goes away; the
// underlying provider job keeps running and the reconciler settles it.
func (a *App) GenerationsText(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	if req.UserID == "" || req.ProjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id and project_id are required")
		return
	}

	g, err := a.Submitter.Submit(r.Context(), generation.SubmitParams{
		Provider:  domain.ProviderText,
		Prompt:    req.Prompt,
		Model:     req.Model,
		UserID:    req.UserID,
		ProjectID: req.ProjectID,
	})
	if err != nil {
		a.submitError(w, err)
		return
	}

	result, err := a.Poller.Poll(r.Context(), g.ExternalRequestID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGenerationFailed):
			if markErr := a.Processor.MarkFailed(r.Context(), g.ExternalRequestID, err.Error()); markErr != nil {
				a.Logger.Error().Err(markErr).Str("generation_id", g.ID).Msg("failed to record poll failure")
			}
			a.error(w, http.StatusBadGateway, "generation_failed", err.Error())
		case errors.Is(err, domain.ErrPollTimeout):
			// The provider job may still finish; the record stays
			// non-terminal and the reconciler settles it later.
			a.error(w, http.StatusGatewayTimeout, "poll_timeout", "generation did not finish in time")
		default:
			a.Logger.Error().Err(err).Str("generation_id", g.ID).Msg("text generation poll aborted")
			a.error(w, http.StatusBadGateway, "provider_unavailable", "status check failed")
		}
		return
	}

	if err := a.Processor.MarkCompleted(r.Context(), g.ExternalRequestID); err != nil {
		a.Logger.Error().Err(err).Str("generation_id", g.ID).Msg("failed to record poll completion")
	}
	a.json(w, http.StatusOK, map[string]any{
		"generation_id": g.ID,
		"result":        json.RawMessage(result),
	})
}

// GenerationsGet returns the current state of a generation for UI readback.
func (a *App) GenerationsGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	g, err := a.Gens.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.Logger.Error().Err(err).Str("generation_id", id).Msg("failed to load generation")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(g))
}

func (a *App) submitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		a.Logger.Error().Err(err).Msg("generation submit rejected: credential missing")
		a.error(w, http.StatusServiceUnavailable, "missing_credential", "provider api key is not configured")
	case errors.Is(err, domain.ErrProviderUnavailable):
		a.error(w, http.StatusBadGateway, "provider_unavailable", "provider request failed")
	case errors.Is(err, domain.ErrMalformedResponse):
		a.error(w, http.StatusBadGateway, "malformed_response", "provider returned an unusable response")
	default:
		a.Logger.Error().Err(err).Msg("generation submit failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to submit generation")
	}
}
