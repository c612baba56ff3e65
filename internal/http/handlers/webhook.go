package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"studio-server/internal/domain"
	"studio-server/internal/generation"
)

// DreamWebhook receives provider callbacks. The provider delivers
// at-least-once with no ordering guarantee and retries on any non-2xx
// response, so every path through this handler answers deliberately: 400 for
// payloads that can never become valid, 200 for anything fully processed or
// intentionally ignored, 5xx only for persistence failures worth retrying.
func (a *App) DreamWebhook(w http.ResponseWriter, r *http.Request) {
	var payload generation.CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid webhook payload")
		return
	}

	outcome, err := a.Processor.ProcessCallback(r.Context(), payload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPayload) {
			a.error(w, http.StatusBadRequest, "bad_request", "webhook payload missing id or status")
			return
		}
		a.Logger.Error().Err(err).
			Str("external_request_id", payload.ID).
			Msg("webhook processing failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to process webhook")
		return
	}

	a.json(w, http.StatusOK, map[string]string{"result": string(outcome)})
}
