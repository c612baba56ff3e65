package handlers

import (
	"encoding/json"
	"net/http"

	"studio-server/internal/domain"
	"studio-server/internal/generation"
	"studio-server/internal/infra"
)

// App bundles the handler dependencies. Handlers are thin glue: they decode,
// delegate to the generation core, and render.
type App struct {
	Logger    infra.Logger
	Gens      domain.GenerationRepository
	Submitter *generation.Submitter
	Processor *generation.Processor
	Poller    *generation.Poller
}

// NewApp constructs the handler container.
func NewApp(logger infra.Logger, gens domain.GenerationRepository, submitter *generation.Submitter, processor *generation.Processor, poller *generation.Poller) *App {
	return &App{Logger: logger, Gens: gens, Submitter: submitter, Processor: processor, Poller: poller}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}
