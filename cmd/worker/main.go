package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studio-server/internal/adapter/repo"
	"studio-server/internal/domain"
	"studio-server/internal/generation"
	"studio-server/internal/infra"
	"studio-server/internal/providers/textgen"
)

const staleBatchSize = 50

// The reconciler settles generations the normal channels missed: text
// generations whose poll loop was cancelled, and webhook generations whose
// callback never arrived. It uses the same terminal-state claim as the
// webhook path, so a late callback and the reconciler can never both win.
type reconciler struct {
	ctx       context.Context
	gens      domain.GenerationRepository
	processor *generation.Processor
	text      *textgen.Client
	logger    infra.Logger
	interval  time.Duration
	deadline  time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	gens := repo.NewGenerationRepository(pool)
	assets := repo.NewMediaAssetRepository(pool)
	shots := repo.NewShotRepository(pool)

	r := &reconciler{
		ctx:       ctx,
		gens:      gens,
		processor: generation.NewProcessor(gens, assets, shots, logger),
		text:      textgen.NewClient(textgen.Options{BaseURL: cfg.TextgenBaseURL}),
		logger:    logger,
		interval:  cfg.ReconcileInterval,
		deadline:  cfg.CallbackDeadline,
	}

	if err := r.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (r *reconciler) Run() error {
	r.logger.Info().Msg("worker: started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *reconciler) sweep() {
	cutoff := time.Now().Add(-r.deadline)
	r.expireWebhookGenerations(domain.ProviderImage, cutoff)
	r.expireWebhookGenerations(domain.ProviderVideo, cutoff)
	r.settleTextGenerations(cutoff)
}

// expireWebhookGenerations fails generations whose provider callback never
// arrived within the deadline. Failing through the processor keeps the owner
// shot in sync.
func (r *reconciler) expireWebhookGenerations(provider domain.APIProvider, cutoff time.Time) {
	stale, err := r.gens.ListStale(r.ctx, provider, cutoff, staleBatchSize)
	if err != nil {
		r.logger.Error().Err(err).Str("api_provider", string(provider)).Msg("worker: list stale failed")
		return
	}
	for _, g := range stale {
		if err := r.processor.MarkFailed(r.ctx, g.ExternalRequestID, "no provider callback within deadline"); err != nil {
			r.logger.Error().Err(err).Str("generation_id", g.ID).Msg("worker: expire failed")
			continue
		}
		r.logger.Info().
			Str("generation_id", g.ID).
			Str("external_request_id", g.ExternalRequestID).
			Msg("worker: expired generation without callback")
	}
}

// settleTextGenerations re-checks abandoned text generations once against
// the intermediary and records whatever terminal state it reports.
func (r *reconciler) settleTextGenerations(cutoff time.Time) {
	stale, err := r.gens.ListStale(r.ctx, domain.ProviderText, cutoff, staleBatchSize)
	if err != nil {
		r.logger.Error().Err(err).Msg("worker: list stale text generations failed")
		return
	}
	for _, g := range stale {
		st, err := r.text.CheckStatus(r.ctx, g.ExternalRequestID)
		if err != nil {
			// Transient; retry on the next sweep.
			r.logger.Warn().Err(err).Str("generation_id", g.ID).Msg("worker: status check failed")
			continue
		}
		switch st.Status {
		case textgen.StatusCompleted:
			err = r.processor.MarkCompleted(r.ctx, g.ExternalRequestID)
		case textgen.StatusFailed:
			reason := st.Error
			if reason == "" {
				reason = "provider reported failure"
			}
			err = r.processor.MarkFailed(r.ctx, g.ExternalRequestID, reason)
		default:
			err = r.processor.MarkFailed(r.ctx, g.ExternalRequestID, "generation did not finish within deadline")
		}
		if err != nil {
			r.logger.Error().Err(err).Str("generation_id", g.ID).Msg("worker: settle failed")
		}
	}
}
