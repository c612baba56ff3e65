package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio-server/internal/adapter/repo"
	"studio-server/internal/generation"
	"studio-server/internal/http/handlers"
	"studio-server/internal/http/httpapi"
	"studio-server/internal/infra"
	"studio-server/internal/providers/dream"
	"studio-server/internal/providers/textgen"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	gens := repo.NewGenerationRepository(dbpool)
	assets := repo.NewMediaAssetRepository(dbpool)
	shots := repo.NewShotRepository(dbpool)

	dreamClient := dream.NewClient(dream.Options{
		APIKey:     cfg.DreamAPIKey,
		BaseURL:    cfg.DreamBaseURL,
		ImageModel: cfg.DreamImageModel,
		VideoModel: cfg.DreamVideoModel,
		WebhookURL: cfg.WebhookBaseURL + "/v1/webhooks/dream",
		Logger:     &logger,
	})
	if !dreamClient.HasCredentials() {
		logger.Warn().Msg("DREAM_API_KEY missing; submissions will be rejected until configured")
	}
	textClient := textgen.NewClient(textgen.Options{BaseURL: cfg.TextgenBaseURL})

	submitter := generation.NewSubmitter(gens, dreamClient, textClient, logger)
	processor := generation.NewProcessor(gens, assets, shots, logger)
	poller := generation.NewPoller(textClient, 0, 0, logger)

	app := handlers.NewApp(logger, gens, submitter, processor, poller)
	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
