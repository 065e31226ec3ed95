package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"

	"campaignomatic/internal/adapter/repo"
	"campaignomatic/internal/domain"
	"campaignomatic/internal/generation"
	"campaignomatic/internal/http/handlers"
	httpapi "campaignomatic/internal/http/httpapi"
	"campaignomatic/internal/infra"
	imageprovider "campaignomatic/internal/providers/image"
	textprovider "campaignomatic/internal/providers/text"
	"campaignomatic/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewFileStore(cfg.AssetsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare assets dir")
	}

	ctx := context.Background()
	var index domain.GenerationIndex = storage.NewMetaIndex(store)
	dbpool, err := infra.NewDBPool(ctx, cfg)
	switch {
	case errors.Is(err, infra.ErrDatabaseDisabled):
		logger.Info().Msg("DATABASE_URL not set, serving history from meta.json files")
	case err != nil:
		logger.Fatal().Err(err).Msg("failed to connect database")
	default:
		defer dbpool.Close()
		generations := repo.NewGenerationRepository(infra.NewSQLRunner(dbpool, logger))
		if err := generations.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare database schema")
		}
		index = generations
	}

	svc := generation.NewService(generation.Options{
		Text: textprovider.NewOllamaClient(textprovider.OllamaOptions{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.UpstreamTimeout,
		}),
		Images: imageprovider.NewSDWebUIClient(imageprovider.SDWebUIOptions{
			BaseURL: cfg.SDWebUIURL,
			Steps:   cfg.ImageSteps,
			Timeout: cfg.UpstreamTimeout,
		}),
		Store:            store,
		Index:            index,
		Logger:           logger,
		Model:            cfg.OllamaModel,
		ImageConcurrency: cfg.ImageConcurrency,
	})

	app := handlers.NewApp(cfg, svc, index, store, logger)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("ollama", cfg.OllamaBaseURL).
			Str("model", cfg.OllamaModel).
			Str("stable_diffusion", cfg.SDWebUIURL).
			Str("assets_dir", store.BasePath()).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
