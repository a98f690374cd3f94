package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"tokolink/internal/adapter/repo"
	"tokolink/internal/fetch"
	"tokolink/internal/http/handlers"
	"tokolink/internal/http/httpapi"
	"tokolink/internal/infra"
	"tokolink/internal/publish"
	"tokolink/internal/queue"
	"tokolink/internal/slideshow"
	"tokolink/internal/storage"
)

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
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	var publisher publish.Publisher
	if cfg.MinioEndpoint != "" {
		mp, err := publish.NewMinioPublisher(publish.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			BaseURL:   cfg.MinioBaseURL,
			UseSSL:    cfg.MinioUseSSL,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: failed to configure publisher")
		}
		if err := mp.EnsureBucket(ctx); err != nil {
			logger.Fatal().Err(err).Msg("api: failed to ensure publish bucket")
		}
		publisher = mp
	} else {
		logger.Info().Msg("api: no publish endpoint configured, videos stay on local storage")
	}

	fetcher := fetch.NewFetcher(logger)
	encoder := slideshow.NewFFmpeg(cfg.FFmpegPath, logger)
	composer := slideshow.NewComposer(fetcher, encoder, logger)
	products := repo.NewProductRepository(pool)

	jobs := queue.New(products, composer, publisher, fileStore, logger)
	jobs.Start(ctx)

	app := handlers.NewApp(jobs, logger)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	logger.Info().Msg("api: stopped")
}
