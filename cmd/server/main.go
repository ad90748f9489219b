package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/portops/backend/internal/config"
	"github.com/portops/backend/internal/db"
	httpapi "github.com/portops/backend/internal/http"
	"github.com/portops/backend/internal/notify"
	"github.com/portops/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "portops-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var sink notify.Sink
	if cfg.NotifyURL == "" {
		sink = &notify.FileSink{Path: cfg.NotifyFilePath}
		logger.Info().Str("path", cfg.NotifyFilePath).Msg("using file notification sink")
	} else {
		sink = notify.HTTPSink{BaseURL: cfg.NotifyURL}
	}

	reports := &service.Service{
		Store:    store,
		Notifier: sink,
		Logger:   logger,
		Defaults: service.DefaultsFromConfig(cfg),
	}

	router := httpapi.Router(cfg, store, reports, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
