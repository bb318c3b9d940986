package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/sololink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/sololink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/sololink/pkg/config"
	"github.com/wadjakorntonsri/sololink/pkg/core/services"
	"github.com/wadjakorntonsri/sololink/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, !cfg.IsProduction())

	log.Info().Str("env", cfg.AppEnv).Str("port", cfg.Port).Str("root_domain", cfg.RootDomain).Msg("starting sololink")

	app, err := newApp(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	app.close()
	log.Info().Msg("shutdown completed")
}

type app struct {
	handler http.Handler
	store   *sqlstore.Store
	clicks  *services.ClickAccountant
}

// newApp wires storage, services and the router
func newApp(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*app, error) {
	store, err := sqlstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	clicks := services.NewClickAccountant(store, log, cfg.ClickWorkers, cfg.ClickQueueSize)
	clicks.Start(ctx)

	h, err := handler.NewRouter(cfg, log, handler.Services{
		Links:    services.NewLinkService(store),
		Profiles: services.NewProfileService(store, store),
		Users:    services.NewUserService(store),
		Clicks:   clicks,
		Health:   store,
	})
	if err != nil {
		clicks.Stop()
		_ = store.Close()
		return nil, err
	}

	return &app{handler: h, store: store, clicks: clicks}, nil
}

// close drains queued clicks before the store goes away
func (a *app) close() {
	a.clicks.Stop()
	_ = a.store.Close()
}
