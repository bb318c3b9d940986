package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/sololink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/sololink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/sololink/pkg/config"
	"github.com/wadjakorntonsri/sololink/pkg/core/services"
	"github.com/wadjakorntonsri/sololink/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, false)

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL
	store, err := sqlstore.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	// Functions are frozen between invocations, so the workers only run
	// while a request is in flight; queued clicks may be lost on cold stop.
	clicks := services.NewClickAccountant(store, log, cfg.ClickWorkers, cfg.ClickQueueSize)
	clicks.Start(context.Background())

	mux, err = handler.NewRouter(cfg, log, handler.Services{
		Links:    services.NewLinkService(store),
		Profiles: services.NewProfileService(store, store),
		Users:    services.NewUserService(store),
		Clicks:   clicks,
		Health:   store,
	})
	if err != nil {
		panic(err)
	}
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
