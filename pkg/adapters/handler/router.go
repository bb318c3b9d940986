package handler

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/sololink/pkg/config"
	"github.com/wadjakorntonsri/sololink/pkg/ports"
)

// Services bundles what the router dispatches to
type Services struct {
	Links    ports.LinkService
	Profiles ports.ProfileService
	Users    ports.UserService
	Clicks   ports.ClickRecorder
	Health   Pinger
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, log *zerolog.Logger, svc Services) (http.Handler, error) {
	// Initialize Handlers
	lh := NewLinkHandler(svc.Links, svc.Users, cfg.ProfileURL, log)
	ph := NewProfileHandler(svc.Profiles, svc.Clicks, cfg.TrustProxy, log)
	th := NewTrackHandler(svc.Clicks, cfg.TrackRatePerSec, cfg.TrackRateBurst, cfg.TrustProxy, log)
	authHandler := NewAuthHandler(cfg, svc.Users, log)
	pages, err := NewPageHandler(svc.Health, log)
	if err != nil {
		return nil, err
	}

	// Initialize Middleware
	mw := NewMiddleware(cfg, log)

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /{$}", pages.Home)
	mux.HandleFunc("GET /healthz", pages.Healthz)
	mux.HandleFunc("POST /api/track-click", th.TrackClick)
	mux.HandleFunc("GET /api/profiles/{username}", ph.JSON)
	mux.HandleFunc("GET /{username}", ph.Page)
	mux.HandleFunc("GET /{username}/{$}", ph.Page)
	mux.HandleFunc("GET /{username}/go/{linkID}", ph.Go)

	// Auth Routes
	mux.HandleFunc("POST /auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /auth/login", authHandler.PasswordLogin)
	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	// Protected Routes (Dashboard API)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /api/v1/me", lh.Me)
	protectedMux.HandleFunc("GET /api/v1/dashboard", lh.Dashboard)
	protectedMux.HandleFunc("GET /api/v1/links", lh.List)
	protectedMux.HandleFunc("POST /api/v1/links", lh.Create)
	protectedMux.HandleFunc("PUT /api/v1/links/order", lh.Reorder)
	protectedMux.HandleFunc("PATCH /api/v1/links/{id}", lh.Update)
	protectedMux.HandleFunc("POST /api/v1/links/{id}/toggle", lh.Toggle)
	protectedMux.HandleFunc("DELETE /api/v1/links/{id}", lh.Delete)
	protectedMux.HandleFunc("GET /api/v1/links/{id}/stats", lh.Stats)

	// protectedMux holds full paths, so /api/v1/ dispatches straight through
	mux.Handle("/api/v1/", mw.AuthMiddleware(protectedMux))

	// The host rewrite must see every request before the mux does
	return mw.RequestLogger(mw.HostRewrite(mux)), nil
}
