package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/sololink/pkg/config"
	"github.com/wadjakorntonsri/sololink/pkg/core/routing"
)

type contextKey int

const (
	userIDKey contextKey = iota
	hostLabelKey
)

type Middleware struct {
	jwtSecret  []byte
	rootDomain string
	excluder   *routing.Excluder
	trustProxy bool
	log        *zerolog.Logger
}

func NewMiddleware(cfg *config.Config, log *zerolog.Logger) *Middleware {
	return &Middleware{
		jwtSecret:  []byte(cfg.JWTSecret),
		rootDomain: cfg.RootDomain,
		excluder:   routing.NewExcluder(cfg.RouterExclude...),
		trustProxy: cfg.TrustProxy,
		log:        log,
	}
}

// AuthMiddleware verifies the JWT token from the cookie and puts the user
// id into the request context.
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			m.deny(w, r)
			return
		}

		userID, err := parseToken(m.jwtSecret, cookie.Value)
		if err != nil {
			m.log.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected session token")
			m.deny(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}
	http.Redirect(w, r, "/auth/google/login", http.StatusTemporaryRedirect)
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// userIDFromContext returns the authenticated user id
func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// hostLabelFromContext returns the subdomain label when the request was rewritten
func hostLabelFromContext(ctx context.Context) string {
	label, _ := ctx.Value(hostLabelKey).(string)
	return label
}

// HostRewrite serves username.<root domain>/path as /username/path. It is
// an internal rewrite: the client never sees a redirect.
func (m *Middleware) HostRewrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.excluder.Excluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		d := routing.Decide(r.Host, r.URL.Path, m.rootDomain)
		if !d.Rewrite {
			next.ServeHTTP(w, r)
			return
		}

		rewritten := r.Clone(context.WithValue(r.Context(), hostLabelKey, d.HostLabel))
		rewritten.URL.Path = d.Path
		rewritten.URL.RawPath = ""
		next.ServeHTTP(w, rewritten)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.size += size
	return size, err
}

// RequestLogger logs one line per request with status, size and latency
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &responseRecorder{ResponseWriter: w}

		next.ServeHTTP(recorder, r)

		if recorder.statusCode == 0 {
			recorder.statusCode = http.StatusOK
		}

		var event *zerolog.Event
		switch {
		case recorder.statusCode >= 500:
			event = m.log.Error()
		case recorder.statusCode >= 400:
			event = m.log.Warn()
		default:
			event = m.log.Info()
		}

		event.
			Str("method", r.Method).
			Str("host", r.Host).
			Str("path", r.URL.Path).
			Int("status", recorder.statusCode).
			Int("bytes", recorder.size).
			Dur("duration_ms", time.Since(start)).
			Str("ip", clientIP(r, m.trustProxy)).
			Msg("request completed")
	})
}
