package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/sololink/pkg/config"
	"github.com/wadjakorntonsri/sololink/pkg/logger"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{
		JWTSecret: "testservlet",
	}
	mw := NewMiddleware(cfg, logger.Nop())

	valid, _, err := issueToken([]byte(cfg.JWTSecret), "user-1", time.Now())
	require.NoError(t, err)
	expired, _, err := issueToken([]byte(cfg.JWTSecret), "user-1", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	foreign, _, err := issueToken([]byte("other-secret"), "user-1", time.Now())
	require.NoError(t, err)

	tests := []struct {
		name           string
		path           string
		cookieValue    string
		expectedStatus int
		expectedUser   string
	}{
		{
			name:           "No Cookie - API",
			path:           "/api/v1/links",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "No Cookie - Browser",
			path:           "/dashboard",
			expectedStatus: http.StatusTemporaryRedirect,
		},
		{
			name:           "Invalid Cookie - API",
			path:           "/api/v1/links",
			cookieValue:    "invalid",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Cookie - API",
			path:           "/api/v1/links",
			cookieValue:    expired,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Secret - API",
			path:           "/api/v1/links",
			cookieValue:    foreign,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Unsigned Token - API",
			path:           "/api/v1/links",
			cookieValue:    unsignedToken(t),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Cookie - API",
			path:           "/api/v1/links",
			cookieValue:    valid,
			expectedStatus: http.StatusOK,
			expectedUser:   "user-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tt.cookieValue})
			}

			var gotUser string
			rr := httptest.NewRecorder()
			handler := mw.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = userIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedUser, gotUser)
		})
	}
}

func unsignedToken(t *testing.T) string {
	claims := &jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return s
}

func TestHostRewrite(t *testing.T) {
	cfg := &config.Config{RootDomain: "example.com", RouterExclude: []string{"/admin"}}
	mw := NewMiddleware(cfg, logger.Nop())

	tests := []struct {
		name      string
		host      string
		path      string
		wantPath  string
		wantLabel string
	}{
		{"subdomain root", "alice.example.com", "/", "/alice", "alice"},
		{"subdomain path", "alice.example.com", "/go/123", "/alice/go/123", "alice"},
		{"subdomain with port", "alice.example.com:8080", "/", "/alice", "alice"},
		{"root domain", "example.com", "/bob", "/bob", ""},
		{"localhost", "localhost:3000", "/alice", "/alice", ""},
		{"api excluded", "alice.example.com", "/api/track-click", "/api/track-click", ""},
		{"static asset excluded", "alice.example.com", "/logo.PNG", "/logo.PNG", ""},
		{"configured exclusion", "alice.example.com", "/admin/links", "/admin/links", ""},
		{"foreign host", "evil.test", "/x", "/x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			req.Host = tt.host

			var gotPath, gotLabel string
			h := mw.HostRewrite(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotLabel = hostLabelFromContext(r.Context())
			}))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code, "rewrite is never a redirect")
			assert.Equal(t, tt.wantPath, gotPath)
			assert.Equal(t, tt.wantLabel, gotLabel)
			assert.Equal(t, tt.path, req.URL.Path, "original request untouched")
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	mw := &Middleware{log: &log}

	h := mw.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	req := httptest.NewRequest("GET", "/pot", nil)
	req.RemoteAddr = "203.0.113.9:4711"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"bytes":15`)
	assert.Contains(t, out, `"path":"/pot"`)
	assert.Contains(t, out, `"ip":"203.0.113.9"`)
	assert.Contains(t, out, `"level":"warn"`)

	buf.Reset()
	mw.trustProxy = true
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Contains(t, buf.String(), `"ip":"198.51.100.7"`)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.9:4711"
	assert.Equal(t, "203.0.113.9", clientIP(req, false))
	assert.Equal(t, "203.0.113.9", clientIP(req, true), "no forwarded headers")

	req.Header.Set("X-Real-IP", "192.0.2.4")
	assert.Equal(t, "203.0.113.9", clientIP(req, false))
	assert.Equal(t, "192.0.2.4", clientIP(req, true))

	req.Header.Set("X-Forwarded-For", " 198.51.100.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req, false))
	assert.Equal(t, "198.51.100.7", clientIP(req, true))
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst spent")
	assert.True(t, l.Allow("b"), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"), "refilled")

	now = now.Add(2 * limiterIdleTTL)
	l.Allow("c")
	assert.NotContains(t, l.visitors, "a")
	assert.NotContains(t, l.visitors, "b")
}
