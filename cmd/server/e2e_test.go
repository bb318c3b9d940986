package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/sololink/pkg/config"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/logger"
)

func TestIntegration(t *testing.T) {
	cfg := &config.Config{
		DatabaseURL:     "file:memdb1?mode=memory&cache=shared",
		BaseURL:         "http://localhost:8080",
		RootDomain:      "example.com",
		JWTSecret:       "e2e-secret",
		FrontendURL:     "/admin",
		ClickWorkers:    2,
		ClickQueueSize:  64,
		TrackRatePerSec: 50,
		TrackRateBurst:  50,
	}
	a, err := newApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	closed := false
	defer func() {
		if !closed {
			a.close()
		}
	}()

	server := httptest.NewServer(a.handler)
	defer server.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := server.Client()
	client.Jar = jar
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	post := func(path string, payload any) *http.Response {
		body, _ := json.Marshal(payload)
		resp, err := client.Post(server.URL+path, "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	// TEST 1: Signup sets the session cookie
	resp := post("/auth/signup", map[string]string{"username": "alice", "email": "alice@example.com", "password": "password1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// TEST 2: Create links
	var created []domain.Link
	for _, l := range []struct{ title, url string }{
		{"GitHub", "https://github.com/alice"},
		{"Blog", "https://alice.dev"},
	} {
		resp := post("/api/v1/links", map[string]string{"title": l.title, "url": l.url})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var link domain.Link
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&link))
		created = append(created, link)
	}
	assert.Equal(t, 0, created[0].Order)
	assert.Equal(t, 1, created[1].Order)

	// TEST 3: Subdomain request is served as the profile, no redirect
	req, err := http.NewRequest("GET", server.URL+"/", nil)
	require.NoError(t, err)
	req.Host = "alice.example.com"
	resp, err = client.Do(req)
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(page), "alice | Solo Link")

	// TEST 4: Unknown link id is accepted and changes nothing
	resp = post("/api/track-click", map[string]string{"linkId": "nonexistent"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// TEST 5: Known link ids are counted
	for i := 0; i < 3; i++ {
		resp = post("/api/track-click", map[string]string{"linkId": created[1].ID})
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	a.clicks.Stop()

	// TEST 6: Stats
	resp, err = client.Get(server.URL + "/api/v1/links/" + created[1].ID + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats domain.LinkStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.EqualValues(t, 3, stats.TotalClicks)

	// TEST 7: Dashboard totals
	resp, err = client.Get(server.URL + "/api/v1/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash struct {
		ProfileURL string                `json:"profileUrl"`
		Stats      domain.DashboardStats `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dash))
	assert.Equal(t, "http://alice.example.com", dash.ProfileURL)
	assert.EqualValues(t, 3, dash.Stats.TotalClicks)
	require.NotNil(t, dash.Stats.TopLink)
	assert.Equal(t, created[1].ID, dash.Stats.TopLink.ID)

	first, err := a.store.GetLink(context.Background(), created[0].ID)
	require.NoError(t, err)
	assert.Zero(t, first.Clicks)

	// TEST 8: Logout drops the session
	resp, err = client.Get(server.URL + "/auth/logout")
	require.NoError(t, err)
	resp.Body.Close()
	u, _ := url.Parse(server.URL)
	for _, c := range jar.Cookies(u) {
		assert.NotEqual(t, "auth_token", c.Name, "session cookie still set")
	}
	resp, err = client.Get(server.URL + "/api/v1/links")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	a.close()
	closed = true
}
