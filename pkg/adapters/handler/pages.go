package handler

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

//go:embed templates/*.html content/*.md
var assets embed.FS

// PageHandler serves the landing page and the health check
type PageHandler struct {
	home   []byte
	health Pinger
	log    *zerolog.Logger
}

// Pinger reports whether storage is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type homePage struct {
	Title       string
	Description string
	Body        template.HTML
}

// NewPageHandler renders the embedded landing page once up front
func NewPageHandler(health Pinger, log *zerolog.Logger) (*PageHandler, error) {
	home, err := renderHome()
	if err != nil {
		return nil, err
	}
	return &PageHandler{home: home, health: health, log: log}, nil
}

func renderHome() ([]byte, error) {
	source, err := assets.ReadFile("content/home.md")
	if err != nil {
		return nil, fmt.Errorf("read landing page: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // GitHub Flavored Markdown
			meta.Meta,     // Frontmatter support
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	var body bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(source, &body, parser.WithContext(pctx)); err != nil {
		return nil, fmt.Errorf("render landing page: %w", err)
	}

	page := homePage{Title: "Solo Link", Body: template.HTML(body.String())}
	metaData := meta.Get(pctx)
	if title, ok := metaData["title"].(string); ok && title != "" {
		page.Title = title
	}
	if desc, ok := metaData["description"].(string); ok {
		page.Description = desc
	}

	tmpl, err := template.ParseFS(assets, "templates/home.html")
	if err != nil {
		return nil, fmt.Errorf("parse landing template: %w", err)
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, page); err != nil {
		return nil, fmt.Errorf("execute landing template: %w", err)
	}
	return out.Bytes(), nil
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.home)
}

func (h *PageHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
