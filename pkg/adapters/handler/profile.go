package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/ports"
)

// ProfileHandler renders public profiles
type ProfileHandler struct {
	profiles   ports.ProfileService
	clicks     ports.ClickRecorder
	tmpl       *template.Template
	trustProxy bool
	log        *zerolog.Logger
}

func NewProfileHandler(profiles ports.ProfileService, clicks ports.ClickRecorder, trustProxy bool, log *zerolog.Logger) *ProfileHandler {
	tmpl := template.Must(template.New("profile.html").Funcs(template.FuncMap{
		"hostname": displayHostname,
	}).ParseFS(assets, "templates/profile.html"))

	return &ProfileHandler{profiles: profiles, clicks: clicks, tmpl: tmpl, trustProxy: trustProxy, log: log}
}

type profilePage struct {
	Title    string
	Profile  *domain.Profile
	LinkBase string // prefix of the no-JS redirect links
}

func (h *ProfileHandler) Page(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	profile, err := h.profiles.Assemble(r.Context(), username)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	// On a subdomain the browser path has no username segment
	base := "/" + profile.User.Name
	if hostLabelFromContext(r.Context()) != "" {
		base = ""
	}

	var buf bytes.Buffer
	page := profilePage{
		Title:    profile.User.Name + " | Solo Link",
		Profile:  profile,
		LinkBase: base,
	}
	if err := h.tmpl.Execute(&buf, page); err != nil {
		h.log.Error().Err(err).Str("username", username).Msg("failed to render profile")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type publicUser struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type publicProfile struct {
	User     publicUser    `json:"user"`
	Links    []domain.Link `json:"links"`
	Featured *domain.Link  `json:"featured,omitempty"`
	Standard []domain.Link `json:"standard"`
}

// JSON serves the same payload the page is built from, minus account details
func (h *ProfileHandler) JSON(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Assemble(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, publicProfile{
		User:     publicUser{Name: profile.User.Name, Image: profile.User.Image},
		Links:    profile.Links,
		Featured: profile.Featured,
		Standard: profile.Standard,
	})
}

// Go counts a click and redirects to the link. Profile pages point here so
// clicks are counted even with scripts disabled.
func (h *ProfileHandler) Go(w http.ResponseWriter, r *http.Request) {
	link, err := h.profiles.EnabledLink(r.Context(), r.PathValue("username"), r.PathValue("linkID"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.clicks.Record(domain.ClickEvent{
		LinkID:    link.ID,
		Referer:   r.Referer(),
		UserAgent: r.UserAgent(),
		IP:        clientIP(r, h.trustProxy),
		At:        time.Now(),
	})
	http.Redirect(w, r, link.URL, http.StatusFound)
}

func (h *ProfileHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if isAPIRequest(r) {
		writeError(w, h.log, err)
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.log.Error().Err(err).Str("path", r.URL.Path).Msg("profile lookup failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// displayHostname shows example.com for https://www.example.com/path
func displayHostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
