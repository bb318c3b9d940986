package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/ports"
)

const maxTrackBodyBytes = 4 << 10

// TrackHandler receives click beacons from profile pages
type TrackHandler struct {
	clicks     ports.ClickRecorder
	limiter    *ipRateLimiter
	trustProxy bool
	log        *zerolog.Logger
}

func NewTrackHandler(clicks ports.ClickRecorder, perSecond float64, burst int, trustProxy bool, log *zerolog.Logger) *TrackHandler {
	return &TrackHandler{
		clicks:     clicks,
		limiter:    newIPRateLimiter(perSecond, burst),
		trustProxy: trustProxy,
		log:        log,
	}
}

type trackRequest struct {
	LinkID string `json:"linkId"`
}

// TrackClick always answers 204. Beacons cannot read responses, and a
// visitor's navigation must never depend on whether the click was counted.
func (h *TrackHandler) TrackClick(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusNoContent)

	ip := clientIP(r, h.trustProxy)
	if !h.limiter.Allow(ip) {
		h.log.Debug().Str("ip", ip).Msg("track-click rate limited")
		return
	}

	// sendBeacon posts text/plain, fetch posts JSON; the body is the same
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTrackBodyBytes))
	if err != nil {
		return
	}
	var req trackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.Debug().Err(err).Msg("malformed track-click body")
		return
	}
	if _, err := uuid.Parse(req.LinkID); err != nil {
		return
	}

	h.clicks.Record(domain.ClickEvent{
		LinkID:    req.LinkID,
		Referer:   r.Referer(),
		UserAgent: r.UserAgent(),
		IP:        ip,
		At:        time.Now(),
	})
}
