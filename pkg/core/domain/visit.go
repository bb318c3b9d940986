package domain

import "time"

// Visit represents a click on a profile link
type Visit struct {
	ID        int64     `json:"id"`
	LinkID    string    `json:"linkId"`
	Referer   string    `json:"referer"`
	UserAgent string    `json:"userAgent"`
	IPHash    string    `json:"ipHash"` // Anonymized IP
	CreatedAt time.Time `json:"createdAt"`
}

// LinkStats represents aggregated statistics for a link
type LinkStats struct {
	LinkID      string           `json:"linkId"`
	TotalClicks int64            `json:"totalClicks"`
	Referrers   map[string]int64 `json:"referrers"`   // count by referer
	DailyClicks []DailyClick     `json:"dailyClicks"` // timeline
}

type DailyClick struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// DashboardStats is the owner's aggregate view over all of their links
type DashboardStats struct {
	TotalLinks    int     `json:"totalLinks"`
	EnabledLinks  int     `json:"enabledLinks"`
	TotalClicks   int64   `json:"totalClicks"`
	AverageClicks float64 `json:"averageClicks"` // Clicks per link, 0 without links
	TopLink       *Link   `json:"topLink,omitempty"`
}

// ClickEvent is what a visitor's browser reports; it becomes a Visit once
// the link is known to exist.
type ClickEvent struct {
	LinkID    string
	Referer   string
	UserAgent string
	IP        string
	At        time.Time
}
