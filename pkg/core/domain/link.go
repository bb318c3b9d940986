package domain

import "time"

// Link is one outbound entry on a user's profile
type Link struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Order     int       `json:"order"` // Unique per user, gaps allowed
	IsEnabled bool      `json:"isEnabled"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LinkPatch carries the optional fields of a link update. Nil means "leave as is".
type LinkPatch struct {
	Title     *string `json:"title,omitempty"`
	URL       *string `json:"url,omitempty"`
	IsEnabled *bool   `json:"isEnabled,omitempty"`
	Order     *int    `json:"order,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p LinkPatch) Empty() bool {
	return p.Title == nil && p.URL == nil && p.IsEnabled == nil && p.Order == nil
}
