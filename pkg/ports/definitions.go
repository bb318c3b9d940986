package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
)

// LinkRepository defines storage operations for links.
// Lookups that miss return domain.ErrNotFound; ownership is part of every
// mutating query so a foreign link looks exactly like a missing one.
type LinkRepository interface {
	CreateLink(ctx context.Context, link *domain.Link) error // Appends: order = max + 1
	GetLink(ctx context.Context, id string) (*domain.Link, error)
	ListLinksByUser(ctx context.Context, userID string) ([]domain.Link, error)
	UpdateLink(ctx context.Context, userID, id string, patch domain.LinkPatch, at time.Time) (*domain.Link, error) // Writes only the patched fields
	ToggleLink(ctx context.Context, userID, id string, at time.Time) (*domain.Link, error)
	ReorderLinks(ctx context.Context, userID string, orderedIDs []string) error // All or nothing
	DeleteLink(ctx context.Context, id, userID string) error                    // Hard delete, no renumbering

	// Stats
	IncrementClicks(ctx context.Context, visit *domain.Visit) error // Unknown link is a silent no-op
	GetLinkStats(ctx context.Context, linkID string) (*domain.LinkStats, error)
}

// UserRepository defines storage operations for accounts
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByName(ctx context.Context, name string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// LinkService is the owner-facing dashboard surface. Every call carries
// the acting user's id.
type LinkService interface {
	List(ctx context.Context, userID string) ([]domain.Link, error)
	Create(ctx context.Context, userID, title, url string) (*domain.Link, error)
	Update(ctx context.Context, userID, linkID string, patch domain.LinkPatch) (*domain.Link, error)
	Toggle(ctx context.Context, userID, linkID string) (*domain.Link, error)
	Reorder(ctx context.Context, userID string, orderedIDs []string) ([]domain.Link, error)
	Delete(ctx context.Context, userID, linkID string) error

	// Stats
	Stats(ctx context.Context, userID string) (*domain.DashboardStats, error)
	LinkStats(ctx context.Context, userID, linkID string) (*domain.LinkStats, error)
}

// ProfileService assembles public profiles
type ProfileService interface {
	Assemble(ctx context.Context, username string) (*domain.Profile, error)
	EnabledLink(ctx context.Context, username, linkID string) (*domain.Link, error)
}

// ClickRecorder accepts click events without blocking the caller.
// Record reports whether the event was queued.
type ClickRecorder interface {
	Record(event domain.ClickEvent) bool
}

// UserService handles signup and credential checks
type UserService interface {
	Signup(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByName(ctx context.Context, name string) (*domain.User, error)
	FindOrCreateOAuth(ctx context.Context, email, displayName, image string) (*domain.User, error)
}

