package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/ports"
)

const maxTitleLength = 200

type LinkService struct {
	repo ports.LinkRepository
	now  func() time.Time
}

func NewLinkService(repo ports.LinkRepository) *LinkService {
	return &LinkService{repo: repo, now: time.Now}
}

func (s *LinkService) List(ctx context.Context, userID string) ([]domain.Link, error) {
	return retryRead(ctx, func() ([]domain.Link, error) {
		return s.repo.ListLinksByUser(ctx, userID)
	})
}

// Create appends a new enabled link at the end of the owner's list
func (s *LinkService) Create(ctx context.Context, userID, title, rawURL string) (*domain.Link, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	rawURL, err = validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	link := &domain.Link{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		URL:       rawURL,
		IsEnabled: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Update applies the non-nil fields of patch. Fields left nil are not
// written, so a concurrent reorder is never undone by a stale read.
func (s *LinkService) Update(ctx context.Context, userID, linkID string, patch domain.LinkPatch) (*domain.Link, error) {
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if patch.URL != nil {
		rawURL, err := validateURL(*patch.URL)
		if err != nil {
			return nil, err
		}
		patch.URL = &rawURL
	}
	if patch.Order != nil && *patch.Order < 0 {
		return nil, domain.NewValidationError("order", "Order must not be negative")
	}
	if patch.Empty() {
		return s.owned(ctx, userID, linkID)
	}
	return s.repo.UpdateLink(ctx, userID, linkID, patch, s.now().UTC())
}

// Toggle flips the enabled flag in place
func (s *LinkService) Toggle(ctx context.Context, userID, linkID string) (*domain.Link, error) {
	return s.repo.ToggleLink(ctx, userID, linkID, s.now().UTC())
}

// Reorder applies the full ordering and returns the list as stored
func (s *LinkService) Reorder(ctx context.Context, userID string, orderedIDs []string) ([]domain.Link, error) {
	if err := s.repo.ReorderLinks(ctx, userID, orderedIDs); err != nil {
		return nil, err
	}
	return s.List(ctx, userID)
}

func (s *LinkService) Delete(ctx context.Context, userID, linkID string) error {
	return s.repo.DeleteLink(ctx, linkID, userID)
}

// Stats folds the owner's links into dashboard totals
func (s *LinkService) Stats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	links, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return foldStats(links), nil
}

func foldStats(links []domain.Link) *domain.DashboardStats {
	stats := &domain.DashboardStats{TotalLinks: len(links)}
	for i := range links {
		l := &links[i]
		if l.IsEnabled {
			stats.EnabledLinks++
		}
		stats.TotalClicks += l.Clicks
		// Links arrive in order, so ties keep the earlier one
		if stats.TopLink == nil || l.Clicks > stats.TopLink.Clicks {
			stats.TopLink = l
		}
	}
	if stats.TotalLinks > 0 {
		stats.AverageClicks = float64(stats.TotalClicks) / float64(stats.TotalLinks)
	}
	return stats
}

func (s *LinkService) LinkStats(ctx context.Context, userID, linkID string) (*domain.LinkStats, error) {
	if _, err := s.owned(ctx, userID, linkID); err != nil {
		return nil, err
	}
	return retryRead(ctx, func() (*domain.LinkStats, error) {
		return s.repo.GetLinkStats(ctx, linkID)
	})
}

// owned loads a link and hides links that belong to someone else
func (s *LinkService) owned(ctx context.Context, userID, linkID string) (*domain.Link, error) {
	link, err := retryRead(ctx, func() (*domain.Link, error) {
		return s.repo.GetLink(ctx, linkID)
	})
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return link, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.NewValidationError("title", "Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", domain.NewValidationError("title", "Title must be at most 200 characters")
	}
	return title, nil
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.NewValidationError("url", "URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", domain.NewValidationError("url", "URL must be an absolute http or https address")
	}
	return raw, nil
}

// retryRead runs an idempotent read and retries it once after a transient
// storage failure.
func retryRead[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil || !errors.Is(err, domain.ErrTransientStorage) || ctx.Err() != nil {
		return v, err
	}
	return fn()
}

var _ ports.LinkService = (*LinkService)(nil)
