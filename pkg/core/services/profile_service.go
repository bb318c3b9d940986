package services

import (
	"context"

	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/ports"
)

type ProfileService struct {
	users ports.UserRepository
	links ports.LinkRepository
}

func NewProfileService(users ports.UserRepository, links ports.LinkRepository) *ProfileService {
	return &ProfileService{users: users, links: links}
}

// Assemble builds the public view of username. Only enabled links are
// shown; the first one by order is featured.
func (s *ProfileService) Assemble(ctx context.Context, username string) (*domain.Profile, error) {
	username = domain.NormalizeUsername(username)
	user, err := retryRead(ctx, func() (*domain.User, error) {
		return s.users.GetUserByName(ctx, username)
	})
	if err != nil {
		return nil, err
	}

	all, err := retryRead(ctx, func() ([]domain.Link, error) {
		return s.links.ListLinksByUser(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	enabled := make([]domain.Link, 0, len(all))
	for _, l := range all {
		if l.IsEnabled {
			enabled = append(enabled, l)
		}
	}

	p := &domain.Profile{User: user, Links: enabled, Standard: []domain.Link{}}
	if len(enabled) > 0 {
		p.Featured = &enabled[0]
		p.Standard = enabled[1:]
	}
	return p, nil
}

// EnabledLink returns a link only if it is enabled and owned by username
func (s *ProfileService) EnabledLink(ctx context.Context, username, linkID string) (*domain.Link, error) {
	user, err := s.users.GetUserByName(ctx, domain.NormalizeUsername(username))
	if err != nil {
		return nil, err
	}
	link, err := s.links.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.UserID != user.ID || !link.IsEnabled {
		return nil, domain.ErrNotFound
	}
	return link, nil
}

var _ ports.ProfileService = (*ProfileService)(nil)
