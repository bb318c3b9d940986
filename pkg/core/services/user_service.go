package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/ports"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxNameAttempts   = 20
)

type UserService struct {
	repo ports.UserRepository
	now  func() time.Time
}

func NewUserService(repo ports.UserRepository) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

// Signup registers an email/password account
func (s *UserService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = domain.NormalizeUsername(username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords look the same.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() {
		return nil, domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return retryRead(ctx, func() (*domain.User, error) {
		return s.repo.GetUserByID(ctx, id)
	})
}

func (s *UserService) GetByName(ctx context.Context, name string) (*domain.User, error) {
	return retryRead(ctx, func() (*domain.User, error) {
		return s.repo.GetUserByName(ctx, domain.NormalizeUsername(name))
	})
}

// FindOrCreateOAuth returns the account for a Google sign-in, creating one
// with a username derived from the email when none exists yet.
func (s *UserService) FindOrCreateOAuth(ctx context.Context, email, displayName, image string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	base := usernameFromEmail(email)
	now := s.now().UTC()
	for i := 0; i < maxNameAttempts; i++ {
		name := base
		if i > 0 {
			name = candidateName(base, i)
		}
		user := &domain.User{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			Image:     image,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := s.repo.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !domain.IsConflict(err) {
			return nil, err
		}
		// The email may have been taken by a concurrent sign-in
		if u, err := s.repo.GetUserByEmail(ctx, email); err == nil {
			return u, nil
		}
	}
	return nil, &domain.ConflictError{Field: "username", Message: "Could not allocate a username for " + displayName}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.NewValidationError("email", "Invalid email address")
	}
	return email, nil
}

// validatePassword counts characters, not bytes, and wants an ASCII digit
func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return domain.NewValidationError("password", "Password must be at least 8 characters")
	}
	if !strings.ContainsAny(password, "0123456789") {
		return domain.NewValidationError("password", "Password must contain at least one number")
	}
	return nil
}

// usernameFromEmail keeps the allowed characters of the local part and
// pads or trims it into a valid, non-reserved name.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, c := range local {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_':
			b.WriteRune(c)
		case c == '.' || c == '+':
			b.WriteRune('-')
		}
	}
	name := b.String()
	for len(name) < domain.MinUsernameLength {
		name += "0"
	}
	if len(name) > domain.MaxUsernameLength-8 {
		name = name[:domain.MaxUsernameLength-8]
	}
	if domain.ValidateUsername(name) != nil {
		name = "user-" + name
	}
	return name
}

func candidateName(base string, attempt int) string {
	return fmt.Sprintf("%s-%d", base, attempt)
}

var _ ports.UserService = (*UserService)(nil)
