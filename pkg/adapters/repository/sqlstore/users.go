package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
)

const userColumns = `id, name, email, image, password_hash, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Image, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return &domain.ConflictError{Field: "username", Message: "Username or email already exists"}
	}
	return wrapErr("create user", err)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	return s.getUser(ctx, "get user by name", `SELECT `+userColumns+` FROM users WHERE name = ?`, name)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, "get user by email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (s *Store) getUser(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	u, err := scanUser(s.queryRow(ctx, query, arg))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
