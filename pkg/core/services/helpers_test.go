package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/sololink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.New(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(t *testing.T, s *sqlstore.Store, name string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{ID: uuid.NewString(), Name: name, Email: name + "@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}
