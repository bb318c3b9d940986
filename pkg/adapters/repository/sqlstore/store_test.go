package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, name string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedLink(t *testing.T, s *Store, userID, title string) *domain.Link {
	t.Helper()
	now := time.Now().UTC()
	l := &domain.Link{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		URL:       "https://example.com/" + title,
		IsEnabled: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateLink(context.Background(), l))
	return l
}

func orderOf(t *testing.T, s *Store, userID string) []string {
	t.Helper()
	links, err := s.ListLinksByUser(context.Background(), userID)
	require.NoError(t, err)
	titles := make([]string, len(links))
	for i, l := range links {
		titles[i] = l.Title
	}
	return titles
}

func TestCreateLink_AppendsAfterMax(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice")

	a := seedLink(t, s, u.ID, "a")
	b := seedLink(t, s, u.ID, "b")
	c := seedLink(t, s, u.ID, "c")
	assert.Equal(t, []int{0, 1, 2}, []int{a.Order, b.Order, c.Order})

	// Deleting leaves a gap; the next link still goes after the max
	require.NoError(t, s.DeleteLink(ctx, b.ID, u.ID))
	d := seedLink(t, s, u.ID, "d")
	assert.Equal(t, 3, d.Order)
	assert.Equal(t, []string{"a", "c", "d"}, orderOf(t, s, u.ID))

	// Other users start from zero
	other := seedUser(t, s, "bob")
	e := seedLink(t, s, other.ID, "e")
	assert.Equal(t, 0, e.Order)
}

func TestCreateLink_ConcurrentAppendsGetDistinctOrders(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "alice")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			now := time.Now().UTC()
			errs <- s.CreateLink(context.Background(), &domain.Link{
				ID: uuid.NewString(), UserID: u.ID, Title: fmt.Sprint(i), URL: "https://x.test",
				IsEnabled: true, CreatedAt: now, UpdatedAt: now,
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	links, err := s.ListLinksByUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, links, n)
	for i, l := range links {
		assert.Equal(t, i, l.Order)
	}
}

func TestUpdateLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	a := seedLink(t, s, alice.ID, "a")
	b := seedLink(t, s, alice.ID, "b")

	title := "renamed"
	enabled := false
	got, err := s.UpdateLink(ctx, alice.ID, a.ID, domain.LinkPatch{Title: &title, IsEnabled: &enabled}, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.False(t, got.IsEnabled)
	assert.Equal(t, a.URL, got.URL)

	t.Run("foreign owner looks missing", func(t *testing.T) {
		pwned := "pwned"
		_, err := s.UpdateLink(ctx, bob.ID, a.ID, domain.LinkPatch{Title: &pwned}, time.Now().UTC())
		assert.ErrorIs(t, err, domain.ErrNotFound)

		got, err := s.GetLink(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Title)
	})

	t.Run("order collision rejected", func(t *testing.T) {
		order := b.Order
		_, err := s.UpdateLink(ctx, alice.ID, a.ID, domain.LinkPatch{Order: &order}, time.Now().UTC())
		assert.True(t, domain.IsValidation(err), "got %v", err)
	})

	t.Run("position untouched unless patched", func(t *testing.T) {
		require.NoError(t, s.ReorderLinks(ctx, alice.ID, []string{b.ID, a.ID}))

		title := "again"
		got, err := s.UpdateLink(ctx, alice.ID, a.ID, domain.LinkPatch{Title: &title}, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, 1, got.Order)
		assert.Equal(t, []string{"b", "again"}, orderOf(t, s, alice.ID))
	})
}

func TestToggleLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	a := seedLink(t, s, alice.ID, "a")

	got, err := s.ToggleLink(ctx, alice.ID, a.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, got.IsEnabled)
	assert.Equal(t, a.Order, got.Order)

	got, err = s.ToggleLink(ctx, alice.ID, a.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, got.IsEnabled)

	_, err = s.ToggleLink(ctx, bob.ID, a.ID, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTxOptions(t *testing.T) {
	pg := &Store{dialect: postgresDialect}
	assert.Nil(t, pg.txOptions(false), "click increments run at the default level")
	require.NotNil(t, pg.txOptions(true))
	assert.Equal(t, sql.LevelSerializable, pg.txOptions(true).Isolation)

	lite := &Store{dialect: sqliteDialect}
	assert.Nil(t, lite.txOptions(true))
	assert.Nil(t, lite.txOptions(false))
}

func TestReorderLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	a := seedLink(t, s, alice.ID, "a")
	b := seedLink(t, s, alice.ID, "b")
	c := seedLink(t, s, alice.ID, "c")
	foreign := seedLink(t, s, bob.ID, "x")

	ids := []string{c.ID, a.ID, b.ID}
	require.NoError(t, s.ReorderLinks(ctx, alice.ID, ids))
	assert.Equal(t, []string{"c", "a", "b"}, orderOf(t, s, alice.ID))

	// Same input twice, same result
	require.NoError(t, s.ReorderLinks(ctx, alice.ID, ids))
	assert.Equal(t, []string{"c", "a", "b"}, orderOf(t, s, alice.ID))

	links, err := s.ListLinksByUser(ctx, alice.ID)
	require.NoError(t, err)
	for i, l := range links {
		assert.Equal(t, i, l.Order)
	}

	bad := map[string][]string{
		"missing one":  {c.ID, a.ID},
		"extra one":    {c.ID, a.ID, b.ID, foreign.ID},
		"foreign id":   {c.ID, a.ID, foreign.ID},
		"duplicate id": {c.ID, c.ID, a.ID},
		"unknown id":   {c.ID, a.ID, uuid.NewString()},
	}
	for name, ids := range bad {
		t.Run(name, func(t *testing.T) {
			err := s.ReorderLinks(ctx, alice.ID, ids)
			assert.True(t, domain.IsValidation(err), "got %v", err)
			assert.Equal(t, []string{"c", "a", "b"}, orderOf(t, s, alice.ID))
		})
	}

	assert.Equal(t, []string{"x"}, orderOf(t, s, bob.ID))
}

func TestDeleteLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	a := seedLink(t, s, alice.ID, "a")
	b := seedLink(t, s, alice.ID, "b")
	c := seedLink(t, s, alice.ID, "c")

	assert.ErrorIs(t, s.DeleteLink(ctx, a.ID, bob.ID), domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteLink(ctx, uuid.NewString(), alice.ID), domain.ErrNotFound)

	require.NoError(t, s.IncrementClicks(ctx, &domain.Visit{LinkID: b.ID, CreatedAt: time.Now()}))
	require.NoError(t, s.DeleteLink(ctx, b.ID, alice.ID))

	_, err := s.GetLink(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// No renumbering
	links, err := s.ListLinksByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, a.Order, links[0].Order)
	assert.Equal(t, c.Order, links[1].Order)
}

func TestIncrementClicks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice")
	l := seedLink(t, s, u.ID, "a")

	t.Run("unknown id is a silent no-op", func(t *testing.T) {
		require.NoError(t, s.IncrementClicks(ctx, &domain.Visit{LinkID: "nonexistent", CreatedAt: time.Now()}))
		got, err := s.GetLink(ctx, l.ID)
		require.NoError(t, err)
		assert.Zero(t, got.Clicks)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ref := ""
				if i%2 == 0 {
					ref = "https://twitter.com"
				}
				assert.NoError(t, s.IncrementClicks(ctx, &domain.Visit{
					LinkID: l.ID, Referer: ref, CreatedAt: time.Now(),
				}))
			}(i)
		}
		wg.Wait()

		got, err := s.GetLink(ctx, l.ID)
		require.NoError(t, err)
		assert.EqualValues(t, n, got.Clicks)

		stats, err := s.GetLinkStats(ctx, l.ID)
		require.NoError(t, err)
		assert.EqualValues(t, n, stats.TotalClicks)
		assert.EqualValues(t, 25, stats.Referrers["https://twitter.com"])
		assert.EqualValues(t, 25, stats.Referrers["Direct"])
		require.Len(t, stats.DailyClicks, 1)
		assert.EqualValues(t, n, stats.DailyClicks[0].Count)
		assert.Equal(t, time.Now().UTC().Format("2006-01-02"), stats.DailyClicks[0].Date)
	})

	_, err := s.GetLinkStats(ctx, "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice")

	byName, err := s.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", byEmail.Name)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	_, err = s.GetUserByName(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dup := *u
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	assert.True(t, domain.IsConflict(s.CreateUser(ctx, &dup)))
}

func TestDeletingUserCascadesLinks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "alice")
	l := seedLink(t, s, u.ID, "a")

	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID)
	require.NoError(t, err)

	_, err = s.GetLink(ctx, l.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "sqlite", detectDialect("file:db.sqlite").driver)
	assert.Equal(t, "libsql", detectDialect("libsql://db.turso.io?authToken=x").driver)
	assert.Equal(t, "pgx", detectDialect("postgres://u:p@localhost/db").driver)

	pg := detectDialect("postgresql://localhost/db")
	assert.Equal(t,
		"UPDATE links SET position = $1 WHERE id = $2 AND user_id = $3",
		pg.rebind("UPDATE links SET position = ? WHERE id = ? AND user_id = ?"))
	assert.Equal(t, "SELECT ?", sqliteDialect.rebind("SELECT ?"))
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "file:db.sqlite?_pragma=foreign_keys(1)", withForeignKeys("file:db.sqlite"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)", withForeignKeys("file:x?mode=memory"))
	assert.Equal(t, "file:x?_pragma=foreign_keys(0)", withForeignKeys("file:x?_pragma=foreign_keys(0)"))
}
