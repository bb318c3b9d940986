package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
)

const (
	createLinkRetries = 5
	linkColumns       = `id, user_id, title, url, position, is_enabled, clicks, created_at, updated_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (domain.Link, error) {
	var l domain.Link
	err := row.Scan(&l.ID, &l.UserID, &l.Title, &l.URL, &l.Order, &l.IsEnabled, &l.Clicks, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// CreateLink appends the link after the owner's current last one. A
// concurrent append for the same owner trips the (user_id, position)
// unique index; the loser recomputes and retries.
func (s *Store) CreateLink(ctx context.Context, link *domain.Link) error {
	var err error
	for attempt := 0; attempt < createLinkRetries; attempt++ {
		err = s.withinSerializableTx(ctx, func(ctx context.Context) error {
			var next int
			if err := s.queryRow(ctx,
				`SELECT COALESCE(MAX(position), -1) + 1 FROM links WHERE user_id = ?`, link.UserID,
			).Scan(&next); err != nil {
				return err
			}

			_, err := s.exec(ctx,
				`INSERT INTO links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				link.ID, link.UserID, link.Title, link.URL, next, link.IsEnabled, link.Clicks, link.CreatedAt, link.UpdatedAt,
			)
			if err != nil {
				return err
			}
			link.Order = next
			return nil
		})
		if err == nil || !(isUniqueViolation(err) || isTransient(err)) {
			break
		}
	}
	return wrapErr("create link", err)
}

func (s *Store) GetLink(ctx context.Context, id string) (*domain.Link, error) {
	l, err := scanLink(s.queryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get link", err)
	}
	return &l, nil
}

// ListLinksByUser returns the owner's links ascending by order, id breaking ties
func (s *Store) ListLinksByUser(ctx context.Context, userID string) ([]domain.Link, error) {
	rows, err := s.query(ctx,
		`SELECT `+linkColumns+` FROM links WHERE user_id = ? ORDER BY position ASC, id ASC`, userID)
	if err != nil {
		return nil, wrapErr("list links", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, wrapErr("scan link", err)
		}
		links = append(links, l)
	}
	return links, wrapErr("list links", rows.Err())
}

// UpdateLink writes only the fields set in patch and returns the stored
// row. The owner check is in the WHERE clause; an order already held by a
// sibling is rejected.
func (s *Store) UpdateLink(ctx context.Context, userID, id string, patch domain.LinkPatch, at time.Time) (*domain.Link, error) {
	sets := []string{"updated_at = ?"}
	args := []any{at}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.URL != nil {
		sets = append(sets, "url = ?")
		args = append(args, *patch.URL)
	}
	if patch.IsEnabled != nil {
		sets = append(sets, "is_enabled = ?")
		args = append(args, *patch.IsEnabled)
	}
	if patch.Order != nil {
		sets = append(sets, "position = ?")
		args = append(args, *patch.Order)
	}
	args = append(args, id, userID)

	return s.updateAndGet(ctx, "update link", id,
		`UPDATE links SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
}

// ToggleLink flips is_enabled in SQL, so two toggles never read the same
// starting value.
func (s *Store) ToggleLink(ctx context.Context, userID, id string, at time.Time) (*domain.Link, error) {
	return s.updateAndGet(ctx, "toggle link", id,
		`UPDATE links SET is_enabled = NOT is_enabled, updated_at = ? WHERE id = ? AND user_id = ?`,
		at, id, userID)
}

func (s *Store) updateAndGet(ctx context.Context, op, id, query string, args ...any) (*domain.Link, error) {
	var link domain.Link
	err := s.withinTx(ctx, func(ctx context.Context) error {
		res, err := s.exec(ctx, query, args...)
		if isUniqueViolation(err) {
			return domain.NewValidationError("order", "order is already used by another link")
		}
		if err != nil {
			return err
		}
		if err := affectedOrNotFound(res); err != nil {
			return err
		}
		link, err = scanLink(s.queryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &link, nil
}

// ReorderLinks sets order = index for every id, inside one transaction.
// The id set must match the owner's links exactly.
func (s *Store) ReorderLinks(ctx context.Context, userID string, orderedIDs []string) error {
	err := s.withinSerializableTx(ctx, func(ctx context.Context) error {
		current, err := s.linkIDs(ctx, userID)
		if err != nil {
			return err
		}
		if !sameIDSet(current, orderedIDs) {
			return domain.NewValidationError("orderedLinkIds", "orderedLinkIds must list every one of your links exactly once")
		}

		// Park everything on negative positions first so the unique index
		// never sees two links on the same slot mid-way.
		if _, err := s.exec(ctx,
			`UPDATE links SET position = -position - 1 WHERE user_id = ?`, userID,
		); err != nil {
			return err
		}

		now := time.Now().UTC()
		for i, id := range orderedIDs {
			if _, err := s.exec(ctx,
				`UPDATE links SET position = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
				i, now, id, userID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapErr("reorder links", err)
}

func (s *Store) linkIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.query(ctx, `SELECT id FROM links WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func sameIDSet(current, proposed []string) bool {
	if len(current) != len(proposed) {
		return false
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = false
	}
	for _, id := range proposed {
		used, ok := seen[id]
		if !ok || used {
			return false
		}
		seen[id] = true
	}
	return true
}

func (s *Store) DeleteLink(ctx context.Context, id, userID string) error {
	res, err := s.exec(ctx, `DELETE FROM links WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return wrapErr("delete link", err)
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("rows affected", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
