package sqlstore

import (
	"context"
	"database/sql"

	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
)

const incrementRetries = 3

// IncrementClicks bumps the counter in SQL and logs the visit, atomically.
// An unknown link id changes nothing and is not an error. A transient
// failure rolls back both writes, so the whole transaction is retried.
func (s *Store) IncrementClicks(ctx context.Context, visit *domain.Visit) error {
	_, joined := ctx.Value(keyTxValue).(*sql.Tx)
	var err error
	for attempt := 0; attempt < incrementRetries; attempt++ {
		err = s.incrementClicks(ctx, visit)
		if err == nil || joined || !isTransient(err) || ctx.Err() != nil {
			break
		}
	}
	return wrapErr("increment clicks", err)
}

func (s *Store) incrementClicks(ctx context.Context, visit *domain.Visit) error {
	return s.withinTx(ctx, func(ctx context.Context) error {
		res, err := s.exec(ctx, `UPDATE links SET clicks = clicks + 1 WHERE id = ?`, visit.LinkID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		_, err = s.exec(ctx,
			`INSERT INTO visits (link_id, referer, user_agent, ip_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
			visit.LinkID, visit.Referer, visit.UserAgent, visit.IPHash, visit.CreatedAt.UTC(),
		)
		return err
	})
}

func (s *Store) GetLinkStats(ctx context.Context, linkID string) (*domain.LinkStats, error) {
	stats := &domain.LinkStats{
		LinkID:      linkID,
		Referrers:   make(map[string]int64),
		DailyClicks: []domain.DailyClick{},
	}

	err := s.queryRow(ctx, `SELECT clicks FROM links WHERE id = ?`, linkID).Scan(&stats.TotalClicks)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapErr("link stats", err)
	}

	// Referrers
	rows, err := s.query(ctx,
		`SELECT referer, COUNT(*) AS c FROM visits WHERE link_id = ? GROUP BY referer ORDER BY c DESC LIMIT 10`, linkID)
	if err != nil {
		return nil, wrapErr("link referrers", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref string
		var count int64
		if err := rows.Scan(&ref, &count); err != nil {
			return nil, wrapErr("scan referrer", err)
		}
		if ref == "" {
			ref = "Direct"
		}
		stats.Referrers[ref] += count
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("link referrers", err)
	}
	rows.Close()

	// Daily clicks, most recent 30 days with activity
	day := s.dialect.dayExpr
	rows2, err := s.query(ctx,
		`SELECT `+day+` AS day, COUNT(*) FROM visits WHERE link_id = ? GROUP BY `+day+` ORDER BY day DESC LIMIT 30`, linkID)
	if err != nil {
		return nil, wrapErr("link daily clicks", err)
	}
	defer rows2.Close()
	for rows2.Next() {
		var dc domain.DailyClick
		if err := rows2.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, wrapErr("scan daily click", err)
		}
		stats.DailyClicks = append(stats.DailyClicks, dc)
	}

	return stats, wrapErr("link daily clicks", rows2.Err())
}
