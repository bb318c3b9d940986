package sqlstore

import (
	"context"
	"database/sql"
)

type keyTxType int

const (
	keyTxValue keyTxType = iota
)

// querier is the subset of *sql.DB and *sql.Tx the queries need
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q returns the transaction carried by ctx, or the pool. Code running inside
// withinTx must always go through q: SQLite has a single connection and
// the transaction holds it.
func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(keyTxValue).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q(ctx).ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q(ctx).QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q(ctx).QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// withinTx runs fn in a transaction at the driver's default isolation,
// joining one already in ctx. Row-locked writes such as clicks = clicks + 1
// are safe there.
func (s *Store) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.runTx(ctx, s.txOptions(false), fn)
}

// withinSerializableTx is withinTx for read-then-write work whose reads
// must still hold at commit: the append position and the reorder id set.
func (s *Store) withinSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.runTx(ctx, s.txOptions(true), fn)
}

// txOptions returns nil unless the dialect needs an explicit level. SQLite
// transactions are serializable already.
func (s *Store) txOptions(serializable bool) *sql.TxOptions {
	if serializable && s.dialect.serializeTx {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

func (s *Store) runTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(keyTxValue).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return wrapErr("begin transaction", err)
	}

	ctx = context.WithValue(ctx, keyTxValue, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			_ = tx.Rollback()
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = wrapErr("commit transaction", commitErr)
		}
	}()

	err = fn(ctx)
	return
}
