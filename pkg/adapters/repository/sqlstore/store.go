package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"                    // Postgres driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/sololink/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

const (
	storageMaxOpenConnections     = 5
	storageMaxIdleConnections     = 2
	storageConnectionsMaxIdleTime = 2 * time.Minute
	storageConnectionsLifetime    = 30 * time.Minute
	storagePingTimeout            = 5 * time.Second
)

// Store is the SQL backed link store. One implementation serves local
// SQLite files, Turso and Postgres; the dialect only changes placeholders,
// schema and a couple of expressions.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// New opens dbURL, picking the driver from its scheme, and runs migrations
func New(ctx context.Context, dbURL string) (*Store, error) {
	d := detectDialect(dbURL)

	dsn := dbURL
	if d.driver == "sqlite" {
		dsn = withForeignKeys(dbURL)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d.driver == "sqlite" {
		// A single connection keeps writers from tripping over SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(storageMaxOpenConnections)
		db.SetMaxIdleConns(storageMaxIdleConnections)
		db.SetConnMaxIdleTime(storageConnectionsMaxIdleTime)
		db.SetConnMaxLifetime(storageConnectionsLifetime)
	}

	ctxPing, cancel := context.WithTimeout(ctx, storagePingTimeout)
	defer cancel()

	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping is used by the health check
func (s *Store) Ping(ctx context.Context) error {
	return wrapErr("ping", s.db.PingContext(ctx))
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Ensure interface compliance
var (
	_ ports.LinkRepository = (*Store)(nil)
	_ ports.UserRepository = (*Store)(nil)
)
