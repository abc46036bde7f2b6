// Package testutil provides shared helpers for integration tests.
//
// Postgres helpers read TEST_DATABASE_URL and skip the calling test when it is
// unset, so the shared tier is only exercised where a database is available.
// SQLite helpers never skip.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/tripmate/internal/database"
)

// PostgresURLEnv names the variable holding the integration database URL.
const PostgresURLEnv = "TEST_DATABASE_URL"

// PostgresURL returns the integration database URL, skipping t when unset.
func PostgresURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv(PostgresURLEnv)
	if url == "" {
		t.Skip(PostgresURLEnv + " not set; skipping Postgres integration test")
	}
	return url
}

// NewPool opens the shared-tier pool the way the server does, closed when t ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := database.OpenPostgres(context.Background(), PostgresURL(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction on a fresh pool and rolls it back when t ends,
// so each test sees the migrated schema with none of its neighbours' rows.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	tx, err := NewPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewSQLDB opens a database/sql handle on the integration database, for
// driving goose directly.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := openSQL(PostgresURL(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MigrateUp brings the database at url to the latest Postgres schema. It is
// meant for TestMain, where no *testing.T exists.
func MigrateUp(ctx context.Context, url string) error {
	if _, err := database.MigratePostgres(ctx, url, database.Up); err != nil {
		return fmt.Errorf("testutil.MigrateUp: %w", err)
	}
	return nil
}

// NewSQLiteDB opens a migrated in-memory SQLite database private to t.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("testutil.NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func openSQL(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}
