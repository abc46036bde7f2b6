// Package database opens the SQL databases behind the repo tiers and applies
// their embedded migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/pkordes/tripmate/migrations"
)

const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// OpenSQLite opens the per-device database at path and runs its migrations.
// path may be ":memory:". The pool is limited to one connection so an
// in-memory database is shared by every caller.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run sqlite migrations: %w", err)
	}

	return db, nil
}

// OpenPostgres opens a pgx pool for the durable shared tier and checks connectivity.
func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Direction selects which way MigratePostgres moves the schema.
type Direction int

const (
	Up   Direction = iota // apply every pending migration
	Down                  // roll back the most recent migration
)

// MigratePostgres applies or rolls back the durable tier's schema.
// It returns the versions that were changed, in the order goose ran them.
func MigratePostgres(ctx context.Context, url string, dir Direction) ([]int64, error) {
	// goose needs database/sql, not a pgx pool.
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Postgres())
	if err != nil {
		return nil, fmt.Errorf("create postgres migration provider: %w", err)
	}

	var results []*goose.MigrationResult
	switch dir {
	case Up:
		results, err = provider.Up(ctx)
	case Down:
		var res *goose.MigrationResult
		res, err = provider.Down(ctx)
		if res != nil {
			results = append(results, res)
		}
	default:
		return nil, fmt.Errorf("unknown migration direction %d", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	versions := make([]int64, 0, len(results))
	for _, r := range results {
		versions = append(versions, r.Source.Version)
	}
	return versions, nil
}
