package storage

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 5 * time.Second

// MigrationPool is the minimal interface required to run migrations.
// *pgxpool.Pool satisfies this interface.
type MigrationPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Connect opens the pool backing the city catalog and preference tables and
// waits up to five seconds for the server to answer a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = "nomad-planner"
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pgxpool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s: %w", cfg.ConnConfig.Database, err)
	}

	return pool, nil
}

// Migration is one schema step, read from a file named <version>_<name>.sql.
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// String identifies the migration in errors and logs, e.g. "001 (create cities)".
func (m Migration) String() string {
	return m.Version + " (" + m.Name + ")"
}

// LoadMigrations reads every .sql file at the root of fsys, ordered by
// version. File names must carry a unique version prefix.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		file := e.Name()
		if e.IsDir() || !strings.HasSuffix(file, ".sql") {
			continue
		}

		version, name, ok := strings.Cut(strings.TrimSuffix(file, ".sql"), "_")
		if !ok || version == "" || name == "" {
			return nil, fmt.Errorf("migration %s: name must be <version>_<name>.sql", file)
		}
		sql, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", file, err)
		}
		out = append(out, Migration{
			Version: version,
			Name:    strings.ReplaceAll(name, "_", " "),
			SQL:     string(sql),
		})
	}

	slices.SortFunc(out, func(a, b Migration) int { return strings.Compare(a.Version, b.Version) })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("migrations %s and %s share a version", out[i-1], out[i])
		}
	}
	return out, nil
}

// RunMigrations applies the migrations in fsys in version order, each in its
// own transaction.
func RunMigrations(ctx context.Context, pool MigrationPool, fsys fs.FS) error {
	ms, err := LoadMigrations(fsys)
	if err != nil {
		return err
	}

	for _, m := range ms {
		if err := runInTx(ctx, pool, m.SQL); err != nil {
			return fmt.Errorf("migration %s: %w", m, err)
		}
	}
	return nil
}

// runInTx runs the given SQL in a transaction, rolling back on failure.
func runInTx(ctx context.Context, pool MigrationPool, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("executing SQL: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
