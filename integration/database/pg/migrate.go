package pg

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// gooseMu guards goose's package-level dialect, table and filesystem settings.
var gooseMu sync.Mutex

// Migrate applies the SQL migrations found in cfg.MigrationsPath.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config) error {
	if cfg.MigrationsPath == "" {
		return ErrMigrationPathNotProvided
	}
	if info, err := os.Stat(cfg.MigrationsPath); err != nil || !info.IsDir() {
		return ErrMigrationsDirNotFound
	}
	return migrate(ctx, pool, nil, cfg.MigrationsPath, cfg.MigrationsTable)
}

// MigrateSessions creates the session table used by SessionStore. It keeps its
// own version table so it can run next to application migrations.
func MigrateSessions(ctx context.Context, pool *pgxpool.Pool) error {
	return migrate(ctx, pool, migrationsFS, "migrations", "dispatch_schema_migrations")
}

func migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, dir, table string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	// goose works on database/sql; the wrapper borrows connections from the pool.
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if table != "" {
		goose.SetTableName(table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}
