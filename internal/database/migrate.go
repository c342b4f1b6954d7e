package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrUnknownMigration is returned by Migrator.Run for an unrecognised command.
var ErrUnknownMigration = errors.New("unknown migration command")

// Migration commands accepted by Migrator.Run.
const (
	MigrateUp    = "up"
	MigrateDown  = "down"
	MigrateReset = "reset"
)

// Migrator applies the schema files in a directory to the dashboard database.
// Each call opens and closes its own migrate instance over the shared pool.
type Migrator struct {
	db   *DB
	path string
}

// Migrator returns a Migrator reading schema files from path.
func (db *DB) Migrator(path string) *Migrator {
	return &Migrator{db: db, path: path}
}

// Run executes one of MigrateUp, MigrateDown or MigrateReset.
// Having nothing to apply is not an error.
func (m *Migrator) Run(ctx context.Context, command string) error {
	var step func(*migrate.Migrate) error
	switch command {
	case MigrateUp:
		step = (*migrate.Migrate).Up
	case MigrateDown:
		step = func(mg *migrate.Migrate) error { return mg.Steps(-1) }
	case MigrateReset:
		step = (*migrate.Migrate).Down
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMigration, command)
	}

	err := m.with(ctx, step)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}

// Version reports the applied schema version and whether the last run left
// it dirty. A database with no applied migrations reports version 0.
func (m *Migrator) Version(ctx context.Context) (version uint, dirty bool, err error) {
	err = m.with(ctx, func(mg *migrate.Migrate) error {
		version, dirty, err = mg.Version()
		return err
	})
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}

// with runs fn on a migrate instance bound to a single pooled connection.
// WithInstance would hand the whole pool to the driver and Close it afterwards.
func (m *Migrator) with(ctx context.Context, fn func(*migrate.Migrate) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migration driver: %w", err)
	}

	mg, err := migrate.NewWithDatabaseInstance("file://"+m.path, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migration source %s: %w", m.path, err)
	}
	defer func() { _, _ = mg.Close() }()

	return fn(mg)
}

// ResolveMigrationsPath picks the schema directory. MIGRATIONS_PATH wins,
// then ./migrations, then migrations beside the binary, then /app/migrations.
func ResolveMigrationsPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	candidates := []string{"migrations"}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "migrations"))
	}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(dir); err == nil {
				return abs
			}
			return dir
		}
	}

	return "/app/migrations"
}
