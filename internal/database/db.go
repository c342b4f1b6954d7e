package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"

	"github.com/thakuramit5464/Personal-Dashboard/internal/config"
)

// Pool defaults used when DatabaseConfig leaves a setting at zero.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultConnMaxIdleTime = 1 * time.Minute
	DefaultPingTimeout     = 5 * time.Second
)

// DB is the dashboard's Postgres pool. Datastores take the embedded *sql.DB.
type DB struct {
	*sql.DB
}

// Open connects through the pgx stdlib driver and pings before returning.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configurePool(sqlDB, cfg)

	db := &DB{DB: sqlDB}
	if err := db.Health(context.Background()); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close database after ping failure")
		}
		return nil, err
	}
	return db, nil
}

func configurePool(db *sql.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, DefaultMaxOpenConns))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, DefaultMaxIdleConns))
	db.SetConnMaxLifetime(orDefault(time.Duration(cfg.ConnMaxLifetime)*time.Second, DefaultConnMaxLifetime))
	db.SetConnMaxIdleTime(DefaultConnMaxIdleTime)
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// Health pings the pool, bounded by DefaultPingTimeout unless ctx already
// carries a deadline.
func (db *DB) Health(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
