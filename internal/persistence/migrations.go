package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS authorized_users(
		user_id INTEGER PRIMARY KEY,
		username TEXT,
		added_date TEXT
	);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS authorized_users(
		user_id BIGINT PRIMARY KEY,
		username TEXT,
		added_date TEXT
	);`,
}

// MigrateSQLite creates the allow-list table when missing.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// RunMigrations creates the allow-list table in Postgres when missing.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	for i, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(postgresSchema)))
	return nil
}
