package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"fitcraft/internal/config"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// MaintenanceDSN builds a postgres:// URL for dbName using the configured credentials.
func MaintenanceDSN(cfg *config.Config, dbName string) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     cfg.DBHost + ":" + cfg.DBPort,
		Path:     "/" + dbName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// CreateDatabaseStatement returns the CREATE DATABASE statement for name with the identifier quoted.
func CreateDatabaseStatement(name string) string {
	return "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
}

// CreateDatabase creates the configured database through the "postgres" maintenance
// database. It reports false when the database already exists.
func CreateDatabase(ctx context.Context, cfg *config.Config) (bool, error) {
	if driverName(cfg) != "postgres" {
		return false, fmt.Errorf("create-db requires DB_DRIVER=postgres, got %q", cfg.DBDriver)
	}

	sqlDB, err := sql.Open("pgx", MaintenanceDSN(cfg, "postgres"))
	if err != nil {
		return false, fmt.Errorf("open maintenance db: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	var exists bool
	if err := sqlDB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.DBName,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := sqlDB.ExecContext(ctx, CreateDatabaseStatement(cfg.DBName)); err != nil {
		return false, fmt.Errorf("create database: %w", err)
	}
	return true, nil
}
