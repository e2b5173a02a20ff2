package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"hackmate/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"   // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Driver names registered by the imported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Connect opens the SQL store selected by cfg.StoreBackend.
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

		db, err := sqlx.Connect(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Printf("[Database] Connected: driver=%s host=%s db=%s", DriverPostgres, cfg.DBHost, cfg.DBName)
		return db, nil

	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)

	default:
		return nil, fmt.Errorf("store backend %q is not a SQL backend", cfg.StoreBackend)
	}
}

// OpenSQLite opens the embedded store at path (":memory:" for a throwaway
// database). A single connection is used so an in-memory database survives
// for the life of the pool and writers never contend for the file lock.
func OpenSQLite(path string) (*sqlx.DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	log.Printf("[Database] Connected: driver=%s path=%s", DriverSQLite, path)
	return db, nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tsType := "TIMESTAMP"
	if db.DriverName() == DriverPostgres {
		tsType = "TIMESTAMPTZ"
	}

	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, strings.ReplaceAll(stmt, "{{timestamp}}", tsType)); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}

	log.Printf("[Database] Migrate OK: driver=%s statements=%d", db.DriverName(), len(schema))
	return nil
}
