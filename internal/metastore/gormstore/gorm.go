// Package gormstore implements metastore.Store on top of GORM, supporting
// both an embedded SQLite backend (default, AutoMigrate) and a PostgreSQL
// backend (golang-migrate schema, for multi-instance deployments).
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scotow/dropit/internal/metastore/migrations"
)

// GORMStore implements metastore.Store.
type GORMStore struct {
	db     *gorm.DB
	config *Config
}

// New opens the configured backend, migrates its schema and returns a
// ready-to-use store.
func New(config *Config) (*GORMStore, error) {
	if config == nil {
		config = &Config{}
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid metadata store configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Backend {
	case BackendSQLite:
		if dir := filepath.Dir(config.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		// WAL plus a 30 s busy timeout (spec §5). Within this process all
		// reads and writes share the single connection configured below.
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)"
		dialector = sqlite.Open(dsn)
	case BackendPostgres:
		if err := migratePostgres(config.Postgres.DSN()); err != nil {
			return nil, fmt.Errorf("migrate postgres schema: %w", err)
		}
		dialector = gormpostgres.Open(config.Postgres.DSN())
	default:
		return nil, fmt.Errorf("unsupported metadata store backend: %s", config.Backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying connection: %w", err)
	}
	switch config.Backend {
	case BackendSQLite:
		// A single writer connection avoids SQLITE_BUSY under WAL by
		// serializing all access through one connection (spec §5).
		sqlDB.SetMaxOpenConns(1)
	case BackendPostgres:
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if config.Backend == BackendSQLite {
		if err := db.AutoMigrate(&fileModel{}); err != nil {
			return nil, fmt.Errorf("auto-migrate schema: %w", err)
		}
	}

	return &GORMStore{db: db, config: config}, nil
}

// migratePostgres applies the embedded schema migrations against dsn.
func migratePostgres(dsn string) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	driver, err := postgres.WithInstance(conn, &postgres.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    "dropit",
	})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// DB exposes the underlying connection, for tests.
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func convertNotFoundError(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
