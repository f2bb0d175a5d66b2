package gormstore

import "fmt"

// Backend selects the underlying database engine.
type Backend string

const (
	// BackendSQLite is the default, single-node backend.
	BackendSQLite Backend = "sqlite"
	// BackendPostgres supports multi-instance deployments.
	BackendPostgres Backend = "postgres"
)

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path to the database file. Use ":memory:" for tests.
	Path string
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the libpq-style connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// Config selects and configures the metadata store backend.
type Config struct {
	Backend  Backend
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// applyDefaults fills in unset fields with sane defaults.
func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.Backend == BackendPostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 25
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 5
		}
	}
}

// validate checks the configuration is complete enough to open a connection.
func (c *Config) validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case BackendPostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported metadata store backend: %s", c.Backend)
	}
	return nil
}
