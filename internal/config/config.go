// Package config loads and validates dropit's static configuration:
// thresholds, quotas, storage locations, origin mode and the database
// backend. There is one explicit Config record, no globals, loaded via
// spf13/viper from a YAML file plus DROPIT_* environment overrides and
// validated with go-playground/validator/v10 at startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/scotow/dropit/internal/expiration"
	"github.com/scotow/dropit/internal/metastore/gormstore"
)

// Config is the complete static configuration for a dropitd process.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Origin     OriginConfig     `mapstructure:"origin"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Thresholds []ThresholdEntry `mapstructure:"thresholds" validate:"required,min=1,dive"`
	Reaper     ReaperConfig     `mapstructure:"reaper"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address      string        `mapstructure:"address" validate:"required"`
	LinkBase     string        `mapstructure:"link_base" validate:"required,url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StorageConfig configures the blob directory.
type StorageConfig struct {
	Directory string `mapstructure:"directory" validate:"required"`
}

// DatabaseConfig configures the metadata store backend.
type DatabaseConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend  string         `mapstructure:"backend" validate:"required,oneof=sqlite postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SQLiteConfig configures the embedded single-writer backend.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig configures the pooled multi-instance backend.
type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// OriginConfig configures how the origin identity for quota keys is derived.
type OriginConfig struct {
	// Mode is "ip" or "username".
	Mode        string `mapstructure:"mode" validate:"required,oneof=ip username"`
	BehindProxy bool   `mapstructure:"behind_proxy"`
}

// QuotaConfig configures the OriginQuota and GlobalQuota predicates.
// Zero fields disable the corresponding predicate.
type QuotaConfig struct {
	OriginMaxSize  int64 `mapstructure:"origin_max_size"`
	OriginMaxCount int64 `mapstructure:"origin_max_count"`
	GlobalMaxSize  int64 `mapstructure:"global_max_size"`
}

// ThresholdEntry is the YAML-facing shape of an expiration.Threshold;
// AllowedSeconds is a pointer so "absent" and "zero" are distinguishable.
type ThresholdEntry struct {
	SizeMax        int64  `mapstructure:"size_max" validate:"required,gt=0"`
	DefaultSeconds int64  `mapstructure:"default_seconds" validate:"required,gt=0"`
	AllowedSeconds *int64 `mapstructure:"allowed_seconds"`
}

// ReaperConfig configures the background expiration sweep.
type ReaperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// AuthConfig configures the optional JWT bearer-token identity shim used
// when Origin.Mode is "username".
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret" validate:"required_if=Enabled true"`
	Issuer  string `mapstructure:"issuer"`
}

// LoggingConfig controls the ambient logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
	Output string `mapstructure:"output" validate:"required"`
}

// MetricsConfig configures the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from configPath (or the default search path
// when empty), env vars prefixed DROPIT_, applies defaults and
// validates. A non-nil error here is a fatal init error (spec §6 exit
// codes: bad thresholds, unreadable dirs, invalid CLI).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DROPIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dropit")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	applyDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Database.Backend == "" {
		cfg.Database.Backend = "sqlite"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "dropit.db"
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxOpenConns == 0 {
		cfg.Database.Postgres.MaxOpenConns = 10
	}
	if cfg.Origin.Mode == "" {
		cfg.Origin.Mode = "ip"
	}
	if cfg.Reaper.Interval == 0 {
		cfg.Reaper.Interval = 60 * time.Second
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "dropit"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// ExpirationThresholds converts the config's threshold entries into
// expiration.Threshold values for expiration.New.
func (c *Config) ExpirationThresholds() []expiration.Threshold {
	out := make([]expiration.Threshold, 0, len(c.Thresholds))
	for _, t := range c.Thresholds {
		th := expiration.Threshold{
			SizeMax: t.SizeMax,
			Default: time.Duration(t.DefaultSeconds) * time.Second,
		}
		if t.AllowedSeconds != nil {
			d := time.Duration(*t.AllowedSeconds) * time.Second
			th.Allowed = &d
		}
		out = append(out, th)
	}
	return out
}

// GORMStoreConfig converts the database section into a gormstore.Config.
func (c *Config) GORMStoreConfig() *gormstore.Config {
	backend := gormstore.BackendSQLite
	if c.Database.Backend == "postgres" {
		backend = gormstore.BackendPostgres
	}
	return &gormstore.Config{
		Backend: backend,
		SQLite: gormstore.SQLiteConfig{
			Path: c.Database.SQLite.Path,
		},
		Postgres: gormstore.PostgresConfig{
			Host:         c.Database.Postgres.Host,
			Port:         c.Database.Postgres.Port,
			Database:     c.Database.Postgres.Database,
			User:         c.Database.Postgres.User,
			Password:     c.Database.Postgres.Password,
			SSLMode:      c.Database.Postgres.SSLMode,
			MaxOpenConns: c.Database.Postgres.MaxOpenConns,
			MaxIdleConns: c.Database.Postgres.MaxIdleConns,
		},
	}
}
