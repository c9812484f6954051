// Package config loads runtime settings for relmap tools.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/dialect/sql"
)

// Config holds the connection and execution settings.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values.
// The DSN may hold credentials and must only come from the environment.
type Config struct {
	// Dialect selects the capability entry, e.g. "postgres" or "mssql".
	Dialect string `yaml:"dialect" env:"RELMAP_DIALECT" env-default:"postgres"`
	// Driver is the database/sql driver name. It is derived from Dialect
	// when empty.
	Driver string `yaml:"driver" env:"RELMAP_DRIVER" env-default:""`
	DSN    string `yaml:"-" env:"RELMAP_DSN"` // Secret - not in YAML
	// LegacySpatial selects GeomFromText on MySQL servers before 8.0.
	LegacySpatial bool `yaml:"legacy_spatial" env:"RELMAP_LEGACY_SPATIAL" env-default:"false"`

	Log    LogConfig    `yaml:"log"`
	Update UpdateConfig `yaml:"update"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"RELMAP_LOG_LEVEL" env-default:"info"`
	// Development switches to the human readable console encoder.
	Development bool `yaml:"development" env:"RELMAP_LOG_DEVELOPMENT" env-default:"false"`
	// SlowQuery logs statements slower than this duration at warn level.
	SlowQuery time.Duration `yaml:"slow_query" env:"RELMAP_LOG_SLOW_QUERY" env-default:"0s"`
}

// UpdateConfig holds the defaults of update executions.
type UpdateConfig struct {
	Transaction bool `yaml:"transaction" env:"RELMAP_UPDATE_TRANSACTION" env-default:"true"`
	Listeners   bool `yaml:"listeners" env:"RELMAP_UPDATE_LISTENERS" env-default:"true"`
}

// Load reads configuration from the YAML file at path with environment
// variable overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if _, err := cfg.Capability(); err != nil {
		return nil, fmt.Errorf("invalid dialect: %w", err)
	}
	if _, err := zap.ParseAtomicLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return cfg, nil
}

// Capability returns the capability entry of the configured dialect.
func (c *Config) Capability() (*dialect.Capability, error) {
	capability, err := dialect.Lookup(c.Dialect)
	if err != nil {
		return nil, err
	}
	if c.LegacySpatial {
		capability = capability.WithLegacySpatial()
	}
	return capability, nil
}

// DriverName returns the database/sql driver registered for the dialect.
func (c *Config) DriverName() string {
	if c.Driver != "" {
		return c.Driver
	}
	capability, err := dialect.Lookup(c.Dialect)
	if err != nil {
		return c.Dialect
	}
	switch name := capability.Name; {
	case name == dialect.Postgres || name == dialect.CockroachDB:
		return "pgx"
	case dialect.IsMySQLFamily(name):
		return "mysql"
	case name == dialect.SQLServer:
		return "sqlserver"
	default:
		return name
	}
}

// Logger builds the zap logger.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	logConfig := zap.NewProductionConfig()
	if c.Log.Development {
		logConfig = zap.NewDevelopmentConfig()
	}
	logConfig.Level = level
	return logConfig.Build()
}

// ExecOptions returns the execution defaults as executor options.
func (c *Config) ExecOptions() []sql.ExecOption {
	return []sql.ExecOption{
		sql.WithTransaction(c.Update.Transaction),
		sql.WithListeners(c.Update.Listeners),
	}
}

// Open opens the configured database wrapped in a debug driver.
func (c *Config) Open(log *zap.Logger) (*sql.DebugDriver, error) {
	if c.DSN == "" {
		return nil, fmt.Errorf("RELMAP_DSN is not set")
	}
	drv, err := sql.Open(c.DriverName(), c.DSN)
	if err != nil {
		return nil, err
	}
	return sql.NewDebugDriver(drv,
		sql.DebugWithLogger(log),
		sql.DebugWithSlowThreshold(c.Log.SlowQuery),
	), nil
}
