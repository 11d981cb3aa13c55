package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	DB   DBConfig
	Log  LogConfig
	Jobs JobsConfig
}

// DBConfig holds database connection settings. Driver selects between an
// external PostgreSQL server and an embedded SQLite file.
type DBConfig struct {
	Driver      string        `mapstructure:"driver"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	Name        string        `mapstructure:"name"`
	SSLMode     string        `mapstructure:"sslmode"`
	Path        string        `mapstructure:"path"`
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// DSN returns the connection string for the configured driver.
func (d *DBConfig) DSN() string {
	if d.Driver == DriverSQLite {
		q := url.Values{}
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", d.BusyTimeout.Milliseconds()))
		q.Add("_time_format", "sqlite")
		return "file:" + d.Path + "?" + q.Encode()
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	ServiceName string `mapstructure:"service_name"`
}

// JobsConfig holds extraction job ledger settings.
type JobsConfig struct {
	// DefaultMaxRetries applies when a job is created without an explicit budget.
	DefaultMaxRetries int `mapstructure:"default_max_retries"`
	// LockTimeout bounds how long a status change waits for a competing
	// writer holding the job row (PostgreSQL only).
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// Load reads configuration from environment variables with the EXTRACTLEDGER_
// prefix. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXTRACTLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// DB defaults
	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "extractledger")
	v.SetDefault("db.password", "extractledger_secret")
	v.SetDefault("db.name", "extractledger_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "./data/extractledger.db")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)
	v.SetDefault("db.busy_timeout", "5s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.service_name", "extractledger")

	// Jobs defaults
	v.SetDefault("jobs.default_max_retries", 3)
	v.SetDefault("jobs.lock_timeout", "5s")

	envBindings := map[string]string{
		"db.driver":                "EXTRACTLEDGER_DB_DRIVER",
		"db.host":                  "EXTRACTLEDGER_DB_HOST",
		"db.port":                  "EXTRACTLEDGER_DB_PORT",
		"db.user":                  "EXTRACTLEDGER_DB_USER",
		"db.password":              "EXTRACTLEDGER_DB_PASSWORD",
		"db.name":                  "EXTRACTLEDGER_DB_NAME",
		"db.sslmode":               "EXTRACTLEDGER_DB_SSLMODE",
		"db.path":                  "EXTRACTLEDGER_DB_PATH",
		"db.max_open":              "EXTRACTLEDGER_DB_MAX_OPEN",
		"db.max_idle":              "EXTRACTLEDGER_DB_MAX_IDLE",
		"db.busy_timeout":          "EXTRACTLEDGER_DB_BUSY_TIMEOUT",
		"log.level":                "EXTRACTLEDGER_LOG_LEVEL",
		"log.format":               "EXTRACTLEDGER_LOG_FORMAT",
		"log.service_name":         "EXTRACTLEDGER_LOG_SERVICE_NAME",
		"jobs.default_max_retries": "EXTRACTLEDGER_JOBS_DEFAULT_MAX_RETRIES",
		"jobs.lock_timeout":        "EXTRACTLEDGER_JOBS_LOCK_TIMEOUT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}
	cfg.DB = DBConfig{
		Driver:      strings.ToLower(v.GetString("db.driver")),
		Host:        v.GetString("db.host"),
		Port:        v.GetInt("db.port"),
		User:        v.GetString("db.user"),
		Password:    v.GetString("db.password"),
		Name:        v.GetString("db.name"),
		SSLMode:     v.GetString("db.sslmode"),
		Path:        v.GetString("db.path"),
		MaxOpen:     v.GetInt("db.max_open"),
		MaxIdle:     v.GetInt("db.max_idle"),
		BusyTimeout: v.GetDuration("db.busy_timeout"),
	}
	cfg.Log = LogConfig{
		Level:       v.GetString("log.level"),
		Format:      v.GetString("log.format"),
		ServiceName: v.GetString("log.service_name"),
	}
	cfg.Jobs = JobsConfig{
		DefaultMaxRetries: v.GetInt("jobs.default_max_retries"),
		LockTimeout:       v.GetDuration("jobs.lock_timeout"),
	}

	if cfg.DB.Driver != DriverPostgres && cfg.DB.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported db driver %q (want %s or %s)", cfg.DB.Driver, DriverPostgres, DriverSQLite)
	}
	if cfg.Jobs.DefaultMaxRetries < 0 {
		return nil, fmt.Errorf("jobs.default_max_retries must be >= 0, got %d", cfg.Jobs.DefaultMaxRetries)
	}

	return cfg, nil
}
