package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Reservation ReservationConfig `yaml:"reservation"`
	Analytics   AnalyticsConfig   `yaml:"analytics"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	// SessionHeader names the header used to identify a booking session for
	// rate limiting; requests without it fall back to the client IP.
	SessionHeader string        `yaml:"session_header"`
	CacheTTL      time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableExclusion        bool   `yaml:"enable_exclusion"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// ReservationConfig tunes the hold lease and the expiration sweeper.
type ReservationConfig struct {
	HoldDurationSeconds      int    `yaml:"hold_duration_seconds"`
	SweepIntervalSeconds     int    `yaml:"sweep_interval_seconds"`
	Timezone                 string `yaml:"timezone"`
	AvailabilityCacheSeconds int    `yaml:"availability_cache_seconds"`

	HoldDuration      time.Duration  `yaml:"-"`
	SweepInterval     time.Duration  `yaml:"-"`
	AvailabilityCache time.Duration  `yaml:"-"`
	Location          *time.Location `yaml:"-"`
}

// AnalyticsConfig holds the configuration for the lifecycle event publisher.
type AnalyticsConfig struct {
	WorkerPoolSize int    `yaml:"worker_pool_size"`
	QueueSize      int    `yaml:"queue_size"`
	AMQPURL        string `yaml:"amqp_url"`
	AMQPQueue      string `yaml:"amqp_queue"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied. Unlike Load it
// does not consult the environment.
func Default() *Config {
	var cfg Config
	// the zero config always resolves: UTC is built in
	_ = cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	if cfg.Server.SessionHeader == "" {
		cfg.Server.SessionHeader = "X-Session-ID"
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Reservation.HoldDurationSeconds <= 0 {
		cfg.Reservation.HoldDurationSeconds = 300
	}
	if cfg.Reservation.SweepIntervalSeconds <= 0 {
		cfg.Reservation.SweepIntervalSeconds = 60
	}
	if cfg.Reservation.AvailabilityCacheSeconds <= 0 {
		cfg.Reservation.AvailabilityCacheSeconds = 60
	}
	if cfg.Reservation.Timezone == "" {
		cfg.Reservation.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(cfg.Reservation.Timezone)
	if err != nil {
		return fmt.Errorf("invalid reservation.timezone %q: %w", cfg.Reservation.Timezone, err)
	}
	cfg.Reservation.Location = loc
	cfg.Reservation.HoldDuration = time.Duration(cfg.Reservation.HoldDurationSeconds) * time.Second
	cfg.Reservation.SweepInterval = time.Duration(cfg.Reservation.SweepIntervalSeconds) * time.Second
	cfg.Reservation.AvailabilityCache = time.Duration(cfg.Reservation.AvailabilityCacheSeconds) * time.Second

	if cfg.Analytics.WorkerPoolSize <= 0 {
		log.Printf("analytics.worker_pool_size is not set or invalid; defaulting to 1")
		cfg.Analytics.WorkerPoolSize = 1
	}
	if cfg.Analytics.QueueSize <= 0 {
		cfg.Analytics.QueueSize = 64
	}
	if cfg.Analytics.AMQPQueue == "" {
		cfg.Analytics.AMQPQueue = "hold.events"
	}
	return nil
}
