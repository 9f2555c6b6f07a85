package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// SchedulerConfig holds the recurring-series settings.
type SchedulerConfig struct {
	MaxOccurrences     int           `yaml:"max_occurrences"`
	ProposalTTLSeconds int           `yaml:"proposal_ttl_seconds"`
	ProposalTTL        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// CalendarConfig holds the external calendar provider configuration.
type CalendarConfig struct {
	CalendarID             string        `yaml:"calendar_id"`
	ClientID               string        `yaml:"client_id"`
	ClientSecret           string        `yaml:"client_secret"`
	TokenFile              string        `yaml:"token_file"`
	Timezone               string        `yaml:"timezone"`
	BatchSize              int           `yaml:"batch_size"`
	InterBatchDelaySeconds int           `yaml:"inter_batch_delay_seconds"`
	InterBatchDelay        time.Duration `yaml:"-"`
	AuthTimeoutSeconds     int           `yaml:"auth_timeout_seconds"`
	AuthTimeout            time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
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

	if cfg.Scheduler.MaxOccurrences <= 0 {
		cfg.Scheduler.MaxOccurrences = 52
	}
	if cfg.Scheduler.ProposalTTLSeconds <= 0 {
		cfg.Scheduler.ProposalTTLSeconds = 600
	}
	cfg.Scheduler.ProposalTTL = time.Duration(cfg.Scheduler.ProposalTTLSeconds) * time.Second

	if cfg.Calendar.CalendarID == "" {
		cfg.Calendar.CalendarID = "primary"
	}
	if cfg.Calendar.BatchSize <= 0 {
		cfg.Calendar.BatchSize = 10
	}
	if cfg.Calendar.InterBatchDelaySeconds <= 0 {
		cfg.Calendar.InterBatchDelaySeconds = 3
	}
	cfg.Calendar.InterBatchDelay = time.Duration(cfg.Calendar.InterBatchDelaySeconds) * time.Second
	if cfg.Calendar.AuthTimeoutSeconds <= 0 {
		cfg.Calendar.AuthTimeoutSeconds = 30
	}
	cfg.Calendar.AuthTimeout = time.Duration(cfg.Calendar.AuthTimeoutSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
