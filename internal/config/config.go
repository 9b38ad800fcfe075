// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultBusyTimeoutMS       = 5000
	defaultMaxStoreRetries     = 3
	defaultRetryBaseDelayMS    = 25
	defaultAttemptsPerMinute   = 20
	defaultIPAttemptsPerMinute = 120
	defaultShutdownSeconds     = 30
	defaultMaintenanceSchedule = "17 3 * * *"
	defaultChannelPrefix       = "courtbook"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
	// Upper bound on how long a writer waits for the SQLite write lock.
	BusyTimeoutMS int `yaml:"busy_timeout_ms"`
}

type BookingConfig struct {
	MaxStoreRetries     int  `yaml:"max_store_retries"`
	RetryBaseDelayMS    int  `yaml:"retry_base_delay_ms"`
	AttemptsPerMinute   int  `yaml:"attempts_per_minute"`
	IPAttemptsPerMinute int  `yaml:"ip_attempts_per_minute"`
	TrustProxy          bool `yaml:"trust_proxy"`
}

type EventsConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"-"` // Loaded from environment
	ChannelPrefix string `yaml:"channel_prefix"`
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name                   string `yaml:"name"`
		Environment            string `yaml:"environment"`
		Port                   int    `yaml:"port"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`

	Maintenance struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"maintenance"`

	Events EventsConfig `yaml:"events"`
	Email  EmailConfig  `yaml:"email"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.Events.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.Email.AccessKeyID = os.Getenv("AWS_SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SES_SECRET_ACCESS_KEY")

	return cfg, nil
}

// Parse decodes a YAML document, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.ShutdownTimeoutSeconds == 0 {
		c.App.ShutdownTimeoutSeconds = defaultShutdownSeconds
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = defaultBusyTimeoutMS
	}
	if c.Booking.MaxStoreRetries == 0 {
		c.Booking.MaxStoreRetries = defaultMaxStoreRetries
	}
	if c.Booking.RetryBaseDelayMS == 0 {
		c.Booking.RetryBaseDelayMS = defaultRetryBaseDelayMS
	}
	if c.Booking.AttemptsPerMinute == 0 {
		c.Booking.AttemptsPerMinute = defaultAttemptsPerMinute
	}
	if c.Booking.IPAttemptsPerMinute == 0 {
		c.Booking.IPAttemptsPerMinute = defaultIPAttemptsPerMinute
	}
	if strings.TrimSpace(c.Maintenance.Schedule) == "" {
		c.Maintenance.Schedule = defaultMaintenanceSchedule
	}
	if c.Events.ChannelPrefix == "" {
		c.Events.ChannelPrefix = defaultChannelPrefix
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app port must be between 1 and 65535")
	}
	if c.App.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("shutdown timeout must not be negative")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.BusyTimeoutMS < 0 {
		return fmt.Errorf("database busy timeout must not be negative")
	}

	if c.Booking.MaxStoreRetries < 0 || c.Booking.MaxStoreRetries > 10 {
		return fmt.Errorf("booking max_store_retries must be between 0 and 10")
	}
	if c.Booking.RetryBaseDelayMS < 0 {
		return fmt.Errorf("booking retry_base_delay_ms must not be negative")
	}
	if c.Booking.AttemptsPerMinute < 0 || c.Booking.IPAttemptsPerMinute < 0 {
		return fmt.Errorf("booking rate limits must not be negative")
	}

	if _, err := cron.ParseStandard(c.Maintenance.Schedule); err != nil {
		return fmt.Errorf("maintenance schedule %q is not a valid cron expression: %w", c.Maintenance.Schedule, err)
	}

	if c.Email.Sender != "" && c.Email.Region == "" {
		return fmt.Errorf("email region is required when a sender is configured")
	}

	return nil
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownTimeoutSeconds) * time.Second
}

func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Booking.RetryBaseDelayMS) * time.Millisecond
}

// EventsEnabled reports whether grid change events should be published.
func (c *Config) EventsEnabled() bool {
	return strings.TrimSpace(c.Events.RedisAddr) != ""
}

// EmailEnabled reports whether booking notices should be sent.
func (c *Config) EmailEnabled() bool {
	return c.Email.Sender != "" && c.Email.AccessKeyID != "" && c.Email.SecretAccessKey != ""
}
