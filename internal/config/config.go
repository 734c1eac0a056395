package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Log            LogConfig            `yaml:"log"`
	Ledger         LedgerConfig         `yaml:"ledger"`
	Services       ServicesConfig       `yaml:"services"`
	Notification   NotificationConfig   `yaml:"notification"`
	Storage        StorageConfig        `yaml:"storage"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	MaxUploadSizeMB     int64  `yaml:"max_upload_size_mb"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

type LedgerConfig struct {
	MaxRetries      int    `yaml:"max_retries"`
	DefaultCurrency string `yaml:"default_currency"`
}

// ServiceConfig describes one paid lookup. Cost is written as a decimal
// string so it never passes through a float.
type ServiceConfig struct {
	CostText          string          `yaml:"cost"`
	Cost              decimal.Decimal `yaml:"-"`
	Description       string          `yaml:"description"`
	EstimatedDuration string          `yaml:"estimated_duration"`
	SuccessRate       float64         `yaml:"success_rate"`
}

type ServicesConfig struct {
	MinDelayMillis int                      `yaml:"min_delay_ms"`
	MaxDelayMillis int                      `yaml:"max_delay_ms"`
	Catalogue      map[string]ServiceConfig `yaml:"catalogue"`
}

type NotificationConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// StorageConfig contains settings for the provider file archive
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
}

type ReconciliationConfig struct {
	HistoryDays     int    `yaml:"history_days"`
	DefaultProvider string `yaml:"default_provider"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcilePreviousDay string `yaml:"reconcile_previous_day"`
}

var defaultCatalogue = map[string]ServiceConfig{
	"CRB": {
		CostText:          "50.00",
		Description:       "Credit Reference Bureau check",
		EstimatedDuration: "2-3 seconds",
		SuccessRate:       0.90,
	},
	"KYC": {
		CostText:          "25.00",
		Description:       "Know Your Customer verification",
		EstimatedDuration: "1-2 seconds",
		SuccessRate:       0.95,
	},
	"CREDIT_SCORING": {
		CostText:          "75.00",
		Description:       "Credit score calculation",
		EstimatedDuration: "2-3 seconds",
		SuccessRate:       0.85,
	},
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)

	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)

	envString("UPLOAD_DIR", &c.Storage.UploadDir)

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	envInt("LEDGER_MAX_RETRIES", &c.Ledger.MaxRetries)
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 30
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.MaxUploadSizeMB == 0 {
		c.Server.MaxUploadSizeMB = 10
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("ledger max_retries must not be negative: %d", c.Ledger.MaxRetries)
	}
	if c.Ledger.MaxRetries == 0 {
		c.Ledger.MaxRetries = 3
	}
	if c.Ledger.DefaultCurrency == "" {
		c.Ledger.DefaultCurrency = "KSH"
	}

	if err := c.Services.validate(); err != nil {
		return err
	}

	if c.Notification.Workers <= 0 {
		c.Notification.Workers = 2
	}
	if c.Notification.QueueSize <= 0 {
		c.Notification.QueueSize = 100
	}

	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}

	if c.Reconciliation.HistoryDays <= 0 {
		c.Reconciliation.HistoryDays = 30
	}
	if c.Reconciliation.DefaultProvider == "" {
		c.Reconciliation.DefaultProvider = "DEFAULT_PROVIDER"
	}

	if c.Scheduler.ReconcilePreviousDay == "" {
		c.Scheduler.ReconcilePreviousDay = "0 30 0 * * *" // 00:30 UTC
	}

	return nil
}

func (s *ServicesConfig) validate() error {
	if s.MinDelayMillis == 0 && s.MaxDelayMillis == 0 {
		s.MinDelayMillis, s.MaxDelayMillis = 1000, 3000
	}
	if s.MinDelayMillis < 0 || s.MaxDelayMillis < s.MinDelayMillis {
		return fmt.Errorf("invalid service delay bounds: %d-%d ms", s.MinDelayMillis, s.MaxDelayMillis)
	}
	if len(s.Catalogue) == 0 {
		s.Catalogue = make(map[string]ServiceConfig, len(defaultCatalogue))
		for name, svc := range defaultCatalogue {
			s.Catalogue[name] = svc
		}
	}
	for name, svc := range s.Catalogue {
		cost, err := decimal.NewFromString(svc.CostText)
		if err != nil {
			return fmt.Errorf("invalid cost %q for service %s: %w", svc.CostText, name, err)
		}
		if !cost.IsPositive() {
			return fmt.Errorf("cost for service %s must be positive", name)
		}
		if svc.SuccessRate < 0 || svc.SuccessRate > 1 {
			return fmt.Errorf("success rate for service %s must be within [0, 1]", name)
		}
		svc.Cost = cost
		s.Catalogue[name] = svc
	}
	return nil
}

// ServiceNames returns the configured service types in sorted order.
func (s ServicesConfig) ServiceNames() []string {
	names := make([]string, 0, len(s.Catalogue))
	for name := range s.Catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConnectionString returns a PostgreSQL connection string
func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
		d.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
