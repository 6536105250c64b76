package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Users     []UserConfig    `yaml:"users"`  // Dashboard accounts
	Client    ClientConfig    `yaml:"client"` // Used by search/stats/top commands
}

// ServerConfig contains server-wide settings
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	BaseURL    string `yaml:"base_url"` // Prefix for navigation links, e.g. https://lists.example.com
}

// APIConfig contains admin API settings
type APIConfig struct {
	APIKey         string        `yaml:"api_key"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"` // Max HTTP header size (default: 1MB)
	ReadTimeout    time.Duration `yaml:"read_timeout"`     // HTTP read timeout (default: 30s)
	WriteTimeout   time.Duration `yaml:"write_timeout"`    // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration `yaml:"idle_timeout"`     // HTTP idle timeout (default: 60s)
}

// StorageConfig contains storage settings
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool     `yaml:"enabled"`
	ListenAddr string   `yaml:"listen_addr"` // Default: :9090
	Path       string   `yaml:"path"`        // Default: /metrics
	AllowedIPs []string `yaml:"allowed_ips"` // IPs or CIDRs allowed to scrape; empty allows all
}

// DashboardConfig contains dashboard behaviour settings
type DashboardConfig struct {
	StatsDays    int           `yaml:"stats_days"`    // Days covered by the statistics widget (default: 31)
	SyncInterval time.Duration `yaml:"sync_interval"` // Background task sync interval (0 disables)
	CSRFSecret   string        `yaml:"csrf_secret"`
	Login        LoginConfig   `yaml:"login"`
}

// LoginConfig throttles failed dashboard logins
type LoginConfig struct {
	FailuresPerIP      int           `yaml:"failures_per_ip"`      // Default: 20
	FailuresPerAccount int           `yaml:"failures_per_account"` // Default: 10
	Window             time.Duration `yaml:"window"`               // Default: 15m
}

// UserConfig is a dashboard account
type UserConfig struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"` // bcrypt, see `listdash user hash-password`
	Superuser    bool   `yaml:"superuser"`
}

// ClientConfig contains settings for the exchange client
type ClientConfig struct {
	DashboardURL string        `yaml:"dashboard_url"`
	Email        string        `yaml:"email"`
	Password     string        `yaml:"password"`
	Timeout      time.Duration `yaml:"timeout"` // Per-request timeout (default: 10s)
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}

	if c.API.MaxHeaderBytes == 0 {
		c.API.MaxHeaderBytes = 1 << 20 // 1 MB
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		c.API.WriteTimeout = 30 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 60 * time.Second
	}

	if c.Storage.Path == "" {
		c.Storage.Path = "/var/lib/listdash/listdash.db"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Dashboard.StatsDays == 0 {
		c.Dashboard.StatsDays = 31
	}
	if c.Dashboard.Login.FailuresPerIP == 0 {
		c.Dashboard.Login.FailuresPerIP = 20
	}
	if c.Dashboard.Login.FailuresPerAccount == 0 {
		c.Dashboard.Login.FailuresPerAccount = 10
	}
	if c.Dashboard.Login.Window == 0 {
		c.Dashboard.Login.Window = 15 * time.Minute
	}

	if c.Client.DashboardURL == "" {
		host := c.Server.ListenAddr
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		c.Client.DashboardURL = "http://" + host + "/dashboard"
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 10 * time.Second
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Dashboard.StatsDays < 1 || c.Dashboard.StatsDays > 366 {
		return fmt.Errorf("dashboard.stats_days must be between 1 and 366")
	}
	if c.Dashboard.SyncInterval < 0 {
		return fmt.Errorf("dashboard.sync_interval must not be negative")
	}
	if c.Dashboard.CSRFSecret != "" && len(c.Dashboard.CSRFSecret) < 32 {
		return fmt.Errorf("dashboard.csrf_secret must be at least 32 characters")
	}

	if c.Dashboard.Login.FailuresPerIP < 0 || c.Dashboard.Login.FailuresPerAccount < 0 {
		return fmt.Errorf("dashboard.login limits must not be negative")
	}

	seen := make(map[string]bool)
	for i, u := range c.Users {
		if u.Email == "" {
			return fmt.Errorf("users[%d].email is required", i)
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("users[%d].password_hash is required", i)
		}
		key := strings.ToLower(u.Email)
		if seen[key] {
			return fmt.Errorf("duplicate user %s", u.Email)
		}
		seen[key] = true
	}

	if _, err := url.Parse(c.Client.DashboardURL); err != nil {
		return fmt.Errorf("invalid client.dashboard_url: %w", err)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("client.timeout must not be negative")
	}

	return nil
}

// FindUser returns the account with the given email, case-insensitively
func (c *Config) FindUser(email string) *UserConfig {
	for i := range c.Users {
		if strings.EqualFold(c.Users[i].Email, email) {
			return &c.Users[i]
		}
	}
	return nil
}
