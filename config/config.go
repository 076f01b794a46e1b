package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	obs "github.com/Black-And-White-Club/stride-league/internal/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Notifications NotificationConfig  `yaml:"notifications"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	ListenAddress  string   `yaml:"listen_address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RateLimit is requests per second per client IP; RateBurst is the bucket size.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// JWTConfig holds JWT validation settings for API callers.
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// NotificationConfig holds the push-notification collaborator settings.
type NotificationConfig struct {
	PushURL      string        `yaml:"push_url"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Scopes       []string      `yaml:"scopes"`
	Timeout      time.Duration `yaml:"timeout"`
}

// QueueConfig holds River job queue settings.
type QueueConfig struct {
	MaxWorkers          int           `yaml:"max_workers"`
	AuditInterval       time.Duration `yaml:"audit_interval"`
	StuckPoolThreshold  time.Duration `yaml:"stuck_pool_threshold"`
	NotificationWorkers int           `yaml:"notification_workers"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_LISTEN_ADDRESS"); v != "" {
		cfg.HTTP.ListenAddress = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT value: %v", err)
		}
		cfg.HTTP.RateLimit = f
	}
	if v := os.Getenv("HTTP_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_BURST value: %v", err)
		}
		cfg.HTTP.RateBurst = n
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWT.Issuer = v
	}
	if v := os.Getenv("JWT_AUDIENCE"); v != "" {
		cfg.JWT.Audience = v
	}
	if v := os.Getenv("PUSH_URL"); v != "" {
		cfg.Notifications.PushURL = v
	}
	if v := os.Getenv("PUSH_TOKEN_URL"); v != "" {
		cfg.Notifications.TokenURL = v
	}
	if v := os.Getenv("PUSH_CLIENT_ID"); v != "" {
		cfg.Notifications.ClientID = v
	}
	if v := os.Getenv("PUSH_CLIENT_SECRET"); v != "" {
		cfg.Notifications.ClientSecret = v
	}
	if v := os.Getenv("PUSH_SCOPES"); v != "" {
		cfg.Notifications.Scopes = splitList(v)
	}
	if v := os.Getenv("PUSH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PUSH_TIMEOUT value: %v", err)
		}
		cfg.Notifications.Timeout = d
	}
	if v := os.Getenv("QUEUE_MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_MAX_WORKERS value: %v", err)
		}
		cfg.Queue.MaxWorkers = n
	}
	if v := os.Getenv("QUEUE_AUDIT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_AUDIT_INTERVAL value: %v", err)
		}
		cfg.Queue.AuditInterval = d
	}
	if v := os.Getenv("QUEUE_STUCK_POOL_THRESHOLD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_STUCK_POOL_THRESHOLD value: %v", err)
		}
		cfg.Queue.StuckPoolThreshold = d
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddress == "" {
		c.HTTP.ListenAddress = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = 10
	}
	if c.Notifications.Timeout == 0 {
		c.Notifications.Timeout = 5 * time.Second
	}
	if c.Queue.MaxWorkers == 0 {
		c.Queue.MaxWorkers = 25
	}
	if c.Queue.NotificationWorkers == 0 {
		c.Queue.NotificationWorkers = 10
	}
	if c.Queue.AuditInterval == 0 {
		c.Queue.AuditInterval = 15 * time.Minute
	}
	if c.Queue.StuckPoolThreshold == 0 {
		c.Queue.StuckPoolThreshold = 10 * time.Minute
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ToObsConfig(appCfg *Config) obs.Config {
	return obs.Config{
		ServiceName:    "stride-league",
		Environment:    appCfg.Observability.Environment,
		LogLevel:       appCfg.Observability.LogLevel,
		MetricsAddress: appCfg.Observability.MetricsAddress,
		MetricsPrefix:  "stride",
	}
}
