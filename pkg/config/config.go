package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config represents the complete application configuration
type Config struct {
	Backend   BackendConfig   `json:"backend"`
	Engine    EngineConfig    `json:"engine"`
	HTTP      HTTPConfig      `json:"http"`
	Metrics   MetricsConfig   `json:"metrics"`
	Messaging MessagingConfig `json:"messaging"`
	Logging   LoggingConfig   `json:"logging"`
}

// BackendConfig holds the collaborator endpoints and session credential
type BackendConfig struct {
	// BaseURL is the backend root, e.g. https://cc.example.com
	BaseURL string `json:"base_url"`

	// WSURL is the push-channel endpoint. Derived from BaseURL when empty.
	WSURL string `json:"ws_url"`

	// SessionToken authenticates collaborator requests. Sent both as the
	// session cookie and as a bearer token.
	SessionToken string `json:"-"`

	// HTTPTimeout bounds each collaborator request
	HTTPTimeout time.Duration `json:"http_timeout"`
}

// EngineConfig holds sync-engine timing knobs
type EngineConfig struct {
	// PollInterval is the reconciliation timer period
	PollInterval time.Duration `json:"poll_interval"`

	// ReconnectDelay is the fixed delay before a push-channel reconnect
	ReconnectDelay time.Duration `json:"reconnect_delay"`
}

// HTTPConfig holds the local read-surface server configuration
type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Host    string `json:"host"`
}

// MetricsConfig holds the metrics exporter configuration
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// MessagingConfig holds the optional AMQP event relay configuration.
// The relay is disabled when URL is empty.
type MessagingConfig struct {
	URL       string `json:"-"`
	QueueName string `json:"queue_name"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // text or json
}

// Load reads configuration from the environment, consulting a .env file
// first when one exists.
func Load(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env file")
	}

	cfg := &Config{
		Backend: BackendConfig{
			BaseURL:      getEnv("BACKEND_URL", "http://localhost:8001"),
			WSURL:        getEnv("WS_URL", ""),
			SessionToken: getEnv("SESSION_TOKEN", ""),
			HTTPTimeout:  getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		},
		Engine: EngineConfig{
			PollInterval:   getEnvDuration("POLL_INTERVAL", 5*time.Second),
			ReconnectDelay: getEnvDuration("RECONNECT_DELAY", 3*time.Second),
		},
		HTTP: HTTPConfig{
			Enabled: getEnvBool("HTTP_ENABLED", true),
			Port:    getEnvInt("HTTP_PORT", 8080),
			Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
		},
		Messaging: MessagingConfig{
			URL:       getEnv("AMQP_URL", ""),
			QueueName: getEnv("AMQP_QUEUE", "supervisor-events"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if cfg.Backend.WSURL == "" {
		cfg.Backend.WSURL = DeriveWSURL(cfg.Backend.BaseURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DeriveWSURL maps the backend base URL to the push-channel endpoint:
// the scheme flips to ws/wss and the live path is appended.
func DeriveWSURL(baseURL string) string {
	ws := baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimSuffix(ws, "/") + "/api/ws/live"
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid backend base URL %q: %w", c.Backend.BaseURL, err)
	}
	if !strings.HasPrefix(c.Backend.WSURL, "ws://") && !strings.HasPrefix(c.Backend.WSURL, "wss://") {
		return fmt.Errorf("push channel URL must use ws or wss scheme, got %q", c.Backend.WSURL)
	}
	if c.Engine.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Engine.PollInterval)
	}
	if c.Engine.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive, got %s", c.Engine.ReconnectDelay)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTP.Port)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port %d", c.Metrics.Port)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// ConfigureLogger applies the logging section to a logrus logger
func (c *Config) ConfigureLogger(logger *logrus.Logger) {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithField("level", c.Logging.Level).Warn("Unknown log level, defaulting to info")
	}
	logger.SetLevel(level)

	if c.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		// Accept bare millisecond counts for compatibility with older deploys
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
