package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the portal server.
type Config struct {
	// Server
	ServerHost       string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort       string        `env:"SERVER_PORT" envDefault:"3000"`
	CORSAllowOrigins string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Proxies whose X-Forwarded-For is believed. Empty means the peer address.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Clinical API
	ClinicalAPIURL    string        `env:"CLINICAL_API_URL,required"`
	AuthTimeout       time.Duration `env:"AUTH_TIMEOUT" envDefault:"15s"` // 0 waits forever
	PredictionTimeout time.Duration `env:"PREDICTION_TIMEOUT" envDefault:"30s"`
	DataTimeout       time.Duration `env:"DATA_TIMEOUT" envDefault:"15s"`
	MaxUploadBytes    int           `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// Client storage. Redis is used when REDIS_ADDR is set, memory otherwise.
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	SessionKeyPrefix string        `env:"SESSION_KEY_PREFIX" envDefault:"afi:client"`
	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"0s"`
	SessionSealKey   string        `env:"SESSION_SEAL_KEY"`

	// Appointments. MongoDB is used when MONGODB_URI is set, memory otherwise.
	MongoDBURI   string `env:"MONGODB_URI"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"afi_portal"`

	// Browser identity cookie
	ClientCookieName string        `env:"CLIENT_COOKIE_NAME" envDefault:"portal_client"`
	CookieSecure     bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieSameSite   string        `env:"COOKIE_SAME_SITE" envDefault:"Lax"`
	CookieMaxAge     time.Duration `env:"COOKIE_MAX_AGE" envDefault:"8760h"`

	// Routing
	LoginPath      string `env:"LOGIN_PATH" envDefault:"/auth"`
	LoginRateLimit int    `env:"LOGIN_RATE_LIMIT" envDefault:"20"` // per minute and IP, 0 disables

	// Logging
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// LoadConfig loads configuration from the process environment.
func LoadConfig() (*Config, error) {
	return load(env.Options{})
}

// LoadConfigFrom loads configuration from the given variables only.
func LoadConfigFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	u, err := url.Parse(c.ClinicalAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("clinical_api_url must be an absolute URL")
	}
	c.ClinicalAPIURL = strings.TrimRight(c.ClinicalAPIURL, "/")

	if c.AuthTimeout < 0 || c.PredictionTimeout < 0 || c.DataTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.PredictionTimeout == 0 {
		return errors.New("prediction_timeout must be positive")
	}
	if c.SessionIdleTTL < 0 {
		return errors.New("session_idle_ttl must not be negative")
	}

	if c.SessionSealKey != "" {
		if _, err := c.SealKey(); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.CookieSameSite) {
	case "lax":
		c.CookieSameSite = "Lax"
	case "strict":
		c.CookieSameSite = "Strict"
	case "none":
		c.CookieSameSite = "None"
	default:
		return errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	switch strings.ToLower(c.LogFormat) {
	case "":
		c.LogFormat = "text"
		if c.IsProduction() {
			c.LogFormat = "json"
		}
	case "json", "text":
		c.LogFormat = strings.ToLower(c.LogFormat)
	default:
		return errors.New("log_format must be 'json' or 'text'")
	}

	if !strings.HasPrefix(c.LoginPath, "/") {
		return errors.New("login_path must start with '/'")
	}
	if c.ClientCookieName == "" {
		return errors.New("client_cookie_name must not be empty")
	}
	return nil
}

// SealKey decodes SESSION_SEAL_KEY. It returns nil when sealing is disabled.
func (c *Config) SealKey() ([]byte, error) {
	if c.SessionSealKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SessionSealKey)
	if err != nil {
		return nil, fmt.Errorf("session_seal_key must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("session_seal_key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
