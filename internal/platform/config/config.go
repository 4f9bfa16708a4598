package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	AppURL    string `env:"APP_URL"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	ConfigFile      string `env:"CONFIG_FILE" default:"config/config.json"`
	DisplayTimezone string `env:"DISPLAY_TIMEZONE" default:"Local"`

	RedisURL string `env:"REDIS_URL"`

	MaxWebSocketConnections int           `env:"MAX_WEBSOCKET_CONNECTIONS" default:"1000"`
	WebSocketSendTimeout    time.Duration `env:"WS_SEND_TIMEOUT" default:"5s"`
	MaxConnectionsPerIP     int           `env:"MAX_CONNECTIONS_PER_IP" default:"20"`
	WebSocketConnectRate    float64       `env:"WS_CONNECT_RATE" default:"5"`
	WebSocketConnectBurst   int           `env:"WS_CONNECT_BURST" default:"10"`

	APIRateLimit float64 `env:"API_RATE_LIMIT" default:"10"`
	APIRateBurst int     `env:"API_RATE_BURST" default:"20"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsDevelopment reports whether the app runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}

// Location resolves DisplayTimezone. It cannot fail after Load succeeded.
func (c *Config) Location() *time.Location {
	loc, err := loadLocation(c.DisplayTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func validate(cfg *Config) error {
	if cfg.ConfigFile == "" {
		return errors.New("CONFIG_FILE is required")
	}

	if _, err := loadLocation(cfg.DisplayTimezone); err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE %q is not a known timezone: %w", cfg.DisplayTimezone, err)
	}

	if cfg.AppURL != "" {
		u, err := url.Parse(cfg.AppURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("APP_URL must be an absolute URL, got %q", cfg.AppURL)
		}
	}

	if cfg.MaxWebSocketConnections <= 0 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS must be positive")
	}
	if cfg.WebSocketSendTimeout <= 0 {
		return errors.New("WS_SEND_TIMEOUT must be positive")
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		return errors.New("MAX_CONNECTIONS_PER_IP must be positive")
	}
	if cfg.WebSocketConnectRate <= 0 || cfg.WebSocketConnectBurst <= 0 {
		return errors.New("WS_CONNECT_RATE and WS_CONNECT_BURST must be positive")
	}
	if cfg.APIRateLimit <= 0 || cfg.APIRateBurst <= 0 {
		return errors.New("API_RATE_LIMIT and API_RATE_BURST must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	return nil
}
