package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "config/config.json", cfg.ConfigFile)
	assert.Equal(t, "Local", cfg.DisplayTimezone)
	assert.Equal(t, 1000, cfg.MaxWebSocketConnections)
	assert.Equal(t, 5*time.Second, cfg.WebSocketSendTimeout)
	assert.Equal(t, 20, cfg.MaxConnectionsPerIP)
	assert.Equal(t, 5.0, cfg.WebSocketConnectRate)
	assert.Equal(t, 10, cfg.WebSocketConnectBurst)
	assert.Equal(t, 10.0, cfg.APIRateLimit)
	assert.Equal(t, 20, cfg.APIRateBurst)
	assert.Empty(t, cfg.RedisURL)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, time.Local, cfg.Location())
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("CONFIG_FILE", "/var/lib/djmonitor/config.json")
	t.Setenv("DISPLAY_TIMEZONE", "Europe/Paris")
	t.Setenv("WS_SEND_TIMEOUT", "2s")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/var/lib/djmonitor/config.json", cfg.ConfigFile)
	assert.Equal(t, 2*time.Second, cfg.WebSocketSendTimeout)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "Europe/Paris", cfg.Location().String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"unknown timezone", "DISPLAY_TIMEZONE", "Mars/Olympus", "DISPLAY_TIMEZONE"},
		{"relative app url", "APP_URL", "monitor.local", "APP_URL"},
		{"zero connections", "MAX_WEBSOCKET_CONNECTIONS", "0", "MAX_WEBSOCKET_CONNECTIONS"},
		{"negative send timeout", "WS_SEND_TIMEOUT", "-1s", "WS_SEND_TIMEOUT"},
		{"zero per-ip connections", "MAX_CONNECTIONS_PER_IP", "0", "MAX_CONNECTIONS_PER_IP"},
		{"zero connect burst", "WS_CONNECT_BURST", "0", "WS_CONNECT_BURST"},
		{"zero rate", "API_RATE_LIMIT", "0", "API_RATE_LIMIT"},
		{"unparseable duration", "SHUTDOWN_TIMEOUT", "soon", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
