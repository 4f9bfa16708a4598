package httpserver

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCheckOrigin(t *testing.T) {
	appURL := "https://monitor.example.com/api/config"

	tests := []struct {
		name          string
		origin        string
		host          string
		isDevelopment bool
		want          bool
	}{
		// Always allowed
		{"empty origin", "", "monitor.example.com", false, true},
		{"app origin", "https://monitor.example.com", "internal:8080", false, true},
		{"same host", "http://10.0.0.5:8080", "10.0.0.5:8080", false, true},

		// Rejected in production
		{"different host", "https://evil.com", "monitor.example.com", false, false},
		{"different port", "https://monitor.example.com:9090", "internal:8080", false, false},
		{"http instead of https", "http://monitor.example.com", "internal:8080", false, false},

		// Localhost: allowed in dev, rejected in prod
		{"localhost dev", "http://localhost:8080", "monitor.example.com", true, true},
		{"127.0.0.1 dev", "http://127.0.0.1:3000", "monitor.example.com", true, true},
		{"localhost prod rejected", "http://localhost:8080", "monitor.example.com", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewCheckOrigin(appURL, tt.isDevelopment)
			r, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checker(r))
		})
	}
}

func TestNewCheckOrigin_NoAppURL(t *testing.T) {
	checker := NewCheckOrigin("", false)
	r, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/ws", nil)
	r.Host = "monitor.local"
	r.Header.Set("Origin", "https://other.local")

	assert.False(t, checker(r))
}

func TestExtractOrigin(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{"full URL with path", "https://example.com/api/config", "https://example.com"},
		{"URL with port", "https://example.com:8443/path", "https://example.com:8443"},
		{"http URL", "http://localhost:8080/ws", "http://localhost:8080"},
		{"empty string", "", ""},
		{"no host", "mailto:user@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractOrigin(tt.rawURL))
		})
	}
}
