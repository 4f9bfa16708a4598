package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/djmonitor/internal/adapter/metrics"
	"github.com/pscheid92/djmonitor/internal/app"
	"github.com/pscheid92/djmonitor/internal/domain"
	"github.com/pscheid92/djmonitor/internal/platform/config"
)

type appService interface {
	GetState(ctx context.Context) app.State
	SetPublication(ctx context.Context, req app.SetPublicationRequest) (domain.Publication, error)
	ClearPublication(ctx context.Context, req app.ClearPublicationRequest) (domain.Publication, error)
	SetEndTime(ctx context.Context, req app.SetEndTimeRequest) (domain.Publication, error)
	TriggerBlink(ctx context.Context, color string) error
}

type displayHub interface {
	Register(conn *websocket.Conn) (uuid.UUID, error)
	Unregister(sessionID uuid.UUID)
	SendState(sessionID uuid.UUID)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService
	hub displayHub

	upgrader       websocket.Upgrader
	connLimits     *connectionLimiter
	metricsHandler http.Handler
	httpMetrics    *metrics.HTTPMetrics
	healthChecks   []HealthCheck

	clock     clockwork.Clock
	startTime time.Time
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithMetrics exposes handler on /metrics and records request metrics on m.
func WithMetrics(handler http.Handler, m *metrics.HTTPMetrics) Option {
	return func(s *Server) {
		s.metricsHandler = handler
		s.httpMetrics = m
	}
}

// WithHealthChecks sets the checks run by /health/ready.
func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) { s.healthChecks = checks }
}

func NewServer(cfg *config.Config, app appService, hub displayHub, clock clockwork.Clock, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:   e,
		config: cfg,
		app:    app,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewCheckOrigin(cfg.AppURL, cfg.IsDevelopment()),
		},
		connLimits: newConnectionLimiter(clock, cfg.MaxConnectionsPerIP, cfg.WebSocketConnectRate, cfg.WebSocketConnectBurst),
		clock:      clock,
		startTime:  clock.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
