package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/djmonitor/internal/adapter/httpserver"
	"github.com/pscheid92/djmonitor/internal/adapter/metrics"
	"github.com/pscheid92/djmonitor/internal/adapter/redis"
	"github.com/pscheid92/djmonitor/internal/app"
	"github.com/pscheid92/djmonitor/internal/broadcast"
	"github.com/pscheid92/djmonitor/internal/configstore"
	"github.com/pscheid92/djmonitor/internal/platform/config"
	"github.com/pscheid92/djmonitor/internal/platform/logging"
)

func runGracefulShutdown(cfg *config.Config, srv *httpserver.Server, appSvc *app.Service, hub *broadcast.Hub, mirror *redis.Mirror) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()

		// Flush the last mirror write before the Redis client goes away.
		appSvc.Close()
		if mirror != nil {
			if err := mirror.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStore(cfg *config.Config) (*configstore.Store, *configstore.FilePersister) {
	persister := configstore.NewFilePersister(cfg.ConfigFile)
	store, err := configstore.Open(persister)
	if err != nil {
		slog.Error("Failed to load publication state", "path", persister.Path(), "error", err)
		os.Exit(1)
	}
	return store, persister
}

// setupMirror returns nil when REDIS_URL is unset.
func setupMirror(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) *redis.Mirror {
	if cfg.RedisURL == "" {
		return nil
	}

	m := metrics.NewRedisMetrics(reg)
	client, err := redis.NewClient(ctx, cfg.RedisURL, redis.NewMetricsHook(m), redis.NewCircuitBreakerHook(m))
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return redis.NewMirror(client)
}

func healthChecks(persister *configstore.FilePersister, hub *broadcast.Hub, mirror *redis.Mirror) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{
		{Name: "config_store", Check: persister.CheckWritable},
		{Name: "hub", Check: func(context.Context) error {
			if hub.ClientCount() < 0 {
				return errors.New("hub not responding")
			}
			return nil
		}},
	}
	if mirror != nil {
		checks = append(checks, httpserver.HealthCheck{Name: "redis", Check: mirror.Ping})
	}
	return checks
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "config_file", cfg.ConfigFile)

	registry := metrics.NewRegistry()

	store, persister := setupStore(cfg)

	hub := broadcast.NewHub(store, clock, broadcast.Options{
		MaxClients:  cfg.MaxWebSocketConnections,
		SendTimeout: cfg.WebSocketSendTimeout,
		Metrics:     metrics.NewHubMetrics(registry),
	})

	opts := []app.Option{app.WithMetrics(metrics.NewCommandMetrics(registry))}
	mirror := setupMirror(context.Background(), cfg, registry)
	if mirror != nil {
		opts = append(opts, app.WithMirror(mirror))
	}
	appSvc := app.NewService(store, hub, clock, cfg.Location(), opts...)

	srv := httpserver.NewServer(cfg, appSvc, hub, clock,
		httpserver.WithMetrics(metrics.Handler(registry), metrics.NewHTTPMetrics(registry)),
		httpserver.WithHealthChecks(healthChecks(persister, hub, mirror)...),
	)

	done := runGracefulShutdown(cfg, srv, appSvc, hub, mirror)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
