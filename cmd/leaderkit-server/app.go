package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"leaderkit/adapters/jsonfile"
	mem "leaderkit/adapters/memory"
	redisAdapter "leaderkit/adapters/redis"
	sqlxAdapter "leaderkit/adapters/sqlx"
	"leaderkit/api/httpapi"
	"leaderkit/config"
	"leaderkit/engine"
	"leaderkit/integrations/webhook"
	"leaderkit/leader"
	"leaderkit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Service *engine.LeaderboardService
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideCache(cfg *config.Config) (engine.ScoreCache, error) {
	return setupCache(cfg)
}

func provideStore(cfg *config.Config) (engine.ScoreStore, error) {
	return setupStore(cfg)
}

func provideService(hub *realtime.Hub, cache engine.ScoreCache, store engine.ScoreStore, cfg *config.Config) *engine.LeaderboardService {
	opts := []leader.Option{
		leader.WithRealtime(hub),
		leader.WithCache(cache),
		leader.WithStore(store),
		leader.WithDispatchMode(engine.DispatchAsync),
		leader.WithTopN(cfg.Leaderboard.TopN),
	}
	if len(cfg.Webhooks) > 0 {
		opts = append(opts, leader.WithWebhooks(webhook.New(cfg.Webhooks)))
	}
	return leader.New(opts...)
}

func provideHandler(svc *engine.LeaderboardService, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
		DefaultLimit:     cfg.Leaderboard.TopN,
		MaxLimit:         cfg.Leaderboard.MaxLimit,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupCache creates the ranked cache adapter based on configuration.
func setupCache(cfg *config.Config) (engine.ScoreCache, error) {
	switch cfg.Storage.CacheAdapter {
	case "memory":
		return mem.NewCache(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	default:
		return nil, fmt.Errorf("unknown cache adapter: %s", cfg.Storage.CacheAdapter)
	}
}

// setupStore creates the durable store adapter based on configuration.
func setupStore(cfg *config.Config) (engine.ScoreStore, error) {
	switch cfg.Storage.StoreAdapter {
	case "memory":
		return mem.NewStore(), nil
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown store adapter: %s", cfg.Storage.StoreAdapter)
	}
}
