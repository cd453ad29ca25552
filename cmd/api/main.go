// Package main is the entrypoint for the user profile API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spotlight/userprofile/internal/auth"
	"github.com/spotlight/userprofile/internal/cache"
	"github.com/spotlight/userprofile/internal/config"
	"github.com/spotlight/userprofile/internal/events"
	"github.com/spotlight/userprofile/internal/handler"
	"github.com/spotlight/userprofile/internal/metrics"
	"github.com/spotlight/userprofile/internal/middleware"
	"github.com/spotlight/userprofile/internal/repository"
	"github.com/spotlight/userprofile/internal/server"
	"github.com/spotlight/userprofile/internal/service"
)

// authMinDuration pads failed and uncached key checks.
const authMinDuration = 50 * time.Millisecond

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	keyring, err := auth.NewKeyring(cfg.APIKeys)
	if err != nil {
		logger.Error("failed to load API keys", "error", err)
		os.Exit(1)
	}
	if keyring.Len() == 0 {
		logger.Warn("API_KEYS is empty, authentication disabled")
	}

	var shutdownHooks []namedHook

	// Profile store
	var (
		store        service.ProfileStore
		storeChecker handler.HealthChecker
		repo         *repository.Repository
	)
	if cfg.UseMemoryStore() {
		mem := repository.NewMemoryStore()
		store, storeChecker = mem, mem
		logger.Warn("using in-memory profile store, data is lost on restart")
	} else {
		repo, err = repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			logger.Error("failed to migrate database", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			os.Exit(1)
		}
		store, storeChecker = repo, repo
		shutdownHooks = append(shutdownHooks, namedHook{"postgres", func(context.Context) error {
			repo.Close()
			return nil
		}})
		logger.Info("connected to database")
	}

	metricsRecorder := metrics.NewInMemory()

	opts := []service.Option{
		service.WithMetrics(metricsRecorder),
		service.WithLogger(logger),
	}

	// Redis is optional; a literal nil keeps the readiness check "not configured".
	var (
		cacheChecker    handler.HealthChecker
		activityHandler *handler.ActivityHandler
	)
	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL, cfg.ProfileCacheTTL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		cacheChecker = cacheClient
		opts = append(opts, service.WithCache(cacheClient))
		shutdownHooks = append(shutdownHooks, namedHook{"redis", func(context.Context) error {
			return cacheClient.Close()
		}})
		logger.Info("connected to Redis", slog.Duration("profile_ttl", cfg.ProfileCacheTTL))

		if cfg.DistributedLockEnabled {
			opts = append(opts, service.WithLocker(cacheClient.NewLocker(cfg.LockTTL)))
			logger.Info("distributed profile lock enabled", slog.Duration("lock_ttl", cfg.LockTTL))
		}
		if cfg.EventsEnabled {
			opts = append(opts, service.WithPublisher(events.NewPublisher(cacheClient.Client(), logger, metricsRecorder)))
			logger.Info("profile change events enabled", slog.String("stream", events.StreamKey))
		}
		if cfg.ActivityEnabled && repo != nil {
			activityService := service.NewActivityService(repo, logger)
			consumer := events.NewConsumer(cacheClient.Client(), activityService, logger, events.NewConsumerID(), metricsRecorder)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("activity consumer stopped", "error", err)
				}
			}()
			shutdownHooks = append(shutdownHooks, namedHook{"activity-consumer", consumer.Shutdown})
			activityHandler = handler.NewActivityHandler(activityService, logger)
			logger.Info("activity consumer enabled", slog.String("group", events.ConsumerGroup))
		}
	}

	profileService := service.NewProfileService(store, opts...)

	r := setupRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		keyring:  keyring,
		profiles: handler.NewProfileHandler(profileService, logger, cfg.MaxBatchSize),
		activity: activityHandler,
		health:   handler.NewHealthHandler(storeChecker, cacheChecker),
		metrics:  handler.NewMetricsHandler(metricsRecorder),
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, hook := range shutdownHooks {
		srv.OnShutdown(hook.name, hook.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreBackend,
		"auth_keys", keyring.Len(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type namedHook struct {
	name string
	fn   server.ShutdownFunc
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "userprofile")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	keyring  *auth.Keyring
	profiles *handler.ProfileHandler
	activity *handler.ActivityHandler // nil when the activity consumer is off
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: deps.cfg.IsDevelopment()}))

	// Probes and metrics stay unauthenticated.
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))
		if deps.keyring.Len() > 0 {
			r.Use(middleware.Auth(middleware.AuthConfig{
				Logger:      deps.logger,
				Keyring:     deps.keyring,
				MinDuration: authMinDuration,
			}))
		}

		r.Route("/users/{userId}/profile", func(r chi.Router) {
			r.Get("/", deps.profiles.Get)
			r.Post("/command", deps.profiles.Command)
			r.Post("/commands", deps.profiles.Commands)
			if deps.activity != nil {
				r.Get("/activity", deps.activity.Get)
			}
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
