package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Yaasiin-15/StudyDash-sub001/config"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/application/command"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/application/query"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/progress"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/messaging"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/bolt"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/kv"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/postgres"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/projections"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/redis"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/infrastructure/persistence/userstore"
	"github.com/Yaasiin-15/StudyDash-sub001/internal/interface/cli"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/circuitbreaker"
	"github.com/Yaasiin-15/StudyDash-sub001/pkg/logger"
)

// buildApp wires configuration, logging, storage and handlers.
func buildApp(ctx context.Context, opts cli.Options) (*cli.App, error) {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Debug("starting studydash",
		"env", cfg.App.Environment,
		"backend", cfg.Store.Backend,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	backend, redisCache, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	store := userstore.New(backend, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENTS AND READ MODELS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log.With(logger.Component("eventbus"))
	bus := messaging.NewInMemoryEventBus(busCfg)

	view := projections.NewRollupView(store, log)
	if err := bus.Subscribe(shared.EventUserPurged, view.HandleEvent); err != nil {
		return nil, errors.Join(err, closeBackend())
	}

	if cfg.Notifications.PublishToRedis && redisCache != nil {
		forwarder := redis.NewEventForwarder(redisCache, log.With(logger.Component("forwarder")))
		if err := forwarder.Register(bus, shared.EventLevelUp, shared.EventUserPurged); err != nil {
			return nil, errors.Join(err, closeBackend())
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	commands := command.NewHandler(store, bus, command.HandlerConfig{
		Rule:   progress.NewRule(cfg.Leveling.CompletionXP),
		Logger: log,
	})
	queries := query.NewHandler(store, view)

	return &cli.App{
		Commands:    commands,
		Queries:     queries,
		Store:       store,
		DefaultUser: cfg.App.DefaultUser,
		Close: func() error {
			err := errors.Join(bus.Close(), closeBackend())
			log.Debug("shutdown", runtimeStats(bus, view)...)
			return err
		},
	}, nil
}

// openBackend returns the configured kv.Backend. The redis cache is returned
// separately so the event forwarder can share its client.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (kv.Backend, *redis.Cache, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case config.BackendMemory:
		log.Warn("memory backend selected, nothing will be persisted")
		return kv.NewMemory(), nil, noop, nil

	case config.BackendBolt:
		boltCfg := bolt.DefaultConfig()
		boltCfg.Path = cfg.Store.BoltPath
		boltCfg.OpenTimeout = cfg.Store.OpenTimeout
		s, err := bolt.Open(boltCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return s, nil, s.Close, nil

	case config.BackendRedis:
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.KeyPrefix = cfg.Redis.KeyPrefix
		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s := redis.NewStore(cache, log.With(logger.Component("redis")))
		return guard(s, "redis", log), cache, s.Close, nil

	case config.BackendPostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Database.URL
		pgCfg.Host = cfg.Database.Host
		pgCfg.Port = cfg.Database.Port
		pgCfg.Database = cfg.Database.Name
		pgCfg.User = cfg.Database.User
		pgCfg.Password = cfg.Database.Password
		pgCfg.SSLMode = cfg.Database.SSLMode
		pgCfg.MaxConns = cfg.Database.MaxConns
		pgCfg.ConnectTimeout = cfg.Database.ConnectTimeout

		conn, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closeConn := func() error { conn.Close(); return nil }

		if cfg.Database.AutoMigrate {
			applied, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				conn.Close()
				return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			if applied > 0 {
				log.Info("migrations applied", "count", applied)
			}
		}
		s := postgres.NewStore(conn, log.With(logger.Component("postgres")))
		return guard(s, "postgres", log), nil, closeConn, nil
	}

	return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// guard puts a circuit breaker in front of a remote backend.
func guard(backend kv.Backend, name string, log *slog.Logger) kv.Backend {
	cfg := circuitbreaker.BackendConfig(name)
	cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}
	return kv.NewGuarded(backend, circuitbreaker.New(cfg))
}

// runtimeStats summarizes event delivery and rollup cache use for the
// shutdown log line.
func runtimeStats(bus *messaging.InMemoryEventBus, view *projections.RollupView) []any {
	cache := view.Stats()
	attrs := []any{
		"rollup_users", cache.Users,
		"rollup_hits", cache.Hits,
		"rollup_misses", cache.Misses,
	}
	if m := bus.Metrics(); m != nil {
		snap := m.Snapshot()
		attrs = append(attrs,
			"events_published", snap.TotalPublished,
			"handler_failures", snap.HandlerFailures,
		)
	}
	return attrs
}

// setupLogger creates the root logger. Logs go to stderr so command output
// on stdout stays machine-readable.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Output = os.Stderr
	opts.Level = cfg.Observability.LogLevel
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	if cfg.App.Debug {
		opts.Level = "debug"
		opts.AddSource = true
	}
	if cfg.IsProduction() {
		opts.Format = logger.FormatJSON
	}
	return logger.New(opts).With("app", cfg.App.Name)
}
