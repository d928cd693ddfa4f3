// Command authkitd serves the session-manager HTTP API. It wires the
// identity provider, billing, profile and shadow stores into a single
// manager and exposes it through the authapi module.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/barakahq/authkit/modules/authapi"
	"github.com/barakahq/authkit/pkg/authstate"
	"github.com/barakahq/authkit/pkg/billing"
	"github.com/barakahq/authkit/pkg/config"
	"github.com/barakahq/authkit/pkg/httpserver"
	"github.com/barakahq/authkit/pkg/identity"
	"github.com/barakahq/authkit/pkg/logger"
	"github.com/barakahq/authkit/pkg/pg"
	"github.com/barakahq/authkit/pkg/profiles"
	redisconn "github.com/barakahq/authkit/pkg/redis"
	"github.com/barakahq/authkit/pkg/shadow"
)

type appConfig struct {
	Auth authstate.Config
	HTTP httpserver.Config
	Log  logger.Config

	// Postgres and Redis are opt-in; their connection settings are loaded
	// separately so that required variables only bind when enabled.
	UsePostgres bool `env:"AUTHKITD_USE_POSTGRES" envDefault:"false"`
	UseRedis    bool `env:"AUTHKITD_USE_REDIS" envDefault:"false"`

	// ProviderURL selects the hosted identity backend; when empty the
	// self-contained local provider is used.
	ProviderURL string `env:"AUTH_PROVIDER_URL"`
	ProviderKey string `env:"AUTH_PROVIDER_KEY"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("authkitd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewFromConfig(cfg.Log, logger.WithAttr(slog.String("app", "authkitd")))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var provider identity.Provider
	if cfg.ProviderURL != "" {
		provider = identity.NewHTTPProvider(cfg.ProviderURL, cfg.ProviderKey)
	} else {
		log.Warn("no provider URL configured, using the local in-memory provider")
		provider = identity.NewLocalProvider(identity.WithAutoConfirm())
	}

	profileStore := profiles.Store(profiles.NewMemoryStore())
	checker := billing.StatusChecker(billing.StaticChecker{})
	var readiness []func(context.Context) error

	if cfg.UsePostgres {
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return fmt.Errorf("load postgres config: %w", err)
		}

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		profileStore = profiles.NewPostgresStore(pool)
		checker = billing.NewPostgresChecker(pool, billing.WithLogger(log))
		readiness = append(readiness, pg.Healthcheck(pool))
	}

	var shadowStore shadow.Store
	if cfg.UseRedis {
		var redisCfg redisconn.Config
		if err := config.Load(&redisCfg); err != nil {
			return fmt.Errorf("load redis config: %w", err)
		}

		client, err := redisconn.Connect(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = client.Close() }()

		shadowStore = shadow.NewRedisStore(client)
		readiness = append(readiness, redisconn.Healthcheck(client))
	} else {
		fileStore, err := shadow.NewDefaultFileStore()
		if err != nil {
			return fmt.Errorf("create shadow store: %w", err)
		}
		shadowStore = fileStore
	}

	recorder := authapi.NewRouteRecorder()
	mgr, err := authstate.New(provider, checker, profileStore, shadowStore,
		authstate.WithConfig(cfg.Auth),
		authstate.WithLogger(log),
		authstate.WithNavigator(recorder),
	)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}
	defer func() { _ = mgr.Close() }()

	mgr.Initialize(ctx)
	go mgr.Run(ctx)

	svc := authapi.NewService(mgr,
		authapi.WithLogger(log),
		authapi.WithRouteRecorder(recorder),
	)

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, readiness...))
	r.Mount("/api/auth", authapi.Router(authapi.RouterOptions{Session: svc}))

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}
