// Package app assembles the gateway from configuration and owns the lifetime
// of every client it opens.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/auth-gateway/internal/api"
	"github.com/99minutos/auth-gateway/internal/api/handler"
	"github.com/99minutos/auth-gateway/internal/core/ports"
	"github.com/99minutos/auth-gateway/internal/core/service"
	"github.com/99minutos/auth-gateway/internal/infrastructure/db/memory"
	"github.com/99minutos/auth-gateway/internal/infrastructure/db/mongo"
	"github.com/99minutos/auth-gateway/internal/infrastructure/db/postgres"
	"github.com/99minutos/auth-gateway/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-gateway/internal/infrastructure/queue"
	"github.com/99minutos/auth-gateway/internal/infrastructure/security"
	"github.com/99minutos/auth-gateway/internal/infrastructure/ws"
	"github.com/99minutos/auth-gateway/internal/pkg/config"
)

// App is the running gateway.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	echo       *echo.Echo
	registry   *service.ConnectionRegistry
	dispatcher *queue.Dispatcher

	rdb   *goredis.Client
	mongo *gomongo.Client

	closers []func(context.Context) error
}

type stores struct {
	users  ports.UserRepository
	notes  ports.NoteRepository
	checks []handler.DependencyCheck
}

// New connects every backing service named by cfg and wires the HTTP surface.
// On error, whatever was opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if a.needsRedis() {
		a.rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return a.rdb.Close() })
	}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	tokens, err := security.NewJWTService(security.TokenConfig{
		Secret:    []byte(cfg.Auth.JWTSecret),
		Algorithm: cfg.Auth.Algorithm,
		TTL:       cfg.TokenTTL(),
		Leeway:    cfg.Leeway(),
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	authService := service.NewAuthService(st.users, hasher, tokens, log)
	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return nil, fmt.Errorf("app: seed admin: %w", err)
		}
	}

	var counter ports.RateCounterStore
	if cfg.RateLimit.Store == config.RateStoreMemory {
		counter = memory.NewRateCounter()
	} else {
		counter = redis.NewRateCounter(a.rdb)
	}
	limiter := service.NewFixedWindowLimiter(counter, service.RateLimitConfig{
		MaxRequests: cfg.RateLimit.Requests,
		Window:      cfg.RateLimit.Window,
		KeyPrefix:   cfg.RateLimit.Prefix,
		FailOpen:    cfg.RateLimit.FailOpen,
	}, log)

	var (
		noteCache ports.NoteCache
		dedup     service.TaskDedup
	)
	if a.rdb != nil {
		noteCache = redis.NewNoteCache(a.rdb, cfg.Notes.CachePrefix, cfg.Notes.CacheTTL)
		dedup = redis.NewDedupChecker(a.rdb)
	}
	noteService := service.NewNoteService(st.notes, noteCache, log)

	taskService := service.NewTaskService(service.NewLogEmailSender(cfg.Tasks.SendDelay, log), dedup, log)
	a.dispatcher = queue.NewDispatcher(cfg.Tasks.Workers, taskService, log)

	a.registry = service.NewConnectionRegistry(cfg.WS.SendTimeout, log)

	a.echo = api.NewRouter(api.Dependencies{
		Log:     log,
		Auth:    authService,
		Guard:   service.NewAuthorizationGuard(tokens, st.users),
		Limiter: limiter,
		Notes:   noteService,
		Tasks:   a.dispatcher,
		Hub:     a.registry,
		Chat: handler.ChatOptions{
			Accept: ws.AcceptOptions{
				OriginPatterns: cfg.WS.AllowedOrigins,
				ReadLimit:      cfg.WS.ReadLimitBytes,
			},
			MessagesPerSecond: cfg.WS.MessagesPerSecond,
			MessageBurst:      cfg.WS.MessageBurst,
		},
		WSRequireAuth: cfg.WS.RequireAuth,
		TrustProxy:    cfg.TrustProxy,
		Readiness:     st.checks,
	})
	return a, nil
}

// needsRedis reports whether any component is backed by Redis. With the
// memory rate store and memory repositories the gateway runs standalone.
func (a *App) needsRedis() bool {
	return a.cfg.RateLimit.Store == config.RateStoreRedis || a.cfg.Store.Driver != config.StoreMemory
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	var st stores
	if a.rdb != nil {
		st.checks = append(st.checks, handler.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() },
		})
	}

	switch a.cfg.Store.Driver {
	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: a.cfg.Mongo.URI, Database: a.cfg.Mongo.Database})
		if err != nil {
			return st, fmt.Errorf("app: %w", err)
		}
		a.mongo = client
		a.closers = append(a.closers, a.mongo.Disconnect)
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			return st, fmt.Errorf("app: %w", err)
		}
		st.users = mongo.NewUserRepository(db)
		st.notes = mongo.NewNoteRepository(db)
		st.checks = append(st.checks, handler.DependencyCheck{
			Name: "mongodb",
			Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
		})

	case config.StorePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: a.cfg.Postgres.DSN})
		if err != nil {
			return st, fmt.Errorf("app: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return postgres.Close(db) })
		st.users = postgres.NewUserRepository(db)
		st.notes = postgres.NewNoteRepository(db)
		st.checks = append(st.checks, handler.DependencyCheck{
			Name: "postgres",
			Ping: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		})

	case config.StoreMemory:
		a.log.Warn().Msg("using in-memory user and note stores, data is lost on restart")
		st.users = memory.NewUserRepository()
		st.notes = memory.NewNoteRepository()

	default:
		return st, fmt.Errorf("app: unknown store driver %q", a.cfg.Store.Driver)
	}
	return st, nil
}

// Handler exposes the HTTP surface, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.echo
}

// Run serves HTTP and runs the task workers until ctx is cancelled, then shuts
// the server down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	a.dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		a.dispatcher.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Str("store", a.cfg.Store.Driver).Msg("gateway listening")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by http.Server.Shutdown.
	if err := a.registry.Close(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("closing websocket connections")
	}
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the backing clients in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
