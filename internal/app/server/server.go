package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/core"
	"appraisal/internal/domain/cycle"
	"appraisal/internal/domain/evaluation"
	"appraisal/internal/domain/matrix"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/domain/org"
	"appraisal/internal/platform/cache"
	"appraisal/internal/platform/config"
	"appraisal/internal/platform/db"
	"appraisal/internal/platform/jobs"
	"appraisal/internal/platform/metrics"
	audithandler "appraisal/internal/transport/http/handlers/audit"
	authhandler "appraisal/internal/transport/http/handlers/auth"
	corehandler "appraisal/internal/transport/http/handlers/core"
	cyclehandler "appraisal/internal/transport/http/handlers/cycle"
	evaluationhandler "appraisal/internal/transport/http/handlers/evaluation"
	jobshandler "appraisal/internal/transport/http/handlers/jobs"
	matrixhandler "appraisal/internal/transport/http/handlers/matrix"
	notificationshandler "appraisal/internal/transport/http/handlers/notifications"
	orghandler "appraisal/internal/transport/http/handlers/org"
	"appraisal/internal/transport/http/middleware"
)

const rateLimitWindow = time.Minute

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	closers []func()
}

// New connects to the database, prepares it and wires every route.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool, closers: []func(){pool.Close}}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	catalog, err := newCache(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	if closer, ok := catalog.(interface{ Close() error }); ok {
		app.closers = append(app.closers, func() { _ = closer.Close() })
	}

	app.Metrics = metrics.New()
	app.Jobs = jobs.New(pool, app.Metrics)
	app.Router = app.routes(pool, catalog)
	return app, nil
}

func newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.RedisURL == "" {
		return cache.Noop{}, nil
	}
	client, err := cache.NewRedis(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		slog.Warn("redis unavailable, catalog cache disabled", "err", err)
		_ = client.Close()
		return cache.Noop{}, nil
	}
	return client, nil
}

func (a *App) routes(pool *pgxpool.Pool, catalog cache.Cache) http.Handler {
	cfg := a.Config

	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	auditService := audit.New(pool)
	notifyService := notifications.New(notifications.NewStore(pool))
	orgService := org.NewService(org.NewStore(pool))
	coreService := core.NewService(core.NewStore(pool))
	matrixService := matrix.NewService(matrix.NewStore(pool), catalog, cfg.CacheTTL, a.Metrics)
	cycleService := cycle.NewService(cycle.NewStore(pool), notifyService, a.Metrics)
	evaluationService := evaluation.NewService(evaluation.NewStore(pool), notifyService, a.Metrics)

	if cfg.ReminderSchedule != "" {
		if err := a.Jobs.ScheduleReminders(cfg.ReminderSchedule, cycleService, cfg.ReminderWindow); err != nil {
			slog.Error("reminder schedule rejected", "schedule", cfg.ReminderSchedule, "err", err)
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger)
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(authService))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, rateLimitWindow))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, rateLimitWindow))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", a.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authService, auditService).RegisterRoutes(r)
		orghandler.NewHandler(orgService, authService, auditService).RegisterRoutes(r)
		corehandler.NewHandler(coreService, authService, auditService).RegisterRoutes(r)
		matrixhandler.NewHandler(matrixService, authService, auditService).RegisterRoutes(r)
		cyclehandler.NewHandler(cycleService, evaluationService, authService, auditService).RegisterRoutes(r)
		evaluationhandler.NewHandler(evaluationService, authService, auditService).RegisterRoutes(r)
		notificationshandler.NewHandler(notifyService).RegisterRoutes(r)
		audithandler.NewHandler(auditService, authService).RegisterRoutes(r)
		jobshandler.NewHandler(a.Jobs, cycleService, cfg.ReminderWindow, authService).RegisterRoutes(r)
	})

	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("appraisal server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
