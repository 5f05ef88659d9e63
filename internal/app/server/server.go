package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"companygrow/internal/domain/audit"
	"companygrow/internal/domain/auth"
	"companygrow/internal/domain/catalog"
	"companygrow/internal/domain/notifications"
	"companygrow/internal/domain/performance"
	"companygrow/internal/domain/projects"
	"companygrow/internal/domain/reports"
	"companygrow/internal/domain/users"
	"companygrow/internal/platform/config"
	"companygrow/internal/platform/db"
	"companygrow/internal/platform/email"
	"companygrow/internal/platform/metrics"
	"companygrow/internal/transport/http/api"
	audithandler "companygrow/internal/transport/http/handlers/audit"
	authhandler "companygrow/internal/transport/http/handlers/auth"
	coursehandler "companygrow/internal/transport/http/handlers/courses"
	notificationhandler "companygrow/internal/transport/http/handlers/notifications"
	projecthandler "companygrow/internal/transport/http/handlers/projects"
	reporthandler "companygrow/internal/transport/http/handlers/reports"
	userhandler "companygrow/internal/transport/http/handlers/users"
	"companygrow/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Metrics *metrics.Collector
}

// New connects to the database, runs migrations and seeding when enabled,
// and assembles the router. The returned App is ready to serve.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	app := &App{Config: cfg, DB: pool, Metrics: metrics.New()}
	app.Router = app.buildRouter()
	return app, nil
}

func (a *App) buildRouter() http.Handler {
	cfg := a.Config

	authStore := auth.NewStore(a.DB)
	perfStore := performance.NewStore(a.DB)
	catalogStore := catalog.NewStore(a.DB, perfStore)
	catalogSvc := catalog.NewService(catalogStore)
	userStore := users.NewStore(a.DB)
	userSvc := users.NewService(userStore)
	projectStore := projects.NewStore(a.DB, perfStore)
	notificationSvc := notifications.New(notifications.NewStore(a.DB), email.New(cfg), cfg.EmailEnabled, cfg.EmailFrom)
	auditSvc := audit.New(a.DB)
	reportSvc := reports.NewService(reports.NewStore(a.DB), cfg.ReportsDir)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Logger)
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(a.Metrics))
	}
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.With(middleware.RequirePermission(auth.PermAuditRead, authStore)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.LoginRateLimit(10, time.Minute))
			authhandler.NewHandler(authStore, cfg.JWTSecret).RegisterRoutes(r)
		})
		r.Route("/course", func(r chi.Router) {
			coursehandler.NewHandler(catalogSvc, notificationSvc, auditSvc, authStore).RegisterRoutes(r)
		})
		r.Route("/user", func(r chi.Router) {
			userhandler.NewHandler(userSvc, catalogSvc, perfStore, projectStore, auditSvc, authStore).RegisterRoutes(r)
		})
		r.Route("/project", func(r chi.Router) {
			projecthandler.NewHandler(projectStore, notificationSvc, auditSvc, authStore).RegisterRoutes(r)
		})
		r.Route("/reports", func(r chi.Router) {
			reporthandler.NewHandler(reportSvc, authStore).RegisterRoutes(r)
		})
		r.Route("/notifications", func(r chi.Router) {
			notificationhandler.NewHandler(notificationSvc).RegisterRoutes(r)
		})
		r.Route("/audit", func(r chi.Router) {
			audithandler.NewHandler(auditSvc, authStore).RegisterRoutes(r)
		})
	})

	return router
}

// Run blocks serving HTTP until the listener fails.
func (a *App) Run() error {
	log.Printf("companygrow server listening on %s", a.Config.Addr)
	server := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

func (a *App) Close() {
	a.DB.Close()
}
