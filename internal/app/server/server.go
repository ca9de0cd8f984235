package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timetracker/internal/domain/audit"
	"timetracker/internal/domain/auth"
	"timetracker/internal/domain/core"
	"timetracker/internal/domain/notifications"
	"timetracker/internal/domain/reminder"
	"timetracker/internal/domain/timesheet"
	"timetracker/internal/platform/config"
	"timetracker/internal/platform/db"
	"timetracker/internal/platform/email"
	"timetracker/internal/platform/jobs"
	"timetracker/internal/platform/metrics"
	audithandler "timetracker/internal/transport/http/handlers/audit"
	authhandler "timetracker/internal/transport/http/handlers/auth"
	corehandler "timetracker/internal/transport/http/handlers/core"
	notificationshandler "timetracker/internal/transport/http/handlers/notifications"
	reportshandler "timetracker/internal/transport/http/handlers/reports"
	settingshandler "timetracker/internal/transport/http/handlers/settings"
	timesheethandler "timetracker/internal/transport/http/handlers/timesheet"
	"timetracker/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service

	cancel context.CancelFunc
}

// New wires the full application: database, schedulers, background jobs
// and the HTTP router. Callers own the returned App and must Close it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	if cfg.RunMigrations {
		dir, err := migrationsDir()
		if err != nil {
			cancel()
			pool.Close()
			return nil, err
		}
		if err := db.Migrate(ctx, pool, dir); err != nil {
			cancel()
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			cancel()
			pool.Close()
			return nil, err
		}
	}

	collector := metrics.New()
	businessLoc := cfg.BusinessLocation()

	coreStore := core.NewStore(pool)
	auditSvc := audit.New(pool)
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg))

	timesheetStore := timesheet.NewStore(pool)
	timesheetSvc := timesheet.NewService(timesheetStore, coreStore, notifySvc, auditSvc)
	coreSvc := core.NewService(coreStore, timesheetSvc)

	reminderStore := reminder.NewStore(pool)
	submissionSched := &reminder.SubmissionScheduler{
		Store:    reminderStore,
		Dir:      coreStore,
		Notify:   notifySvc,
		Location: businessLoc,
	}
	expirationSched := &reminder.ExpirationScheduler{
		Settings: reminderStore,
		Store:    reminderStore,
		Notify:   notifySvc,
	}

	jobsSvc := jobs.New(pool, cfg, submissionSched, expirationSched, collector)
	jobsSvc.Start(ctx)

	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Observe(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

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
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authSvc)
		r.Post("/auth/login", authHandler.HandleLogin)

		timesheethandler.NewHandler(timesheetSvc, coreStore, businessLoc).RegisterRoutes(r)
		corehandler.NewHandler(coreStore, coreSvc, auditSvc).RegisterRoutes(r)
		settingshandler.NewHandler(reminderStore, auditSvc, jobsSvc).RegisterRoutes(r)
		reportshandler.NewHandler(coreStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	return &App{
		Config: cfg,
		DB:     pool,
		Router: router,
		Jobs:   jobsSvc,
		cancel: cancel,
	}, nil
}

func (a *App) Close() {
	a.cancel()
	a.DB.Close()
}

func Run() {
	cfg := config.Load()

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("timetracker server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// migrationsDir walks up from the working directory until it finds the
// migrations folder, so migrations resolve both from the repo root and
// from package directories during tests.
func migrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("migrations directory not found")
		}
		dir = parent
	}
}
