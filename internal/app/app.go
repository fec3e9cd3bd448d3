// Package app assembles the service: configuration, logging, telemetry,
// the analytics pipeline and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"tradepulse/internal/config"
	apierrors "tradepulse/internal/errors"
	"tradepulse/internal/exporter"
	"tradepulse/internal/infrastructure"
	custommiddleware "tradepulse/internal/middleware"
	"tradepulse/internal/registry"
	"tradepulse/internal/services"
	transporthttp "tradepulse/internal/transport/http"
	"tradepulse/internal/websocket"
)

// App is the composed application.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	Hub       *websocket.Hub
	Service   *services.AnalyticsService
	Server    *http.Server
}

// New builds the application from configuration. Components are wired in
// dependency order; any failure aborts startup.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds the application from an already-loaded config.
func NewWithConfig(cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	telemetry, err := infrastructure.InitializeTelemetry(logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	hub := websocket.NewHub(logger, originChecker(cfg.Security.AllowedOrigins))

	reg := registry.NewDirRegistry(cfg.Paths.DataDir, cfg.Analytics.AccountPrefix)
	service := services.NewAnalyticsService(reg, logger, hub, telemetry)

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Telemetry: telemetry,
		Hub:       hub,
		Service:   service,
	}

	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.setupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// setupRouter builds the middleware chain and mounts the API.
func (a *App) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(custommiddleware.RealIP)
	r.Use(custommiddleware.StructuredLogger(a.Logger))
	r.Use(custommiddleware.Recoverer(a.Logger))
	r.Use(custommiddleware.SecurityHeaders)
	if a.Config.Security.EnableCORS {
		r.Use(custommiddleware.CORS(a.Config.Security.AllowedOrigins))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(custommiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}
	r.Use(custommiddleware.Compress(5))

	errorHandler := apierrors.NewErrorHandler(a.Logger)
	excelWriter := exporter.NewExcelWriter(a.Config.Paths.ReportsDir, a.Logger)
	analyticsHandler := transporthttp.NewAnalyticsHandler(
		a.Service, excelWriter, a.Config.Paths.ReportsDir, a.Logger, errorHandler)
	healthHandler := transporthttp.NewHealthHandler()

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
		r.Mount("/analytics", analyticsHandler.Routes())
	})

	r.Handle("/metrics", a.Telemetry.PrometheusHTTP)
	r.Get("/ws", a.Hub.ServeHTTP)

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled or a
// termination signal arrives, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server starting",
			slog.String("addr", a.Server.Addr),
			slog.String("data_dir", a.Config.Paths.DataDir),
		)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown stops the server, websocket hub and telemetry within the
// configured timeout.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	a.Hub.Close()
	if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	infrastructure.CloseLogFile()

	return errors.Join(errs...)
}

// originChecker builds the websocket origin check from the CORS list. An
// empty list allows every origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	allowAll := false
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
