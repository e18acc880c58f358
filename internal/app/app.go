package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"figflow/internal/config"
	apierrors "figflow/internal/errors"
	"figflow/internal/infrastructure"
	custommw "figflow/internal/middleware"
	"figflow/internal/nace"
	"figflow/internal/services"
	handlers "figflow/internal/transport/http"
)

// Application is the assembled service: configuration, logger, telemetry,
// the flow service and the HTTP server.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	FlowService   *services.FlowService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	errorHandler *apierrors.ErrorHandler
}

// NewApplication builds the application from configuration. The returned
// application has not loaded any data yet; Run performs the initial load
// before accepting traffic.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("service", infrastructure.ServiceName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.String("exports", cfg.Data.ExportsPath()),
		slog.String("imports", cfg.Data.ImportsPath()))

	providers, err := infrastructure.InitializeOTel(logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		FlowService:   services.NewFlowService(cfg, nace.NewHierarchy(), logger),
		Logger:        logger,
		OTelProviders: providers,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
	}
	app.setupRouter()

	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// setupRouter configures the HTTP router. Middleware order: request ID
// first so every later log line carries it, then logging, then recovery,
// then rate limiting.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))

	if a.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	flowsHandler := handlers.NewFlowsHandler(
		a.FlowService,
		a.Config.Graph.DefaultLevel,
		a.Logger,
		a.errorHandler,
	)
	healthHandler := handlers.NewHealthHandler(a.FlowService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout))

		r.Mount("/flows", flowsHandler.Routes())

		r.Route("/health", func(r chi.Router) {
			r.Get("/", healthHandler.HealthCheck)
			r.Get("/ready", healthHandler.ReadinessCheck)
			r.Get("/live", healthHandler.LivenessCheck)
		})
		r.Get("/version", healthHandler.Version)
	})

	r.Method(http.MethodGet, "/metrics", a.OTelProviders.PrometheusHTTP)

	a.Router = r
}

// Run performs the initial load and serves HTTP until ctx is cancelled.
// A failed initial load is fatal: a server with no snapshot can answer
// nothing useful, and a supervisor restart is the right recovery.
func (a *Application) Run(ctx context.Context) error {
	loadStart := time.Now()
	if err := a.FlowService.Reload(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	a.Logger.Info("initial snapshot loaded",
		slog.String("snapshot_id", a.FlowService.SnapshotID()),
		slog.Duration("elapsed", time.Since(loadStart)))

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server started", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server and flushes telemetry and log output.
func (a *Application) Shutdown(ctx context.Context) error {
	var firstErr error

	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error("server shutdown failed", slog.String("error", err.Error()))
		firstErr = err
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	infrastructure.CloseLogFile()

	a.Logger.Info("application stopped")
	return firstErr
}
