// Package app wires the application together: configuration, logging,
// observability, services, routes, and the HTTP server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"tabcli/internal/config"
	"tabcli/internal/errors"
	"tabcli/internal/infrastructure"
	custommw "tabcli/internal/middleware"
	"tabcli/internal/services"
	"tabcli/internal/session"
	handlers "tabcli/internal/transport/http"
)

// Version is the reported application version.
const Version = "1.0.0"

// Application is the dependency container for the web server.
type Application struct {
	Config         *config.Config
	Logger         *slog.Logger
	Router         *chi.Mux
	Server         *http.Server
	Sessions       *session.Store
	DatasetService *services.DatasetService
	OTel           *infrastructure.OTelProviders
}

// NewApplication builds the application from configuration.
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
		slog.String("name", "tabcli"),
		slog.String("version", Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize opentelemetry: %w", err)
	}

	store := session.NewStore(cfg.Session.TTL, cfg.Session.MaxSessions)
	datasetService := services.NewDatasetService(store, logger, otelProviders.Meter,
		cfg.Upload.MaxBytes, cfg.Upload.MaxRows)

	app := &Application{
		Config:         cfg,
		Logger:         logger,
		Sessions:       store,
		DatasetService: datasetService,
		OTel:           otelProviders,
	}
	app.Router = app.buildRouter()
	app.Server = &http.Server{
		Addr:         cfg.Address(),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

// buildRouter assembles the middleware chain and mounts the handlers.
func (a *Application) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.Tracing(a.OTel.Tracer))
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)
	r.Use(custommw.Compress(5))
	r.Use(custommw.Timeout(a.Config.Server.RequestTimeout))

	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(a.Config.Security.AllowedOrigins))
	}
	if a.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger)
		r.Use(limiter.Handler)
	}

	errorHandler := errors.NewErrorHandler(a.Logger)
	datasetHandler := handlers.NewDatasetHandler(a.DatasetService, a.Logger, errorHandler,
		a.Config.Upload.MaxBytes)
	healthHandler := handlers.NewHealthHandler(Version, a.Sessions.Len)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/datasets", datasetHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
	})
	if a.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTel.PrometheusHTTP)
	}

	return r
}

// Run starts the HTTP server and blocks until shutdown completes. SIGINT
// and SIGTERM trigger a graceful shutdown bounded by the configured
// timeout.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.OTel.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("otel shutdown", slog.String("error", err.Error()))
	}
	a.Logger.Info("shutdown complete")
	return nil
}
