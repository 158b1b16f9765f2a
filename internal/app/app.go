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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"creditpulse/internal/config"
	apierrors "creditpulse/internal/errors"
	"creditpulse/internal/files"
	"creditpulse/internal/infrastructure"
	customMiddleware "creditpulse/internal/middleware"
	"creditpulse/internal/services"
	httpHandlers "creditpulse/internal/transport/http"
	ws "creditpulse/internal/websocket"
)

// Application represents the main application
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Hub       *ws.Hub
	Dashboard *services.DashboardService
	Health    *services.HealthService

	errorHandler *apierrors.ErrorHandler

	Router chi.Router
	Server *http.Server
}

// NewApplication loads the configuration from the environment, initializes
// the process logger and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	return New(cfg, logger)
}

// New wires every component around an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the hub and the services that publish to it
func (a *Application) initializeServices() {
	a.Hub = ws.NewHub(a.Config.WebSocket, a.Logger)
	a.Dashboard = services.NewDashboardService(a.Config, a.Paths, a.Metrics, a.Hub, a.Logger)
	a.Health = services.NewHealthService(a.Paths.ExportsDir, a.Dashboard, a.Hub, a.Logger)
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Middleware that does not wrap the ResponseWriter, safe for upgrades
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	if a.Config.Security.EnableCORS {
		// Top level so preflight requests are answered before routing
		r.Use(customMiddleware.CORS(a.corsConfig()))
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	wsHandler := ws.NewHandler(a.Hub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Config.Logging.Development, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// Order: OTel → Logger → Recoverer → Compress → headers → rate limit → timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.errorHandler))
		r.Use(customMiddleware.Compress(5))
		r.Use(customMiddleware.DefaultSecureHeaders(a.Config.Logging.Development).Handler)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		if a.Config.Server.RequestTimeout > 0 {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		}

		a.setupAPIRoutes(r)

		r.Get("/", httpHandlers.ServeMainApp(a.Paths.WebDir))
		r.Handle("/static/*", httpHandlers.StaticFiles("/static/", a.Paths.WebDir))
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		health := httpHandlers.NewHealthHandler(a.Health, a.Logger)
		r.Mount("/health", health.Routes())
		r.Get("/version", health.Version)
		r.Get("/websocket/stats", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, a.Hub.Stats())
		})

		dashboard := httpHandlers.NewDashboardHandler(a.Dashboard, a.Config.Upload, a.Logger, a.errorHandler)
		r.Mount("/portfolio", dashboard.Routes())
	})
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
	if a.Config.Logging.Development {
		cfg.AllowedOrigins = nil
	}
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// PreloadLatest loads the newest portfolio file found in the data directory.
// It reports false when there is nothing to load.
func (a *Application) PreloadLatest(ctx context.Context) (bool, error) {
	discovery := files.NewDiscovery(a.Paths.DataDir, a.Config.Upload.AllowedExtensions)
	found, err := discovery.FindPortfolioFiles("")
	if err != nil {
		return false, fmt.Errorf("failed to scan data directory: %w", err)
	}

	latest, ok := files.GetLatestFile(found)
	if !ok {
		return false, nil
	}

	summary, err := a.Dashboard.LoadPath(ctx, latest.Path)
	if err != nil {
		return false, fmt.Errorf("failed to preload %s: %w", latest.Name, err)
	}

	a.Logger.InfoContext(ctx, "Preloaded portfolio",
		slog.String("file", latest.Name),
		slog.Int("records", summary.TotalCount))
	return true, nil
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM,
// then shuts everything down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(infrastructure.EnsureTraceID(ctx), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.Hub.Start()

	if _, err := a.PreloadLatest(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup preload skipped", slog.String("error", err.Error()))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening",
			slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.shutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.Hub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

func (a *Application) shutdownTimeout() time.Duration {
	if a.Config.Server.ShutdownTimeout > 0 {
		return a.Config.Server.ShutdownTimeout
	}
	return 30 * time.Second
}
