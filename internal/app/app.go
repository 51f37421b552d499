package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"gdpwaterfall/internal/config"
	apierrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/exporter"
	"gdpwaterfall/internal/files"
	"gdpwaterfall/internal/infrastructure"
	customMiddleware "gdpwaterfall/internal/middleware"
	"gdpwaterfall/internal/services"
	handlers "gdpwaterfall/internal/transport/http"
	ws "gdpwaterfall/internal/websocket"
)

const AppName = "gdpwaterfall"

var (
	// Version is set at link time
	Version = "dev"
	// BuildTime is set at link time
	BuildTime = ""
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ChartMetrics
	Source        files.Source
	ChartService  *services.ChartService
	HealthService *services.HealthService
	WebSocketHub  *ws.Hub
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication wires the services and loads the dataset once.
//
// A source that cannot be fetched or parsed aborts startup. A table without
// usable rows does not: the server starts and answers in the empty-dataset
// state until a reload brings data.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("source", cfg.Data.Source),
		slog.String("source_type", cfg.Data.SourceType()))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		TraceExporter:  cfg.Telemetry.TracesExporter,
		EnableMetrics:  cfg.Telemetry.MetricsEnabled,
	}, logger)
	if err != nil {
		return nil, apierrors.NewConfigError("failed to initialize OpenTelemetry", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := a.initializeServices(ctx); err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, err
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.NewChartMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	a.Metrics = metrics

	src, err := files.NewSource(ctx, a.Config)
	if err != nil {
		return err
	}
	a.Source = src

	loadOpts := files.LoadOptions{
		Parse:   files.ParseOptionsFor(a.Config.Data),
		Logger:  a.Logger,
		Metrics: metrics,
	}
	a.ChartService = services.NewChartService(
		func(ctx context.Context) (*files.LoadResult, error) {
			return files.LoadDataset(ctx, src, loadOpts)
		},
		a.Logger,
		services.WithMetrics(metrics),
		services.WithTracer(a.OTelProviders.Tracer),
	)

	if err := a.ChartService.Load(ctx); err != nil {
		if !apierrors.IsType(err, apierrors.ErrTypeEmptyDataset) {
			return err
		}
		a.Logger.WarnContext(ctx, "Starting with an empty dataset", slog.String("error", err.Error()))
	}

	a.WebSocketHub = ws.NewHub(a.ChartService, a.Logger, metrics,
		ws.WithKeepalive(a.Config.WebSocket.PingPeriod, a.Config.WebSocket.PongWait))
	a.ChartService.OnReload(func(info services.DatasetInfo) {
		a.WebSocketHub.Broadcast(ws.TypeDatasetReloaded, info)
	})

	a.HealthService = services.NewHealthService(Version, BuildTime, a.ChartService, a.WebSocketHub, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware shared with /ws; none of it wraps the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
	r.Use(customMiddleware.StripSlashes)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, ws.HandlerOptions{
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
	}, a.Logger, a.ErrorHandler))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	exportOpts := exporter.Options{
		Delimiter:    a.Config.Data.DelimiterRune(),
		BOM:          a.Config.Export.BOM,
		Precision:    a.Config.Export.Precision,
		DecimalComma: a.Config.Export.DecimalComma,
	}

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	chartHandler := handlers.NewChartHandler(a.ChartService, exportOpts, a.Logger, a.ErrorHandler)
	clientLogHandler := handlers.NewClientLogHandler(a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(a.Config.Server.WriteTimeout))

		r.Mount("/health", healthHandler.Routes())
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/version", healthHandler.Version)
		r.Mount("/countries", chartHandler.Routes())
		r.With(render.SetContentType(render.ContentTypeJSON)).Post("/client-log", clientLogHandler.Handle)
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully. The file watcher runs alongside the server when enabled.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		_ = a.Stop(context.Background())
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.WebSocketHub.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("address", ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if watcher := a.newWatcher(); watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(ctx, "Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// newWatcher returns a watcher reloading the dataset, or nil when watching
// is disabled or the source is not a local file
func (a *Application) newWatcher() *files.Watcher {
	if !a.Config.Data.Watch {
		return nil
	}
	fileSrc, ok := a.Source.(*files.FileSource)
	if !ok {
		a.Logger.Warn("Data watch ignored, source is not a local file",
			slog.String("source_type", a.Source.Type()))
		return nil
	}
	return files.NewWatcher(fileSrc.Path, a.Config.Data.WatchDelay, a.ChartService.Reload, a.Logger)
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	// Hijacked websocket connections are not closed by Shutdown
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}
