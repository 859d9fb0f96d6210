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
	"golang.org/x/sync/errgroup"

	"github.com/xgarcia1/FinalProject/internal/config"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
	"github.com/xgarcia1/FinalProject/internal/infrastructure"
	custommw "github.com/xgarcia1/FinalProject/internal/middleware"
	"github.com/xgarcia1/FinalProject/internal/services"
	handlers "github.com/xgarcia1/FinalProject/internal/transport/http"
	"github.com/xgarcia1/FinalProject/internal/validation"
	ws "github.com/xgarcia1/FinalProject/internal/websocket"
)

// Build metadata, set with -ldflags "-X .../internal/app.Version=..."
var (
	Version   = config.AppVersion
	BuildTime = ""
	GitCommit = ""
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	WebSocketHub  *ws.Hub
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Charts    *services.ChartService
	Health    *services.HealthService
	Metrics   *infrastructure.ChartMetrics
	Uploads   *validation.UploadValidator
	Validator *custommw.Validator
	Errors    *apierrors.ErrorHandler
}

// NewApplication loads configuration and the process logger, then wires the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an explicit configuration and logger
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.String("addr", cfg.Server.Addr()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	a.createServer()
	return a, nil
}

// initializeServices creates the services in dependency order
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateChartMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create chart metrics: %w", err)
	}

	monitor, err := infrastructure.NewRuntimeMonitor(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create runtime monitor: %w", err)
	}

	charts := services.NewChartService(services.ChartServiceOptions{
		Chart:   a.Config.Chart,
		Upload:  a.Config.Upload,
		Tracer:  a.OTelProviders.Tracer,
		Metrics: metrics,
		Logger:  a.Logger,
	})

	health := services.NewHealthService(services.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}, charts, monitor, a.Logger)

	a.WebSocketHub = ws.NewHub(a.Logger)
	a.Services = &ServiceContainer{
		Charts:    charts,
		Health:    health,
		Metrics:   metrics,
		Uploads:   validation.NewUploadValidator(a.Config.Upload, a.Logger),
		Validator: custommw.NewValidator(a.Logger),
		Errors:    apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development),
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	page, err := handlers.NewPageHandler(handlers.PageOptions{
		Title:             config.AppName,
		Version:           Version,
		WebSocketPath:     config.WebSocketEndpoint,
		LogPath:           config.ClientLogEndpoint,
		AllowedExtensions: a.Config.Upload.AllowedExtensions,
		MaxUploadBytes:    a.Config.Upload.MaxBytes,
	}, a.Logger)
	if err != nil {
		return err
	}

	sessions := ws.NewHandler(a.WebSocketHub, ws.HandlerOptions{
		Service:        a.Services.Charts,
		Uploads:        a.Services.Uploads,
		Validator:      a.Services.Validator,
		Settings:       ws.SettingsFrom(a.Config.WebSocket, a.Config.Upload),
		Buffers:        a.Config.WebSocket,
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		Logger:         a.Logger,
	})

	var metrics http.Handler
	if a.Config.Telemetry.MetricsEnabled {
		metrics = handlers.NewMetricsHandler(a.OTelProviders.Registry, a.Logger)
	}

	a.Router = handlers.NewRouter(handlers.RouterOptions{
		Config:       a.Config,
		Charts:       a.Services.Charts,
		Health:       a.Services.Health,
		Uploads:      a.Services.Uploads,
		Validator:    a.Services.Validator,
		ErrorHandler: a.Services.Errors,
		Page:         page,
		Sessions:     sessions,
		Metrics:      metrics,
		OTel:         custommw.NewOTelMiddleware(a.OTelProviders.Tracer, a.Services.Metrics, a.Logger),
		Logger:       a.Logger,
	})
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or the server fails
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.WebSocketHub.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Application started",
			slog.String("address", "http://"+ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(context.WithoutCancel(gctx), "Shutdown requested")
		return a.Stop(context.WithoutCancel(gctx))
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	// Hijacked session connections are not covered by Shutdown
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete",
		slog.Int("open_sessions", a.Services.Charts.ActiveSessions()))
	return errors.Join(errs...)
}
