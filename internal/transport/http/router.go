package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/xgarcia1/FinalProject/internal/config"
	apierrors "github.com/xgarcia1/FinalProject/internal/errors"
	custommw "github.com/xgarcia1/FinalProject/internal/middleware"
)

// clientLogMaxBytes bounds a single client log entry
const clientLogMaxBytes = 64 << 10

// RouterOptions carries everything the router mounts. Page, Sessions,
// Metrics and OTel are optional.
type RouterOptions struct {
	Config       *config.Config
	Charts       ChartService
	Health       HealthChecker
	Uploads      UploadReader
	Validator    StructValidator
	ErrorHandler *apierrors.ErrorHandler
	Page         http.Handler
	Sessions     http.Handler
	Metrics      http.Handler
	OTel         *custommw.OTelMiddleware
	Logger       *slog.Logger
}

// NewRouter builds the HTTP routes of the service
func NewRouter(opts RouterOptions) *chi.Mux {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := opts.ErrorHandler
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, cfg.Logging.Development)
	}

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Only middleware that leaves the ResponseWriter alone runs before the
	// WebSocket upgrade
	r.Use(custommw.RequestID)
	r.Use(chimw.RealIP)

	if opts.Sessions != nil {
		r.Handle(config.WebSocketEndpoint, opts.Sessions)
	}
	if opts.Metrics != nil {
		r.Handle(config.MetricsEndpoint, opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → limits
		if opts.OTel != nil {
			r.Use(opts.OTel.Handler)
		}
		r.Use(custommw.StructuredLogger(logger))
		r.Use(errorHandler.Middleware)

		secure := custommw.DefaultSecureHeaders()
		secure.DevMode = cfg.Logging.Development
		r.Use(secure.Handler)

		if cfg.Security.EnableCORS {
			r.Use(custommw.CORS(custommw.CORSConfigFrom(cfg.Security, logger)))
		}
		if cfg.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(cfg.Security.RateLimit, errorHandler, logger).Handler)
		}
		r.Use(custommw.Timeout(cfg.Server.RequestTimeout, logger))

		if opts.Page != nil {
			r.Method(http.MethodGet, "/", opts.Page)
		}

		r.Route(config.APIBasePath, func(r chi.Router) {
			if opts.Health != nil {
				NewHealthHandler(opts.Health, logger).RegisterRoutes(r)
			}
			if opts.Charts != nil {
				NewChartHandler(opts.Charts, opts.Uploads, opts.Validator, errorHandler, logger).RegisterRoutes(r)
			}

			clientLog := NewClientLogHandler(opts.Validator, errorHandler, logger)
			r.With(
				custommw.MaxBodySize(clientLogMaxBytes),
				custommw.ContentTypeValidator(errorHandler, "application/json"),
			).Post("/logs", clientLog.Handle)
		})
	})

	return r
}
