package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"travelboard/internal/config"
	apierrors "travelboard/internal/errors"
	"travelboard/internal/infrastructure"
	customMiddleware "travelboard/internal/middleware"
	"travelboard/internal/services"
	"travelboard/internal/source"
	handlers "travelboard/internal/transport/http"
	"travelboard/internal/travel"
	ws "travelboard/internal/websocket"
)

// AppName is reported in logs and telemetry
const AppName = "travelboard"

// Build information, set with -ldflags "-X travelboard/internal/app.Version=..."
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Store         *travel.Store
	WebSocketHub  *ws.Hub
	TravelService *services.TravelService
	HealthService *services.HealthService
	Metrics       *infrastructure.TravelMetrics
	OTelProviders *infrastructure.OTelProviders
	Logger        *slog.Logger

	startTime time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Option customizes NewApplication
type Option func(*options)

type options struct {
	source travel.Source
}

// WithSource replaces the configured workbook source
func WithSource(src travel.Source) Option {
	return func(o *options) { o.source = src }
}

// NewApplication wires every component from cfg. Nothing is started until
// Start is called.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewTravelMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	startTime := time.Now()
	if err := infrastructure.RegisterSystemMetrics(otelProviders.Meter, startTime); err != nil {
		return nil, fmt.Errorf("failed to register system metrics: %w", err)
	}

	src := o.source
	if src == nil {
		if src, err = source.New(ctx, cfg.Source); err != nil {
			return nil, fmt.Errorf("failed to initialize workbook source: %w", err)
		}
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		startTime:     startTime,
	}
	app.initializeServices(src)
	if err := app.setupRouter(); err != nil {
		return nil, err
	}
	app.createServer()

	return app, nil
}

// initializeServices creates the store, the hub and the services on top
func (a *Application) initializeServices(src travel.Source) {
	a.Store = travel.NewStore(src, travel.NewLoader(a.Logger),
		travel.WithKeepLastGood(a.Config.Source.KeepLastGood),
		travel.WithStoreLogger(a.Logger))

	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)
	a.WebSocketHub.SetKeepalive(a.Config.WebSocket.PingPeriod, a.Config.WebSocket.PongWait)

	a.TravelService = services.NewTravelService(a.Store, a.Logger,
		services.WithMetrics(a.Metrics),
		services.WithBroadcaster(a.WebSocketHub))

	a.HealthService = services.NewHealthService(services.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}, a.Store, a.WebSocketHub, a.Logger)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Middleware that does not wrap the ResponseWriter, safe for /ws
	r.Use(customMiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.Method(http.MethodGet, "/ws", wsHandler)

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.startTime)

	htmlHandler, err := handlers.NewHTMLHandler(a.TravelService, a.Logger, errorHandler)
	if err != nil {
		return err
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		validator := customMiddleware.NewValidator()
		r.Mount("/api/travel", handlers.NewTravelHandler(a.TravelService, validator, a.Logger, errorHandler).Routes())
		r.Mount("/api", handlers.NewHealthHandler(a.HealthService, a.Logger).Routes())
		htmlHandler.Register(r)
		metricsHandler.Register(r)
	})

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// StartBackground loads the dataset if configured and starts the hub and
// the periodic reload. It does not serve HTTP.
func (a *Application) StartBackground(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.WebSocketHub.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.Store.Run(ctx, a.Config.Source.ReloadInterval)
	}()

	if a.Config.Source.LoadOnStart {
		status, err := a.TravelService.Reload(infrastructure.EnsureTraceID(ctx))
		if err != nil {
			// the server still starts and reports NoData
			a.Logger.WarnContext(ctx, "initial load failed",
				slog.String("source", status.Source),
				slog.String("error", err.Error()))
		}
	}
}

// Start starts the background services and begins serving on ln. A nil ln
// listens on the configured address.
func (a *Application) Start(ctx context.Context, ln net.Listener) (<-chan error, error) {
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", a.Server.Addr); err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
		}
	}

	a.StartBackground(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", ln.Addr().String()),
		slog.String("source", a.Store.Current().Source),
		slog.Duration("reload_interval", a.Config.Source.ReloadInterval))
	return errCh, nil
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

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until SIGINT or SIGTERM, then shuts down
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh, err := a.Start(ctx, nil)
	if err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
	case serveErr = <-errCh:
		if serveErr != nil {
			a.Logger.Error("Server error", slog.String("error", serveErr.Error()))
		}
	}

	return errors.Join(serveErr, a.Stop(context.Background()))
}
