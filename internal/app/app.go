// Package app wires the dashboard server: config, logging, services,
// router, websocket hub and the dataset watcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bikepulse/internal/config"
	"bikepulse/internal/dataset"
	apierrors "bikepulse/internal/errors"
	"bikepulse/internal/infrastructure"
	custommw "bikepulse/internal/middleware"
	"bikepulse/internal/services"
	transport "bikepulse/internal/transport/http"
	ws "bikepulse/internal/websocket"
)

// Application holds all services and handlers with their dependencies
type Application struct {
	Config *config.Config
	Logger *slog.Logger

	store   *dataset.Store
	watcher *dataset.Watcher
	hub     *ws.Hub

	dashboardService *services.DashboardService
	healthService    *services.HealthService

	errorHandler *apierrors.ErrorHandler
	registry     *prometheus.Registry

	router chi.Router
	server *http.Server

	upgrader websocket.Upgrader
}

// New creates the application with all dependencies wired
func New(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				// Same-origin dashboard; the frontend is served by this process
				return true
			},
		},
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}
	app.setupRouter()

	app.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

func (a *Application) initializeServices() error {
	loader := dataset.NewLoader(a.Logger)
	a.store = dataset.NewStore(loader, a.Config.DailyPath(), a.Config.HourlyPath(), a.Logger)

	a.hub = ws.NewHub(a.Logger)

	if a.Config.Data.Watch {
		a.watcher = dataset.NewWatcher(a.store,
			a.Config.DailyPath(), a.Config.HourlyPath(),
			func(file string) { a.hub.BroadcastRefresh(file) },
			a.Logger)
	}

	a.dashboardService = services.NewDashboardService(a.store, a.Logger)
	a.healthService = services.NewHealthService(a.store, a.hub, a.Logger)

	a.errorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Level == "debug")

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	metrics := custommw.NewMetrics(a.registry)

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(metrics.Handler)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	dashboardHandler := transport.NewDashboardHandler(a.dashboardService, a.Logger, a.errorHandler)
	exportHandler := transport.NewExportHandler(a.dashboardService, a.Logger, a.errorHandler)
	healthHandler := transport.NewHealthHandler(a.healthService, a.Logger, a.errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(custommw.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		r.Mount("/dashboard", dashboardHandler.Routes())
		r.Mount("/export", exportHandler.Routes())
		r.Mount("/health", healthHandler.Routes())

		r.With(render.SetContentType(render.ContentTypeJSON)).
			Get("/version", transport.VersionHandler)
	})

	r.Get("/ws", a.handleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	a.mountStatic(r)

	a.router = r
}

// mountStatic serves the single-page frontend from the configured web dir
func (a *Application) mountStatic(r chi.Router) {
	webDir := a.Config.Data.WebDir
	if webDir == "" {
		return
	}
	if _, err := os.Stat(webDir); err != nil {
		a.Logger.Warn("web directory not found, static serving disabled",
			slog.String("dir", webDir))
		return
	}

	fs := http.FileServer(http.Dir(webDir))
	r.With(custommw.Compress(5)).Handle("/*", fs)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(webDir, "index.html"))
	})
}

// handleWebSocket upgrades the connection and registers it with the hub
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	ws.ServeWS(a.hub, conn)
}

// Start begins serving. It warms the dataset cache, starts the hub and
// watcher, and blocks until the listener fails or ctx is cancelled.
func (a *Application) Start(ctx context.Context) error {
	a.hub.Start()

	if _, err := a.store.Snapshot(ctx); err != nil {
		// Serve anyway; health reports degraded until the files appear
		a.Logger.Warn("initial dataset load failed",
			slog.String("error", err.Error()))
	}

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error("dataset watcher stopped",
					slog.String("error", err.Error()))
			}
		}()
	}

	a.Logger.Info("server starting",
		slog.String("addr", a.server.Addr),
		slog.String("version", services.Version))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return a.Stop()
	}
}

// Stop gracefully shuts down the server and hub
func (a *Application) Stop() error {
	a.Logger.Info("server shutting down")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.hub.Stop()
	infrastructure.CloseLogFile()
	return err
}

// Router exposes the handler tree for tests
func (a *Application) Router() http.Handler {
	return a.router
}
