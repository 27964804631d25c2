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

	httpapi "github.com/coachhub/platform/internal/auth/http"
	"github.com/coachhub/platform/internal/auth/metrics"
	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/internal/auth/store"
	"github.com/coachhub/platform/pkg/httpx"
	"github.com/coachhub/platform/pkg/jwtx"
	"github.com/coachhub/platform/pkg/kvx"
	"github.com/coachhub/platform/pkg/slogx"
	"github.com/coachhub/platform/pkg/tracex"
)

// BuildVersion is overridden at build time with
// -ldflags "-X github.com/coachhub/platform/internal/auth/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// NewLogger builds the service logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "coach-auth",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	kv      kvx.Store
	events  EventSink
	metrics *metrics.Metrics
	tracing *tracex.Provider

	accessKey  *jwtx.HS256Key
	refreshKey *jwtx.HS256Key

	// Services
	tokenService        *service.TokenService
	authService         *service.AuthService
	signupService       *service.SignupService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg),
		metrics: metrics.New(),
	}

	if err := httpx.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	var err error
	if app.accessKey, app.refreshKey, err = InitTokenKeys(cfg, app.logger); err != nil {
		return nil, fmt.Errorf("failed to initialize token keys: %w", err)
	}

	if app.tracing, err = tracex.Setup(ctx, tracex.Config{
		Service:  "coach-auth",
		Version:  BuildVersion,
		Endpoint: cfg.OTLPEndpoint,
	}); err != nil {
		return nil, err
	}

	// Each step below owns a resource; undo the earlier ones on failure.
	if app.db, err = OpenDatabase(cfg, app.logger); err != nil {
		return nil, err
	}
	if app.kv, err = OpenKV(ctx, cfg, app.logger); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if app.events, err = OpenEvents(cfg, app.logger); err != nil {
		_ = app.kv.Close()
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the HTTP handler, for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeDependencies()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.tracing.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	if err := app.closeDependencies(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeDependencies() error {
	if err := app.events.Close(); err != nil {
		app.logger.Error("error closing event publisher", "error", err)
	}
	if err := app.kv.Close(); err != nil {
		app.logger.Error("error closing kv store", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:      app.db,
		AccessKey:  app.accessKey,
		RefreshKey: app.refreshKey,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
		Metrics:    app.metrics,
	}

	app.authService = &service.AuthService{
		Store:   app.db,
		Tokens:  app.tokenService,
		Events:  app.events,
		Metrics: app.metrics,

		RestrictAdmin: app.cfg.RestrictAdminSignup,
	}
	app.signupService = &service.SignupService{
		Store:   app.db,
		KV:      app.kv,
		Tokens:  app.tokenService,
		Events:  app.events,
		Metrics: app.metrics,
		Issuer:  app.cfg.Issuer,
		TTL:     app.cfg.SignupOTPTTL,

		RestrictAdmin: app.cfg.RestrictAdminSignup,
	}
	app.userService = &service.UserService{Store: app.db, Events: app.events}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.kv,
		app.metrics,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.kv,
		app.metrics,
		app.logger,
	)

	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.SignupService = app.signupService
	router.UserService = app.userService
	router.Events = app.events
	router.Limits = httpapi.RateLimits{
		Strict:   app.cfg.RateLimitStrict,
		Moderate: app.cfg.RateLimitModerate,
		Public:   app.cfg.RateLimitPublic,
	}
	if app.cfg.OTLPEndpoint != "" {
		router.Tracing = app.tracing.Middleware
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
