// Package app wires configuration, storage and the auth core into the
// HTTP service and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/travito/travito"
	"github.com/travito/travito/internal/config"
	"github.com/travito/travito/internal/logger"
	"github.com/travito/travito/internal/metrics"
	"github.com/travito/travito/internal/middleware"
	"github.com/travito/travito/internal/pages"
	travitooauth "github.com/travito/travito/oauth2"
	gormstore "github.com/travito/travito/stores/gorm"
	redisstore "github.com/travito/travito/stores/redis"
)

// Options carries the dependencies New does not build itself.
type Options struct {
	DB *gorm.DB

	// Optional session revocation list
	Revoker travito.Revoker

	// Metrics registry, a fresh one when nil
	Registry *prometheus.Registry

	Logger *slog.Logger

	// Optional client for OAuth token and userinfo calls
	OAuthHTTPClient *http.Client
}

// App is the assembled service.
type App struct {
	Config    *config.Config
	Auth      *travito.Auth
	Local     *travito.LocalAuth
	Guard     *travito.Middleware
	Providers *travito.ProviderRegistry
	Metrics   *metrics.Collector
	Handler   http.Handler

	// Startup warnings (development and test only)
	Warnings []string

	db       *gorm.DB
	registry *prometheus.Registry
	limiter  *middleware.KeyedLimiter
	csrf     *middleware.CSRF
	flow     *scs.SessionManager
	logger   *slog.Logger
}

// New builds the service from cfg. The startup policy is applied here: in
// production a missing signing secret or an empty provider set fails with
// travito.ErrConfiguration.
func New(cfg *config.Config, opts Options) (*App, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("%w: no database", travito.ErrConfiguration)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	issuer, err := travito.NewSessionIssuer(cfg.SessionSecret, "travito", cfg.SessionMaxAge)
	if err != nil {
		return nil, err
	}
	if opts.Revoker != nil {
		issuer.Revoker = opts.Revoker
	}

	store := gormstore.NewStore(opts.DB)
	collector := metrics.NewCollector(opts.Registry)

	a := &App{
		Config:   cfg,
		Metrics:  collector,
		db:       opts.DB,
		registry: opts.Registry,
		limiter:  middleware.NewKeyedLimiter(middleware.AuthRateLimiterConfig(cfg.RateLimitAuthPerMinute, cfg.RateLimitAuthBurst)),
		csrf:     middleware.NewCSRF(middleware.CSRFConfig{CookieSecure: cfg.CookieSecure}),
		flow:     travitooauth.NewFlowSessions(cfg.CookieSecure),
		logger:   opts.Logger,
	}

	a.Auth = &travito.Auth{
		Issuer:          issuer,
		EnsureOAuthUser: travito.NewEnsureOAuthUserFunc(store),
		BaseURL:         cfg.BaseURL,
		SecureCookies:   cfg.CookieSecure,
		OnLoginSuccess: func(provider string, user *travito.User, r *http.Request) {
			collector.RecordSignIn(provider, metrics.ResultSuccess)
		},
		OnLoginFailure: func(provider string, r *http.Request, err error) {
			collector.RecordSignIn(provider, metrics.ResultFailure)
		},
	}

	a.Local = &travito.LocalAuth{
		ValidateCredentials: travito.NewCredentialsValidator(store),
		CreateUser:          travito.NewCreateUserFunc(store),
		HandleUser:          a.Auth.SaveUserAndRedirect,
		RateLimiter:         a.limiter,
		SignInErrorURL:      a.Auth.SignInErrorURL,
		OnLoginFailure: func(email string, r *http.Request, err error) {
			collector.RecordSignIn(travito.CredentialsProviderID, metrics.ResultFailure)
		},
		OnSignup: func(user *travito.User, r *http.Request, err error) {
			collector.RecordRegistration(registrationResult(err))
		},
	}

	a.Providers = travito.NewProviderRegistry(a.providerSpecs(opts.OAuthHTTPClient))
	a.Auth.Providers = a.Providers

	warnings, err := travito.CheckStartup(cfg.IsProduction(), cfg.HasSessionSecret(), a.Providers)
	if err != nil {
		a.limiter.Stop()
		return nil, err
	}
	a.Warnings = append(append([]string{}, cfg.Warnings...), warnings...)
	for _, w := range a.Warnings {
		a.logger.Warn("configuration warning", "warning", w)
	}

	a.Guard = &travito.Middleware{
		Sessions:  a.Auth,
		SignInURL: pages.SignInPath,
		OnRedirect: func(reason string, r *http.Request) {
			collector.RecordGuardRedirect(reason)
		},
	}

	pageHandler, err := pages.New(a.Guard, a.Providers, gormstore.NewContactStore(opts.DB), a.logger)
	if err != nil {
		a.limiter.Stop()
		return nil, err
	}
	pageHandler.Protect = a.csrf.Verify

	a.Handler = a.routes(pageHandler)
	return a, nil
}

func registrationResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, travito.ErrValidation), errors.Is(err, travito.ErrDuplicateAccount):
		return metrics.ResultRejected
	default:
		return metrics.ResultFailure
	}
}

// Close stops background work. The database is owned by the caller.
func (a *App) Close() {
	a.limiter.Stop()
}

// Run loads the configuration, opens the stores and serves until ctx is
// cancelled or the process receives SIGINT or SIGTERM.
func Run(ctx context.Context, w io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel), cfg.IsProduction())

	log.Info("starting travito",
		slog.String("env", cfg.Env),
		slog.String("port", cfg.Port),
		slog.String("base_url", cfg.BaseURL),
		slog.String("database", gormstore.Dialect(cfg.DatabaseURL)),
	)

	db, err := gormstore.Open(cfg.DatabaseURL, gormstore.Options{LogQueries: cfg.LogLevel == "debug"})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer sqlDB.Close()

	if err := gormstore.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	opts := Options{DB: db, Logger: log}
	if cfg.RedisURL != "" {
		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		switch {
		case err != nil && cfg.IsProduction():
			return fmt.Errorf("failed to connect to redis: %w", err)
		case err != nil:
			log.Warn("redis unavailable, sign-out will not revoke sessions", "error", err)
		default:
			defer client.Close()
			opts.Revoker = redisstore.NewRevocationList(client)
			log.Info("session revocation list enabled")
		}
	}

	a, err := New(cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("http server stopped")
	return nil
}
