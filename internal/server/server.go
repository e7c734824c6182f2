// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/cashtrackr/cashtrackr/internal/config"
	"codeberg.org/cashtrackr/cashtrackr/internal/database"
	"codeberg.org/cashtrackr/cashtrackr/internal/handlers"
	"codeberg.org/cashtrackr/cashtrackr/internal/i18n"
	"codeberg.org/cashtrackr/cashtrackr/internal/metrics"
	"codeberg.org/cashtrackr/cashtrackr/internal/middleware"
	"codeberg.org/cashtrackr/cashtrackr/internal/ratelimit"
	"codeberg.org/cashtrackr/cashtrackr/internal/repository"
	authsvc "codeberg.org/cashtrackr/cashtrackr/internal/services/auth"
	"codeberg.org/cashtrackr/cashtrackr/internal/services/email"
	"codeberg.org/cashtrackr/cashtrackr/internal/services/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v3"
)

// devRateMultiplier relaxes the auth rate limit in development.
const devRateMultiplier = 20

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	Sessions  *session.Manager
	Auth      *authsvc.Service
	RateStore echomw.RateLimiterStore
	Metrics   *metrics.Metrics // nil disables /metrics
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting server",
		"env", cfg.Env,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)

	sessions, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	opts := []authsvc.Option{authsvc.WithTokenLifetime(cfg.Auth.PendingTokenLifetime)}
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.RegisterDB(db.DB)
		opts = append(opts, authsvc.WithEventRecorder(m))
	}

	store, closeStore, err := newRateStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	e := New(Deps{
		Config:    cfg,
		Repo:      repo,
		Sessions:  sessions,
		Auth:      authsvc.NewService(repo, sessions, mailer, opts...),
		RateStore: store,
		Metrics:   m,
	})

	return startWithGracefulShutdown(ctx, e, cfg)
}

// New builds the Echo instance with middleware and routes.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, d.Config, d.Metrics)
	setupRoutes(e, d)
	return e
}

func setupRoutes(e *echo.Echo, d Deps) {
	h := handlers.New(d.Repo)
	ah := handlers.NewAuth(d.Auth)
	authenticate := middleware.Authenticate(d.Sessions, d.Repo)

	e.GET("/health", h.Health)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")

	// Auth
	authGroup := api.Group("/auth", middleware.RateLimit(d.RateStore))
	authGroup.POST("/create-account", ah.CreateAccount)
	authGroup.POST("/confirm-account", ah.ConfirmAccount)
	authGroup.POST("/resend-confirmation", ah.ResendConfirmation)
	authGroup.POST("/login", ah.Login)
	authGroup.POST("/forgot-password", ah.ForgotPassword)
	authGroup.POST("/validate-token", ah.ValidateToken)
	authGroup.POST("/reset-password/:token", ah.ResetPassword)
	authGroup.GET("/user", ah.User, authenticate)
	authGroup.PUT("/user", ah.UpdateUser, authenticate)
	authGroup.POST("/update-password", ah.UpdatePassword, authenticate)
	authGroup.POST("/check-password", ah.CheckPassword, authenticate)

	// Budgets
	budgets := api.Group("/budgets", authenticate)
	budgets.GET("", h.ListBudgets)
	budgets.POST("", h.CreateBudget)

	budget := budgets.Group("/:"+middleware.BudgetIDParam,
		middleware.LoadBudget(d.Repo),
		middleware.RequireOwnership(middleware.BudgetOwnedByCaller),
	)
	budget.GET("", h.GetBudget)
	budget.PUT("", h.UpdateBudget)
	budget.DELETE("", h.DeleteBudget)
	budget.POST("/expenses", h.CreateExpense)

	// Expenses
	expense := budget.Group("/expenses/:"+middleware.ExpenseIDParam,
		middleware.LoadExpense(d.Repo),
		middleware.RequireOwnership(middleware.ExpenseInBudget),
	)
	expense.GET("", h.GetExpense)
	expense.PUT("", h.UpdateExpense)
	expense.DELETE("", h.DeleteExpense)
}

// newSessionManager creates the JWT manager. Development falls back to a
// per-process secret, so tokens do not survive a restart.
func newSessionManager(cfg *config.Config) (*session.Manager, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		generated, err := session.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		slog.Warn("jwt_secret_generated", "hint", "set JWT_SECRET to keep sessions across restarts")
		secret = generated
	}

	sessions, err := session.NewManager(secret, cfg.Auth.SessionLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}
	return sessions, nil
}

// newMailer returns the SMTP dispatcher, or a logging one in development
// when no SMTP host is configured.
func newMailer(cfg *config.Config) (email.Dispatcher, error) {
	if cfg.SMTP.Host == "" && cfg.IsDevelopment() {
		slog.Warn("smtp_disabled", "hint", "emails are written to the log")
		return email.NewLogDispatcher(slog.Default()), nil
	}

	svc, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create email service: %w", err)
	}
	return svc, nil
}

// newRateStore picks the Redis store when a URL is configured.
func newRateStore(ctx context.Context, cfg *config.Config) (echomw.RateLimiterStore, func(), error) {
	limit := cfg.RateLimit.PerMinute
	if cfg.IsDevelopment() {
		limit *= devRateMultiplier
	}

	if cfg.RateLimit.RedisURL == "" {
		return middleware.NewMemoryStore(limit), func() {}, nil
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closer := func() {
		if err := client.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}
	return ratelimit.NewRedisStore(client, limit, time.Minute), closer, nil
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e.Server.ReadHeaderTimeout = 10 * time.Second

	// Channel for server errors
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
