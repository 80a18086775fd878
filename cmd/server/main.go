package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedran77/autotask/internal/classifier"
	"github.com/vedran77/autotask/internal/config"
	"github.com/vedran77/autotask/internal/database"
	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/oauth"
	"github.com/vedran77/autotask/internal/repository"
	"github.com/vedran77/autotask/internal/repository/memory"
	postgresrepo "github.com/vedran77/autotask/internal/repository/postgres"
	"github.com/vedran77/autotask/internal/service"
	"github.com/vedran77/autotask/internal/transport/http/handlers"
	"github.com/vedran77/autotask/internal/transport/http/middleware"
	"github.com/vedran77/autotask/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	var (
		accountRepo repository.AccountRepository
		taskRepo    repository.TaskRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		accountRepo = memory.NewAccountRepo()
		taskRepo = memory.NewTaskRepo()
		logger.Warn(ctx, "using in-memory store, data is lost on restart")
	default:
		pool, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info(ctx, "connected to database")

		accountRepo = postgresrepo.NewAccountRepo(pool)
		taskRepo = postgresrepo.NewTaskRepo(pool)
	}

	// Services
	tokens := service.NewTokenService(service.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
		Shape:  service.ClaimShape(cfg.TokenClaimShape),
	})
	usernames := service.NewUsernameAllocator(accountRepo)
	resolver := service.NewFederatedIdentityResolver(accountRepo, usernames, logger)
	authService, err := service.NewAuthService(accountRepo, service.NewArgon2Hasher(), usernames, tokens, resolver, logger)
	if err != nil {
		return err
	}
	session := service.NewSessionAuthenticator(tokens, accountRepo)

	var predictor service.Predictor
	if cfg.ClassifierURL != "" {
		predictor = classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierTimeout)
	}
	taskService := service.NewTaskService(taskRepo, predictor, logger)

	// Realtime
	hub := ws.NewHub(logger)
	go hub.Run(ctx)
	taskService.SetNotifier(ws.NewHubNotifier(hub, logger))

	var provider handlers.FederatedProvider
	if cfg.GoogleEnabled() {
		provider = oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	} else {
		logger.Info(ctx, "google login disabled, GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:          handlers.NewAuthHandler(authService, provider, cfg.FrontendURL, logger),
		Tasks:         handlers.NewTaskHandler(taskService, logger),
		Session:       session,
		Metrics:       middleware.NewMetrics(),
		Limiter:       middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		Realtime:      ws.ServeWS(hub, session, originPatterns(cfg.FrontendURL), logger),
		FrontendURL:   cfg.FrontendURL,
		Logger:        logger,
		GoogleEnabled: cfg.GoogleEnabled(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting server", "addr", srv.Addr, "store", cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// originPatterns allows WebSocket upgrades from the frontend host.
func originPatterns(frontendURL string) []string {
	u, err := url.Parse(frontendURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
