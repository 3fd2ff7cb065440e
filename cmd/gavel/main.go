package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/gavelhq/gavel/internal/admission"
	"github.com/gavelhq/gavel/internal/app"
	"github.com/gavelhq/gavel/internal/auth"
	"github.com/gavelhq/gavel/internal/cases"
	"github.com/gavelhq/gavel/internal/observability"
	"github.com/gavelhq/gavel/internal/shared"
	"github.com/gavelhq/gavel/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.JWTAccessTTL,
		RefreshTTL: cfg.JWTRefreshTTL,
	})
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}

	handshakes := auth.NewHandshakeStore(cfg.HandshakeTTL)
	revocations := auth.NewRevocationList(redisClient)
	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewPGRepository(dbpool)
	oauthCfg := auth.OAuthConfig{
		Google: auth.OAuthProviderConfig{
			ClientID:     cfg.OAuthGoogleClientID,
			ClientSecret: cfg.OAuthGoogleClientSecret,
			RedirectURL:  cfg.OAuthGoogleRedirectURL,
		},
		GitHub: auth.OAuthProviderConfig{
			ClientID:     cfg.OAuthGitHubClientID,
			ClientSecret: cfg.OAuthGitHubClientSecret,
			RedirectURL:  cfg.OAuthGitHubRedirectURL,
		},
	}
	authService := auth.NewService(authRepo, tokens, handshakes, revocations, oauthCfg, auditLogger, logger, cfg.AdminEmail)

	cookies := auth.CookieWriter{Secure: cfg.IsProduction(), AccessTTL: cfg.JWTAccessTTL}
	authHandler := auth.NewHandler(logger, authService, tokens, cookies)

	metrics := observability.NewMetrics()

	boundary := &auth.Boundary{
		Verifier:    tokens,
		Refresher:   authService,
		Revocations: revocations,
		Cookies:     cookies,
		Logger:      logger,
		Metrics:     metrics,
	}

	limiter := admission.NewLimiter(admission.Config{Limit: cfg.RateLimit, Window: cfg.RateLimitWindow})

	casesRepo := cases.NewPGRepository(dbpool)
	casesService := cases.NewService(casesRepo, logger)
	casesHandler := cases.NewHandler(logger, casesService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthHandler:  authHandler,
		Boundary:     boundary,
		Limiter:      limiter,
		CasesHandler: casesHandler,
		JobsHandler:  jobsHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		handshakes.StartSweeper(groupCtx, cfg.HandshakeSweepInterval)
		return nil
	})

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
