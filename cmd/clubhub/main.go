package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clubhub/clubhub/internal/app"
	"github.com/clubhub/clubhub/internal/applications"
	"github.com/clubhub/clubhub/internal/auth"
	"github.com/clubhub/clubhub/internal/banners"
	"github.com/clubhub/clubhub/internal/clubs"
	"github.com/clubhub/clubhub/internal/notices"
	"github.com/clubhub/clubhub/internal/observability"
	"github.com/clubhub/clubhub/internal/platform/cache"
	"github.com/clubhub/clubhub/internal/platform/db"
	"github.com/clubhub/clubhub/internal/rbac"
	"github.com/clubhub/clubhub/internal/reservations"
	"github.com/clubhub/clubhub/internal/shared"
	"github.com/clubhub/clubhub/internal/users"
	"github.com/clubhub/clubhub/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "clubhub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	var tableOpts []rbac.TableOption
	if cfg.RBACUnknownKeyDeny {
		tableOpts = append(tableOpts, rbac.WithUnknownKeyDeny())
	}
	policyTable, err := rbac.DefaultTable(tableOpts...)
	if err != nil {
		logger.Error("load policy table", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	rbacStore := rbac.NewRepository(pool)
	roleCache := rbac.NewRedisRoleCache(redisClient, cfg.RoleCacheTTL)
	resolver := rbac.NewResolver(rbacStore, roleCache, logger)
	evaluator := rbac.NewEvaluator(policyTable, resolver, rbac.SessionIdentity{}, logger)
	rbacMiddleware := rbac.Middleware{
		Evaluator:  evaluator,
		Logger:     logger,
		OnDecision: metrics.ObserveRBACDecision,
	}
	rbacService := rbac.NewService(rbacStore, resolver, logger)
	rbacHandler := rbac.NewHandler(logger, rbacService, policyTable, rbacMiddleware)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, resolver, sessionManager, csrfManager)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	clubsRepo := clubs.NewRepository(pool)
	clubsService := clubs.NewService(clubsRepo)
	clubsHandler := clubs.NewHandler(logger, clubsService, rbacMiddleware)

	noticesRepo := notices.NewRepository(pool)
	noticesService := notices.NewService(noticesRepo)
	noticesHandler := notices.NewHandler(logger, noticesService, rbacMiddleware)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	applicationsRepo := applications.NewRepository(pool)
	applicationsService := applications.NewService(logger, applicationsRepo, rbacService, usersService, jobClient)
	applicationsHandler := applications.NewHandler(logger, applicationsService, rbacMiddleware)

	reservationsRepo := reservations.NewRepository(pool)
	reservationsService := reservations.NewService(reservationsRepo)
	reservationsHandler := reservations.NewHandler(logger, reservationsService, rbacMiddleware)

	bannersRepo := banners.NewRepository(pool)
	bannersService := banners.NewService(bannersRepo)
	bannersHandler := banners.NewHandler(logger, bannersService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		ClubsHandler:        clubsHandler,
		NoticesHandler:      noticesHandler,
		ApplicationsHandler: applicationsHandler,
		ReservationsHandler: reservationsHandler,
		BannersHandler:      bannersHandler,
		RBACHandler:         rbacHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
