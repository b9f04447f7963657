package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/backhouse-hq/backhouse/internal/app"
	"github.com/backhouse-hq/backhouse/internal/balance"
	"github.com/backhouse-hq/backhouse/internal/bankfeed"
	"github.com/backhouse-hq/backhouse/internal/match"
	"github.com/backhouse-hq/backhouse/internal/observability"
	"github.com/backhouse-hq/backhouse/internal/outflow"
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()

	outflowRepo := outflow.NewPgRepository(pool)
	outflowService := outflow.NewService(outflowRepo)
	feedStore := bankfeed.NewPgStore(pool)
	balanceProvider := bankfeed.NewPgBalanceProvider(pool)
	balanceService := balance.NewService(balanceProvider, outflowRepo, redisClient, cfg.BalanceCacheTTL)

	suggestionService := match.NewService(outflowService, feedStore)
	coordinator := match.NewCoordinator(match.NewPgRepository(pool))

	invalidate := func(r *http.Request, restaurantID uuid.UUID) {
		balanceService.Invalidate(r.Context(), restaurantID)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		OutflowHandler: outflow.NewHandler(logger, outflowService, invalidate),
		MatchHandler:   match.NewHandler(logger, suggestionService, coordinator, feedStore, metrics, invalidate),
		BalanceHandler: balance.NewHandler(logger, balanceService),
		Metrics:        metrics,
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
