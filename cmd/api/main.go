package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/xavierca1/ligue-crm/internal/app"
	"github.com/xavierca1/ligue-crm/internal/config"
	"github.com/xavierca1/ligue-crm/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-crm/internal/infra/logging"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"github.com/xavierca1/ligue-crm/internal/infra/worker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, sync, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{WithQueue: true})
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close()

	// Workers
	if a.Rabbit != nil {
		w := queue.NewWorker(a.Rabbit.Ch, a.Dispatch)
		go func() {
			if err := w.Start(ctx, queue.QueueName); err != nil {
				logger.Error("stage event worker stopped", zap.Error(err))
			}
		}()
	}
	go worker.NewMessageScheduler(a.Dispatch, cfg.SchedulerInterval).Start(ctx)
	go a.Sessions.Run(ctx, 5*time.Minute)

	// Handlers
	health := handlers.NewHealthHandler(a.DB, nil, cfg.Automation.BaseURL, cfg.Version)
	if a.Rabbit != nil {
		health.RabbitMQ = a.Rabbit.Conn
	}

	router := handlers.Router{
		Health:         health,
		Board:          handlers.NewBoardHandler(a.LoadBoard, a.MoveLead, a.Sessions),
		Leads:          handlers.NewLeadHandler(a.ListLeads),
		Stages:         handlers.NewStageHandler(a.Funnels, a.Stages),
		Messages:       handlers.NewMessageHandler(a.StageMessages),
		Cashback:       handlers.NewCashbackHandler(a.Cashback),
		Users:          handlers.NewUserHandler(a.Users),
		Instances:      handlers.NewInstanceHandler(a.Instances),
		Limiter:        handlers.NewRateLimiter(cfg.RateLimitPerMin, time.Minute),
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Ligue CRM API listening", zap.String("addr", cfg.HTTPAddr), zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
