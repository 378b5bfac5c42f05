package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/config"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/delivery"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/discord"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/dispatch"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/ledger"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/logging"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/metrics"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/nexus"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/ops"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/poller"
)

func main() {
	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.NexusAPIKey, cfg.BotToken)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	client := nexus.NewClient(cfg.NexusBaseURL, cfg.NexusAPIKey, &http.Client{Timeout: cfg.NexusTimeout})
	resolver := discord.NewRestAdapter(cfg.BotToken, cfg.DiscordTimeout, logger)
	retrier := delivery.NewRetrier(cfg.DeliveryMaxAttempts, logger)
	limiter := delivery.NewSendLimiter(cfg.SendRatePerSec)
	dispatcher := dispatch.New(resolver, retrier, limiter, cfg.GuildID, cfg.MessageChunkLimit, logger)

	onRetryScheduled, onDropped := m.LedgerHooks()
	lgr := ledger.New(client, cfg.StatusRetryBase, cfg.StatusRetryMax, logger, ledger.Hooks{
		OnRetryScheduled: onRetryScheduled,
		OnDropped:        onDropped,
	})
	metrics.RegisterLedgerSize(reg, lgr.Size)

	onProcessed, onDelivered, onFetchFailure, onTickSkipped, onInterval := m.PollerHooks()
	p := poller.New(client, dispatcher, lgr, cfg.PollInterval, cfg.MaxBackoff, cfg.QueueFetchLimit, logger, poller.Hooks{
		OnProcessed:    onProcessed,
		OnDelivered:    onDelivered,
		OnFetchFailure: onFetchFailure,
		OnTickSkipped:  onTickSkipped,
		OnInterval:     onInterval,
	})

	ctx := context.Background()
	p.Start(ctx)

	// ---- ops HTTP server ----
	router := ops.NewRouter(p, lgr.Size, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("ops server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ops server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop scheduling new poll cycles.
	p.Stop()

	// 2. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", zap.Error(err))
	}

	logger.Info("worker stopped cleanly")
}
