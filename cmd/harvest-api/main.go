// Harvest API — HTTP API для запуска jobs и выгрузки exports.
//
// Синхронные jobs выполняются прямо в процессе API; асинхронные
// ставятся в очередь harvest-worker. Без БД и RabbitMQ API работает
// в урезанном режиме: доступен только синхронный запуск.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/Harvest/internal/api"
	"github.com/shaiso/Harvest/internal/config"
	"github.com/shaiso/Harvest/internal/filter"
	"github.com/shaiso/Harvest/internal/mq"
	"github.com/shaiso/Harvest/internal/orchestrator"
	"github.com/shaiso/Harvest/internal/repo"
	"github.com/shaiso/Harvest/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting harvest-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	orch, store, err := orchestrator.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build orchestrator", "error", err)
		os.Exit(1)
	}

	keywords, err := filter.New(cfg.Keywords)
	if err != nil {
		logger.Error("invalid keywords", "error", err)
		os.Exit(1)
	}

	hcfg := api.Config{
		Runner:    orch,
		Artifacts: store,
		Keywords:  keywords,
		Logger:    logger,
	}

	// История jobs
	pool, err := repo.NewPoolDSN(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("database not available, job history disabled", "error", err)
	} else {
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		hcfg.Jobs = repo.NewJobRepo(pool)
		logger.Info("connected to database")
	}

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, enqueue disabled", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		hcfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	mux := http.NewServeMux()
	api.NewHandler(hcfg).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Синхронный job может идти долго: ждём его до таймаута
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
