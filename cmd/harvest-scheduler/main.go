// Harvest Scheduler — ставит jobs по расписаниям из конфигурации.
//
// Лидером становится экземпляр, взявший pg_try_advisory_lock;
// остальные пропускают тики.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Harvest/internal/config"
	"github.com/shaiso/Harvest/internal/mq"
	"github.com/shaiso/Harvest/internal/repo"
	"github.com/shaiso/Harvest/internal/scheduler"
	"github.com/shaiso/Harvest/internal/telemetry"
)

const schedLockKey int64 = 424243

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting harvest-scheduler")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load("")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	pool, err := repo.NewPoolDSN(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	scfg := scheduler.Config{
		Schedules: cfg.Schedules,
		Jobs:      repo.NewJobRepo(pool),
		Logger:    logger,
	}

	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, jobs will be picked up by worker polling", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		scfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	sched, err := scheduler.New(scfg)
	if err != nil {
		logger.Error("invalid schedules", "error", err)
		os.Exit(1)
	}
	logger.Info("schedules loaded", "count", sched.Len())

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}
	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	tk := time.NewTicker(time.Second)
	defer tk.Stop()

	var hasLock bool
	defer func() {
		if hasLock {
			_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
		}
	}()

	for {
		select {
		case t := <-tk.C:
			// пытаемся стать лидером
			if !hasLock {
				var ok bool
				if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
					logger.Warn("advisory lock failed", "error", err)
					continue
				}
				if ok {
					logger.Info("acquired scheduler leadership")
				}
				hasLock = ok
			}
			if !hasLock {
				continue
			}
			sched.Tick(ctx, t)

		case <-ctx.Done():
			logger.Info("harvest-scheduler stopped")
			return
		}
	}
}
