// Leadflow Scheduler — создаёт runs по расписаниям.
//
// Несколько экземпляров могут работать одновременно: лидерство
// обеспечивается advisory lock в PostgreSQL, тики выполняет только
// лидер. Потеря соединения освобождает lock, и лидером становится
// другой экземпляр.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/leadflow/internal/config"
	"github.com/shaiso/leadflow/internal/mq"
	"github.com/shaiso/leadflow/internal/repo"
	"github.com/shaiso/leadflow/internal/scheduler"
	"github.com/shaiso/leadflow/internal/telemetry"
)

// schedLockKey — ключ advisory lock лидера scheduler'а.
const schedLockKey int64 = 727272

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.LogLevel)
	logger.Info("starting leadflow-scheduler")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	workflowRepo := repo.NewWorkflowRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ: без брокера runs создаются, но не исполняются
	var publisher *mq.Publisher
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, runs will stay pending", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
	}

	sched := scheduler.New(scheduler.Config{
		ScheduleRepo: scheduleRepo,
		RunRepo:      runRepo,
		WorkflowRepo: workflowRepo,
		Publisher:    publisher,
		Logger:       logger,
	})

	// Цикл тиков: лидер выбирается через advisory lock
	go func() {
		tk := time.NewTicker(time.Duration(cfg.SchedulerTickSec) * time.Second)
		defer tk.Stop()

		var hasLock bool
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			}
		}()

		for {
			select {
			case <-tk.C:
				if !hasLock {
					var ok bool
					if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
						logger.Warn("advisory lock error", "error", err)
						continue
					}
					hasLock = ok
					if ok {
						logger.Info("became scheduler leader")
					}
				}

				if !hasLock {
					// не лидер — пропускаем тик
					continue
				}

				if err := sched.Tick(ctx); err != nil {
					logger.Error("tick failed", "error", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	// healthz + metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("LEADFLOW_SCHEDULER_ADDR"); v != "" {
		port = v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("leadflow-scheduler stopped")
}
