// Concord Runner — выполняет запланированные работы.
//
// Runner:
//   - Запускает RunDueWork по расписанию (scheduler.spec)
//   - Запускает внеочередной проход по сообщению work.nudge из RabbitMQ
//   - Отдаёт /healthz и /metrics на runner_http.addr (RUNNER_PORT)
//
// Runner масштабируется горизонтально: параллельные проходы разных
// процессов разделяются row-блокировками объектов.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Concord/internal/api"
	"github.com/shaiso/Concord/internal/app"
	"github.com/shaiso/Concord/internal/config"
	"github.com/shaiso/Concord/internal/mq"
	"github.com/shaiso/Concord/internal/scheduler"
	"github.com/shaiso/Concord/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var configPath string
	var once bool

	rootCmd := &cobra.Command{
		Use:           "concord-runner",
		Short:         "Concord scheduled work runner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, once)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single pass and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(configPath string, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := telemetry.SetupLogger(cfg.LogSettings())
	logger.Info("starting concord-runner", "version", version)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, "runner")
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := scheduler.New(scheduler.Config{
		Runner: a.Batch,
		Spec:   cfg.Scheduler.Spec,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if once {
		summary, err := sched.Tick(ctx)
		logger.Info("single pass finished",
			"due", summary.Due,
			"processed", summary.Processed,
			"failed", summary.Failed,
			"skipped", summary.Skipped,
		)
		return err
	}

	// RabbitMQ: work.nudge запускает внеочередной проход
	if a.MQ != nil {
		consumer := mq.NewConsumer(a.MQ, logger, mq.ConsumerConfig{
			Queue:   mq.QueueWorkNudge,
			Handler: mq.NudgeHandler(sched, logger),
		})
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("nudge consumer stopped", "error", err)
			}
		}()
		defer consumer.Stop()
	}

	// HTTP: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", api.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.RunnerHTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", cfg.RunnerHTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Первый проход сразу, не дожидаясь расписания
	sched.Nudge()

	if err := sched.Run(ctx); err != nil {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
	return nil
}
