package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/altmount-labs/streamio/asynctimeout"
	"github.com/altmount-labs/streamio/buffer"
	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/internal/config"
	"github.com/altmount-labs/streamio/internal/slogutil"
	"github.com/altmount-labs/streamio/segment"
	"github.com/altmount-labs/streamio/taskrunner"
)

func init() {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start a long-lived demo: config-driven task runner and watchdog, until interrupted",
		RunE:  runRun,
	}
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		slog.Default().Error("failed to load config", "err", err)
		return err
	}

	logger := slogutil.SetupLogRotation(cfg.Log)
	slog.SetDefault(logger)

	manager := config.NewManager(cfg, configFile)

	segPool := segment.NewPoolWithOptions("demo", cfg.Segment.PoolPartitions, cfg.Segment.MaxPooledPerPartition)
	slogutil.RegisterDiagnostics("segment_pool", segPool)
	defer slogutil.UnregisterDiagnostics("segment_pool")

	runner := taskrunner.NewRunner(cfg.TaskRunner.MaxWorkers)
	slogutil.RegisterDiagnostics("task_runner", runner)
	defer slogutil.UnregisterDiagnostics("task_runner")

	watchdog := asynctimeout.NewWatchdog()
	defer watchdog.Close()

	queue := runner.NewQueue("demo")

	manager.OnConfigChange(func(oldConfig, newConfig *config.Config) {
		if oldConfig.TaskRunner.MaxWorkers != newConfig.TaskRunner.MaxWorkers {
			logger.Info("task_runner.max_workers changed (restart required to take effect)",
				"old", oldConfig.TaskRunner.MaxWorkers, "new", newConfig.TaskRunner.MaxWorkers)
		}
	})

	tick := 0
	if _, err := queue.ScheduleCron("*/1 * * * *", func(ctx context.Context) error {
		tick++
		logger.Info("demo heartbeat task fired", "tick", tick)
		return nil
	}); err != nil {
		return fmt.Errorf("schedule heartbeat: %w", err)
	}

	if _, err := queue.Execute(func(ctx context.Context) error {
		scope := cancel.Root().WithTimeout(cfg.Timeout.DefaultReadTimeout)
		node := watchdog.Enter(scope, cfg.Timeout.DefaultReadTimeout, func() {
			logger.Warn("startup task watchdog fired")
		})
		defer watchdog.Exit(node)
		logger.Info("startup task running", "max_workers", cfg.TaskRunner.MaxWorkers)

		scratch := buffer.New(segPool)
		_, _ = scratch.Write([]byte("streamio demo startup probe"))
		logger.Info("segment pool warmed", "pooled_segments", segPool.Len(), "scratch_len", scratch.Len())
		return nil
	}); err != nil {
		return fmt.Errorf("execute startup task: %w", err)
	}

	logger.Info("streamio demo running", "config_file", configFile)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	queue.Shutdown()
	select {
	case <-queue.IdleLatch():
	case <-time.After(cfg.TaskRunner.ShutdownGrace):
		logger.Warn("shutdown grace period elapsed with tasks still outstanding")
	}
	runner.Shutdown()
	return nil
}
