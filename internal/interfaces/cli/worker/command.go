// Package worker runs the background jobs: reconciliation replay and
// subscription expiry.
package worker

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/opensox/paygate/internal/infrastructure/config"
	"github.com/opensox/paygate/internal/infrastructure/database"
	"github.com/opensox/paygate/internal/infrastructure/scheduler"
	httpRouter "github.com/opensox/paygate/internal/interfaces/http"
	"github.com/opensox/paygate/internal/shared/logger"
)

var (
	env        string
	configPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background jobs",
		Long:  `Replay payments flagged for reconciliation and expire lapsed subscriptions on a schedule.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger().Named("worker")
	log.Infow("starting worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	var redisClient *redis.Client
	if cfg.Events.Backend == "redis" {
		redisClient, err = httpRouter.NewRedisClient(cfg, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	publisher, closePublisher, err := httpRouter.NewEventPublisher(cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closePublisher(); err != nil {
			log.Errorw("failed to close event publisher", "error", err)
		}
	}()

	ucs, err := httpRouter.NewUseCases(database.Get(), cfg, publisher, log)
	if err != nil {
		return err
	}

	schedulerManager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := schedulerManager.RegisterReconciliationJobs(ucs.RetryReconciliation, cfg.Reconciliation.Interval); err != nil {
		return fmt.Errorf("failed to register reconciliation jobs: %w", err)
	}
	if err := schedulerManager.RegisterSubscriptionJobs(ucs.ExpireSubscriptions, cfg.Reconciliation.Interval); err != nil {
		return fmt.Errorf("failed to register subscription jobs: %w", err)
	}

	schedulerManager.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down worker...")
	if err := schedulerManager.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
		return err
	}

	log.Infow("worker exited gracefully")
	return nil
}
