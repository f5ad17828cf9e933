// Package scheduler runs periodic jobs on a single gocron v2 scheduler.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// Pruner drops stale in-process state and reports how many entries it removed.
type Pruner interface {
	Prune() int
}

// NamedPruner labels a Pruner for logging.
type NamedPruner struct {
	Name   string
	Pruner Pruner
}

// SchedulerManager manages all scheduled jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// ========================================
// Reconciliation Jobs
// ========================================

// RegisterReconciliationJobs replays pending reconciliation flags every interval.
func (m *SchedulerManager) RegisterReconciliationJobs(retryJob BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runBatch(ctx, "reconciliation replay", retryJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("reconciliation", "replay"),
		gocron.WithName("reconciliation-replay"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reconciliation jobs", "interval", interval)
	return nil
}

// ========================================
// Subscription Jobs
// ========================================

// RegisterSubscriptionJobs marks active subscriptions past their end date as expired.
func (m *SchedulerManager) RegisterSubscriptionJobs(expireSubscriptionsJob BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.runBatch(ctx, "subscription expiry", expireSubscriptionsJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("subscription", "expire"),
		gocron.WithName("subscription-expire"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered subscription jobs", "interval", interval)
	return nil
}

func (m *SchedulerManager) runBatch(ctx context.Context, name string, job BatchJob) {
	m.logger.Debugw("batch job started", "job", name)

	startTime := biztime.NowUTC()

	count, err := job.Execute(ctx)
	if err != nil {
		// Shutdown cancels the context; that is not a job failure.
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		m.logger.Errorw("batch job failed",
			"job", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow("batch job processed items",
			"job", name,
			"count", count,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("batch job found nothing to process",
			"job", name,
			"duration", time.Since(startTime),
		)
	}
}

// ========================================
// Maintenance Jobs
// ========================================

// RegisterMaintenanceJobs prunes in-process admission state. It must run in the
// process that owns the guard and limiter tables.
func (m *SchedulerManager) RegisterMaintenanceJobs(interval time.Duration, pruners ...NamedPruner) error {
	if len(pruners) == 0 {
		return nil
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			m.prune(pruners)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("maintenance", "prune"),
		gocron.WithName("admission-prune"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered maintenance jobs", "interval", interval, "pruners", len(pruners))
	return nil
}

func (m *SchedulerManager) prune(pruners []NamedPruner) {
	for _, p := range pruners {
		if removed := p.Pruner.Prune(); removed > 0 {
			m.logger.Debugw("pruned stale entries", "store", p.Name, "removed", removed)
		}
	}
}

// ========================================
// Scheduler Lifecycle Methods
// ========================================

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
