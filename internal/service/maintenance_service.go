package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/timeguard/internal/config"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// Maintenance task names.
const (
	TaskDatabaseHealth = "database_health"
	TaskAccessLogPurge = "access_log_purge"
	TaskReconcileLists = "reconcile_ip_lists"
)

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// AccessLogPurger deletes access log records older than a cutoff.
type AccessLogPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListReconciler repairs drift between the deny list and the allow list.
type ListReconciler interface {
	Reconcile(ctx context.Context) (int64, error)
}

type maintenanceTask struct {
	name     string
	schedule string
	run      func(ctx context.Context) error
}

// MaintenanceService runs periodic housekeeping jobs on a cron schedule.
type MaintenanceService struct {
	cron  *cron.Cron
	tasks map[string]maintenanceTask
	now   func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMaintenanceService registers the health check, access log purge and
// list reconciliation jobs. A nil dependency skips its job.
func NewMaintenanceService(
	cfg config.MaintenanceSettings,
	db HealthChecker,
	accessLogs AccessLogPurger,
	reconciler ListReconciler,
) *MaintenanceService {
	logger := cronLogger{log.With().Str("component", "maintenance").Logger()}
	s := &MaintenanceService{
		cron:  cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		tasks: make(map[string]maintenanceTask),
		now:   time.Now,
	}

	retention := cfg.AccessLogRetentionDays
	if retention <= 0 {
		retention = constants.DefaultAccessLogRetentionDays
	}

	if db != nil {
		s.register(TaskDatabaseHealth, orDefault(cfg.HealthCheckSchedule, constants.DefaultHealthCheckSchedule),
			db.HealthCheck)
	}
	if accessLogs != nil {
		s.register(TaskAccessLogPurge, orDefault(cfg.AccessLogPurgeSchedule, constants.DefaultAccessLogPurgeSchedule),
			func(ctx context.Context) error {
				cutoff := s.now().AddDate(0, 0, -retention)
				deleted, err := accessLogs.DeleteOlderThan(ctx, cutoff)
				if err != nil {
					return err
				}
				log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Purged old access log records")
				return nil
			})
	}
	if reconciler != nil {
		s.register(TaskReconcileLists, orDefault(cfg.ReconcileSchedule, constants.DefaultReconcileSchedule),
			func(ctx context.Context) error {
				changed, err := reconciler.Reconcile(ctx)
				if err != nil {
					return err
				}
				if changed > 0 {
					log.Warn().Int64("rows", changed).Msg("Reconciled IP allow list with deny list")
				}
				return nil
			})
	}

	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *MaintenanceService) register(name, schedule string, run func(ctx context.Context) error) {
	s.tasks[name] = maintenanceTask{name: name, schedule: schedule, run: run}
}

// Start schedules every registered task. Jobs stop receiving a live context
// once ctx is cancelled or Stop is called.
func (s *MaintenanceService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		task := task
		if _, err := s.cron.AddFunc(task.schedule, func() { s.execute(s.ctx, task) }); err != nil {
			s.cancel()
			return fmt.Errorf("invalid schedule %q for task %s: %w", task.schedule, task.name, err)
		}
		log.Info().Str("task", task.name).Str("schedule", task.schedule).Msg("Maintenance task scheduled")
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *MaintenanceService) Stop() {
	<-s.cron.Stop().Done()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
}

// RunTask executes a task immediately, outside the schedule.
func (s *MaintenanceService) RunTask(ctx context.Context, name string) error {
	task, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("unknown maintenance task %q", name)
	}
	return s.execute(ctx, task)
}

// Tasks returns the registered task names.
func (s *MaintenanceService) Tasks() []string {
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	return names
}

func (s *MaintenanceService) execute(ctx context.Context, task maintenanceTask) error {
	start := time.Now()
	err := task.run(ctx)
	if err != nil {
		log.Error().Err(err).Str("task", task.name).Dur("duration", time.Since(start)).Msg("Maintenance task failed")
		return err
	}
	log.Debug().Str("task", task.name).Dur("duration", time.Since(start)).Msg("Maintenance task completed")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
