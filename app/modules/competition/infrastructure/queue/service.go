package competitionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	"github.com/Black-And-White-Club/stride-league/config"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"
)

// Metrics is the subset of competition metrics the queue records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService defines the contract for competition job scheduling
type QueueService interface {
	// ScheduleSettlement schedules settlement of a competition at the given
	// time and returns the job ID
	ScheduleSettlement(ctx context.Context, competitionID uuid.UUID, at time.Time) (int64, error)
	// CancelSettlement cancels pending settlement jobs for a competition and
	// returns how many were cancelled
	CancelSettlement(ctx context.Context, competitionID uuid.UUID) (int, error)
	// Dispatch enqueues a push notification
	Dispatch(ctx context.Context, n competitionservice.Notification) error
	// GetScheduledJobs returns information about jobs for a competition (for debugging)
	GetScheduledJobs(ctx context.Context, competitionID uuid.UUID) ([]JobInfo, error)
	// HealthCheck verifies the queue service is healthy
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var (
	_ QueueService                              = (*Service)(nil)
	_ competitionservice.NotificationDispatcher = (*Service)(nil)
)

// Service handles job scheduling for the competition module using River
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics Metrics

	mu          sync.RWMutex
	competition competitionservice.Service
}

// NewService creates the River-backed queue. The competition service is
// attached afterwards with AttachCompetitionService, before Start.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics, sender NotificationSender, cfg config.QueueConfig) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_competition_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	ctxLogger.Info("Initializing competition queue service")

	pool, err := newPool(ctx, dsn)
	if err != nil {
		ctxLogger.Error("Failed to open pgx pool for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, err
	}

	service := &Service{
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewSettleCompetitionWorker(ctxLogger, service.competitionService))
	river.AddWorker(workers, NewNotificationWorker(ctxLogger, sender, metrics))
	river.AddWorker(workers, NewPrizePoolAuditWorker(ctxLogger, service.competitionService, cfg.StuckPoolThreshold))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			CompetitionQueue:   {MaxWorkers: cfg.MaxWorkers},
			NotificationQueue:  {MaxWorkers: cfg.NotificationWorkers},
		},
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.AuditInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return PrizePoolAuditJob{}, nil
				},
				nil,
			),
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}
	service.client = riverClient

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Competition queue service initialized successfully")
	return service, nil
}

// NewSchedulerService returns a queue that can schedule, cancel and list jobs
// but runs no workers. Start fails on it; Stop releases its pool.
func NewSchedulerService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics) (*Service, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}
	return &Service{
		client:  client,
		pool:    pool,
		logger:  logger.With(attr.String("component", "river_scheduler")),
		db:      bunDB,
		metrics: metrics,
	}, nil
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	// River requires pgx, not database/sql
	pgxCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// insertSettlement enqueues a settlement job. Duplicate scheduling for the
// same competition is collapsed by River's unique-args check.
func (s *Service) insertSettlement(ctx context.Context, competitionID uuid.UUID, at time.Time) (int64, error) {
	opts := &river.InsertOpts{
		Queue: CompetitionQueue,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	}
	if !at.IsZero() {
		opts.ScheduledAt = at
	}
	res, err := s.client.Insert(ctx, SettleCompetitionJob{CompetitionID: competitionID}, opts)
	if err != nil {
		return 0, err
	}
	return res.Job.ID, nil
}

// AttachCompetitionService sets the service that settlement and audit jobs call.
func (s *Service) AttachCompetitionService(svc competitionservice.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competition = svc
}

func (s *Service) competitionService() competitionservice.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.competition
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")

	if s.competitionService() == nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("competition service must be attached before start")
	}

	s.logger.Info("Starting competition queue service")

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.metrics.RecordOperationDuration(ctx, "start_service", "river", time.Since(start))

	s.logger.Info("Competition queue service started successfully")
	return nil
}

// Stop stops the River queue service and releases its pool
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")

	s.logger.Info("Stopping competition queue service")

	err := s.client.Stop(ctx)
	s.pool.Close()
	if err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.metrics.RecordOperationDuration(ctx, "stop_service", "river", time.Since(start))

	s.logger.Info("Competition queue service stopped successfully")
	return nil
}

// ScheduleSettlement schedules settlement at the given time. A zero or past
// time runs as soon as a worker is free.
func (s *Service) ScheduleSettlement(ctx context.Context, competitionID uuid.UUID, at time.Time) (int64, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_settlement", "river")

	ctxLogger := s.logger.With(
		attr.CompetitionID(competitionID),
		attr.Time("settle_at", at),
		attr.String("operation", "schedule_settlement"),
	)

	if !at.IsZero() && at.Before(time.Now()) {
		ctxLogger.Info("Settlement time already passed, running immediately")
		at = time.Time{}
	}

	jobID, err := s.insertSettlement(ctx, competitionID, at)
	if err != nil {
		ctxLogger.Error("Failed to schedule settlement job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_settlement", "river")
		return 0, fmt.Errorf("failed to schedule settlement job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_settlement", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_settlement", "river", time.Since(start))

	ctxLogger.Info("Settlement job scheduled", attr.Int64("job_id", jobID))
	return jobID, nil
}

// Dispatch enqueues a push notification. Enqueue failures are returned so
// the caller can log them; they never block settlement.
func (s *Service) Dispatch(ctx context.Context, n competitionservice.Notification) error {
	s.metrics.RecordOperationAttempt(ctx, "enqueue_notification", "river")

	if _, err := s.client.Insert(ctx, DispatchNotificationJob{Notification: n}, nil); err != nil {
		s.metrics.RecordOperationFailure(ctx, "enqueue_notification", "river")
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_notification", "river")
	return nil
}

type riverJobRow struct {
	ID          int64          `bun:"id"`
	Kind        string         `bun:"kind"`
	State       string         `bun:"state"`
	Args        map[string]any `bun:"args"`
	ScheduledAt *time.Time     `bun:"scheduled_at"`
	CreatedAt   time.Time      `bun:"created_at"`
	Attempt     int16          `bun:"attempt"`
	MaxAttempts int16          `bun:"max_attempts"`
}

// CancelSettlement cancels settlement jobs that have not run yet
func (s *Service) CancelSettlement(ctx context.Context, competitionID uuid.UUID) (int, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "cancel_settlement", "river")

	ctxLogger := s.logger.With(
		attr.CompetitionID(competitionID),
		attr.String("operation", "cancel_settlement"),
	)

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state").
		Where("kind = ?", SettleCompetitionJob{}.Kind()).
		Where("state IN (?, ?)", "available", "scheduled").
		Where("args->>'competition_id' = ?", competitionID.String()).
		Scan(ctx, &jobs)
	if err != nil {
		ctxLogger.Error("Failed to query jobs for cancellation", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "cancel_settlement", "river")
		return 0, fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	cancelled := 0
	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			ctxLogger.Warn("Failed to cancel job", attr.Int64("job_id", job.ID), attr.Error(err))
			continue
		}
		cancelled++
	}

	if cancelled == len(jobs) {
		s.metrics.RecordOperationSuccess(ctx, "cancel_settlement", "river")
	} else {
		s.metrics.RecordOperationFailure(ctx, "cancel_settlement", "river")
	}
	s.metrics.RecordOperationDuration(ctx, "cancel_settlement", "river", time.Since(start))

	ctxLogger.Info("Settlement cancellation completed",
		attr.Int("total_found", len(jobs)),
		attr.Int("cancelled_count", cancelled))
	return cancelled, nil
}

// GetScheduledJobs returns settlement jobs for a competition (for debugging)
func (s *Service) GetScheduledJobs(ctx context.Context, competitionID uuid.UUID) ([]JobInfo, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "get_scheduled_jobs", "river")

	result, err := listSettlementJobs(ctx, s.db, competitionID)
	if err != nil {
		s.logger.Error("Failed to query scheduled jobs", attr.CompetitionID(competitionID), attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "get_scheduled_jobs", "river")
		return nil, err
	}

	s.metrics.RecordOperationSuccess(ctx, "get_scheduled_jobs", "river")
	s.metrics.RecordOperationDuration(ctx, "get_scheduled_jobs", "river", time.Since(start))
	return result, nil
}

// listSettlementJobs reads settlement jobs for a competition straight from river_job.
func listSettlementJobs(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]JobInfo, error) {
	var jobs []riverJobRow
	err := db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "args", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind = ?", SettleCompetitionJob{}.Kind()).
		Where("args->>'competition_id' = ?", competitionID.String()).
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		result[i] = toJobInfo(job)
	}
	return result, nil
}

func toJobInfo(job riverJobRow) JobInfo {
	scheduledAt := ""
	if job.ScheduledAt != nil {
		scheduledAt = job.ScheduledAt.Format(time.RFC3339)
	}
	competitionID, _ := job.Args["competition_id"].(string)
	return JobInfo{
		ID:            job.ID,
		Kind:          job.Kind,
		CompetitionID: competitionID,
		State:         job.State,
		ScheduledAt:   scheduledAt,
		CreatedAt:     job.CreatedAt.Format(time.RFC3339),
		Attempt:       int(job.Attempt),
		MaxAttempts:   int(job.MaxAttempts),
	}
}

// HealthCheck verifies the queue tables are reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	var count int
	if err := s.db.NewSelect().Table("river_job").ColumnExpr("COUNT(*)").Scan(ctx, &count); err != nil {
		return fmt.Errorf("river health check failed: %w", err)
	}
	return nil
}
