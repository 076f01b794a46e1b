package competitionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/riverqueue/river"
)

// NotificationSender delivers one push request to the notification collaborator.
type NotificationSender interface {
	Send(ctx context.Context, n competitionservice.Notification) error
}

// serviceSource resolves the competition service at work time, since the
// service itself depends on this queue for notification dispatch.
type serviceSource func() competitionservice.Service

// SettleCompetitionWorker settles a competition when its scheduled job fires.
type SettleCompetitionWorker struct {
	river.WorkerDefaults[SettleCompetitionJob]
	service serviceSource
	logger  *slog.Logger
}

// NewSettleCompetitionWorker creates a SettleCompetitionWorker.
func NewSettleCompetitionWorker(logger *slog.Logger, service serviceSource) *SettleCompetitionWorker {
	return &SettleCompetitionWorker{service: service, logger: logger}
}

func (w *SettleCompetitionWorker) Work(ctx context.Context, job *river.Job[SettleCompetitionJob]) error {
	svc := w.service()
	if svc == nil {
		return fmt.Errorf("competition service not attached")
	}

	result, err := svc.SettleCompetition(ctx, job.Args.CompetitionID)
	if err != nil {
		// Returned errors are retried by River with backoff.
		return err
	}
	if result.Failure != nil {
		w.logger.WarnContext(ctx, "Scheduled settlement refused",
			attr.CompetitionID(job.Args.CompetitionID),
			attr.Error(*result.Failure),
		)
		return river.JobCancel(*result.Failure)
	}

	w.logger.InfoContext(ctx, "Scheduled settlement finished",
		attr.CompetitionID(job.Args.CompetitionID),
		attr.Bool("processed", result.Success.Processed),
		attr.String("reason", result.Success.Reason),
	)
	return nil
}

// NotificationWorker sends push requests. Failures are logged and dropped.
type NotificationWorker struct {
	river.WorkerDefaults[DispatchNotificationJob]
	sender  NotificationSender
	logger  *slog.Logger
	metrics Metrics
}

// NewNotificationWorker creates a NotificationWorker.
func NewNotificationWorker(logger *slog.Logger, sender NotificationSender, metrics Metrics) *NotificationWorker {
	return &NotificationWorker{sender: sender, logger: logger, metrics: metrics}
}

func (w *NotificationWorker) Timeout(*river.Job[DispatchNotificationJob]) time.Duration {
	return 15 * time.Second
}

func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[DispatchNotificationJob]) error {
	n := job.Args.Notification
	w.metrics.RecordOperationAttempt(ctx, "dispatch_notification", "river")

	if err := w.sender.Send(ctx, n); err != nil {
		w.logger.WarnContext(ctx, "Notification delivery failed, dropping",
			attr.String("type", n.Type),
			attr.UUID("recipient_user_id", n.RecipientUserID),
			attr.CompetitionID(n.CompetitionID),
			attr.Error(err),
		)
		w.metrics.RecordOperationFailure(ctx, "dispatch_notification", "river")
		return nil
	}

	w.metrics.RecordOperationSuccess(ctx, "dispatch_notification", "river")
	return nil
}

// PrizePoolAuditWorker flags pools stuck in distributing longer than threshold.
type PrizePoolAuditWorker struct {
	river.WorkerDefaults[PrizePoolAuditJob]
	service   serviceSource
	threshold time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewPrizePoolAuditWorker creates a PrizePoolAuditWorker.
func NewPrizePoolAuditWorker(logger *slog.Logger, service serviceSource, threshold time.Duration) *PrizePoolAuditWorker {
	return &PrizePoolAuditWorker{
		service:   service,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *PrizePoolAuditWorker) Work(ctx context.Context, job *river.Job[PrizePoolAuditJob]) error {
	svc := w.service()
	if svc == nil {
		return fmt.Errorf("competition service not attached")
	}

	result, err := svc.AuditPrizePools(ctx, w.now().Add(-w.threshold))
	if err != nil {
		return err
	}
	if result.Success != nil && len(result.Success.Stuck) > 0 {
		w.logger.ErrorContext(ctx, "Prize pool audit found stuck pools",
			attr.Int("stuck_pools", len(result.Success.Stuck)),
			attr.Duration("threshold", w.threshold),
		)
	}
	return nil
}
