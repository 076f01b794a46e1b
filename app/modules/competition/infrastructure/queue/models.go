package competitionqueue

import (
	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

const (
	// CompetitionQueue runs settlement and audit jobs.
	CompetitionQueue = "competition"
	// NotificationQueue runs push dispatches.
	NotificationQueue = "notifications"
)

// SettleCompetitionJob runs settlement for a competition at its scheduled end.
type SettleCompetitionJob struct {
	CompetitionID uuid.UUID `json:"competition_id"`
}

// Kind returns the job type identifier for River
func (SettleCompetitionJob) Kind() string { return "settle_competition" }

// DispatchNotificationJob carries one push request. It is attempted once.
type DispatchNotificationJob struct {
	Notification competitionservice.Notification `json:"notification"`
}

// Kind returns the job type identifier for River
func (DispatchNotificationJob) Kind() string { return "dispatch_notification" }

// InsertOpts makes delivery at-most-once.
func (DispatchNotificationJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       NotificationQueue,
		MaxAttempts: 1,
	}
}

// PrizePoolAuditJob looks for pools stuck in distributing.
type PrizePoolAuditJob struct{}

// Kind returns the job type identifier for River
func (PrizePoolAuditJob) Kind() string { return "prize_pool_audit" }

// InsertOpts keeps the audit on the competition queue.
func (PrizePoolAuditJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: CompetitionQueue}
}

// JobInfo represents information about a scheduled job (for debugging/monitoring)
type JobInfo struct {
	ID            int64  `json:"id"`
	Kind          string `json:"kind"`
	CompetitionID string `json:"competition_id"`
	State         string `json:"state"`
	ScheduledAt   string `json:"scheduled_at"`
	CreatedAt     string `json:"created_at"`
	Attempt       int    `json:"attempt"`
	MaxAttempts   int    `json:"max_attempts"`
}
