package competitionservice

import (
	"context"
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/google/uuid"
)

// Service is the typed command surface of the competition settlement subsystem.
// Business failures are returned in the result; the error return is reserved
// for infrastructure failures the caller may retry.
type Service interface {
	// SettleCompetition turns a completed competition into winner records and
	// payouts. Safe to call any number of times, concurrently.
	SettleCompetition(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[SettlementResult, error], error)

	// LockScore sets the one-way score lock for a participant owned by callerID.
	LockScore(ctx context.Context, competitionID, participantID, callerID uuid.UUID) (results.OperationResult[LockResult, error], error)
	// SyncScore writes a participant's running total while unlocked and active.
	SyncScore(ctx context.Context, competitionID, participantID, callerID uuid.UUID, totalPoints float64) (results.OperationResult[SyncResult, error], error)
	// GetStandings ranks one snapshot of the score ledger.
	GetStandings(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[Standings, error], error)

	// CreatePrizePool attaches a pool to a competition. Creator only.
	CreatePrizePool(ctx context.Context, competitionID, callerID uuid.UUID, input competitiondomain.PoolInput) (results.OperationResult[PrizePoolView, error], error)
	// GetPrizePool returns the pool with its captured total.
	GetPrizePool(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[PrizePoolView, error], error)
	// CaptureBuyIn credits a captured buy-in to the pool, once per payment reference.
	CaptureBuyIn(ctx context.Context, competitionID, participantID uuid.UUID, paymentRef string, amount competitiondomain.Cents) (results.OperationResult[BuyInResult, error], error)

	// ListPayouts returns payouts with lazily evaluated claim status. Recipient
	// details are redacted unless the caller is the creator or the recipient.
	ListPayouts(ctx context.Context, competitionID, callerID uuid.UUID) (results.OperationResult[[]PayoutView, error], error)
	// ClaimPayout moves a payout owned by callerID from unclaimed to claimed.
	ClaimPayout(ctx context.Context, payoutID, callerID uuid.UUID) (results.OperationResult[ClaimResult, error], error)
	// GetPayoutReport gathers the reconciliation report. Creator only.
	GetPayoutReport(ctx context.Context, competitionID, callerID uuid.UUID) (results.OperationResult[PayoutReport, error], error)

	// AuditPrizePools flags pools left in distributing since before olderThan.
	AuditPrizePools(ctx context.Context, olderThan time.Time) (results.OperationResult[AuditResult, error], error)
}

// NotificationDispatcher hands push requests to an at-most-once, non-blocking channel.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// WinnerFeedPublisher emits winner-feed records for the activity feed.
type WinnerFeedPublisher interface {
	PublishCompetitionWon(ctx context.Context, record WinnerFeedRecord) error
}
