package competitiondb

import (
	"context"
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the persistence surface of the competition module.
// Every method takes a bun.IDB so callers choose between the pool and a transaction.
type Repository interface {
	// --- Competitions & score ledger ---

	// GetCompetition returns ErrNotFound when the competition does not exist.
	GetCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*Competition, error)
	// ListParticipantsByScore returns one consistent snapshot ordered by
	// total_points DESC, id ASC, with team numbers joined in.
	ListParticipantsByScore(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]Participant, error)
	// GetParticipant returns ErrNotFound when the participant is not in the competition.
	GetParticipant(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID) (*Participant, error)
	// LockParticipantScore sets score_locked_at only if it is NULL. It reports
	// whether this call set the lock.
	LockParticipantScore(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, lockedAt time.Time) (bool, error)
	// UpdateParticipantScore writes total_points only while the score is
	// unlocked and the competition is active. It reports whether a row changed.
	UpdateParticipantScore(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, totalPoints float64, now time.Time) (bool, error)
	// MarkPrizeEligible sets prize_eligible for one participant.
	MarkPrizeEligible(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, eligible bool) error
	// SetAllPrizeEligible sets prize_eligible for every participant of a competition.
	SetAllPrizeEligible(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eligible bool) error

	// --- Winner feed ---

	// InsertWinnerRecords inserts results, skipping (user, competition, kind)
	// duplicates, and returns only the rows this call inserted.
	InsertWinnerRecords(ctx context.Context, db bun.IDB, records []CompetitionResult) ([]CompetitionResult, error)

	// --- Prize pool ledger ---

	// GetPrizePool returns ErrNotFound when the competition has no pool.
	GetPrizePool(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*PrizePool, error)
	// CreatePrizePool inserts the pool unless the competition already has one.
	CreatePrizePool(ctx context.Context, db bun.IDB, pool *PrizePool) (bool, error)
	// SetHasPrizePool flags the competition as carrying a pool.
	SetHasPrizePool(ctx context.Context, db bun.IDB, competitionID uuid.UUID) error
	// BeginPoolDistribution moves the pool from active to distributing and
	// returns it. It returns nil, nil when no active pool exists.
	BeginPoolDistribution(ctx context.Context, db bun.IDB, competitionID uuid.UUID, now time.Time) (*PrizePool, error)
	// CompletePoolDistribution moves the pool from distributing to distributed.
	CompletePoolDistribution(ctx context.Context, db bun.IDB, poolID uuid.UUID, now time.Time) error
	// RecordBuyIn inserts a capture unless its payment reference was seen before.
	RecordBuyIn(ctx context.Context, db bun.IDB, buyIn *BuyIn) (bool, error)
	// AddToPoolTotal credits an active pool.
	AddToPoolTotal(ctx context.Context, db bun.IDB, poolID uuid.UUID, amount competitiondomain.Cents, now time.Time) error
	// SumBuyIns returns the total captured for a pool.
	SumBuyIns(ctx context.Context, db bun.IDB, poolID uuid.UUID) (competitiondomain.Cents, error)
	// ListStuckPools returns pools left in distributing since before olderThan.
	ListStuckPools(ctx context.Context, db bun.IDB, olderThan time.Time) ([]StuckPool, error)

	// --- Payout record store ---

	// CountPayouts returns how many payouts exist for the competition.
	CountPayouts(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (int, error)
	// InsertPayouts inserts payouts, skipping (competition, user, placement)
	// duplicates, and returns the number inserted.
	InsertPayouts(ctx context.Context, db bun.IDB, payouts []PrizePayout) (int, error)
	// ListPayouts returns payouts ordered by placement then user.
	ListPayouts(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]PrizePayout, error)
	// GetPayout returns ErrNotFound when the payout does not exist.
	GetPayout(ctx context.Context, db bun.IDB, payoutID uuid.UUID) (*PrizePayout, error)
	// ClaimPayout moves an unexpired unclaimed payout owned by userID to claimed.
	// It reports whether the transition happened.
	ClaimPayout(ctx context.Context, db bun.IDB, payoutID, userID uuid.UUID, now time.Time) (bool, error)

	// --- Profiles ---

	// GetUserProfiles returns the profiles found for userIDs.
	GetUserProfiles(ctx context.Context, db bun.IDB, userIDs []uuid.UUID) ([]UserProfile, error)
}
