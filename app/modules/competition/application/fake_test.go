package competitionservice

import (
	"context"
	"sync"
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Competition Repo
// ------------------------

// FakeCompetitionRepository provides a programmable stub for competitiondb.Repository.
// Unset funcs fall back to zero values (or ErrNotFound for single-row reads).
type FakeCompetitionRepository struct {
	mu    sync.Mutex
	trace []string

	GetCompetitionFunc           func(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*competitiondb.Competition, error)
	ListParticipantsByScoreFunc  func(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]competitiondb.Participant, error)
	GetParticipantFunc           func(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID) (*competitiondb.Participant, error)
	LockParticipantScoreFunc     func(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, lockedAt time.Time) (bool, error)
	UpdateParticipantScoreFunc   func(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, totalPoints float64, now time.Time) (bool, error)
	MarkPrizeEligibleFunc        func(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, eligible bool) error
	SetAllPrizeEligibleFunc      func(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eligible bool) error
	InsertWinnerRecordsFunc      func(ctx context.Context, db bun.IDB, records []competitiondb.CompetitionResult) ([]competitiondb.CompetitionResult, error)
	GetPrizePoolFunc             func(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*competitiondb.PrizePool, error)
	CreatePrizePoolFunc          func(ctx context.Context, db bun.IDB, pool *competitiondb.PrizePool) (bool, error)
	SetHasPrizePoolFunc          func(ctx context.Context, db bun.IDB, competitionID uuid.UUID) error
	BeginPoolDistributionFunc    func(ctx context.Context, db bun.IDB, competitionID uuid.UUID, now time.Time) (*competitiondb.PrizePool, error)
	CompletePoolDistributionFunc func(ctx context.Context, db bun.IDB, poolID uuid.UUID, now time.Time) error
	RecordBuyInFunc              func(ctx context.Context, db bun.IDB, buyIn *competitiondb.BuyIn) (bool, error)
	AddToPoolTotalFunc           func(ctx context.Context, db bun.IDB, poolID uuid.UUID, amount competitiondomain.Cents, now time.Time) error
	SumBuyInsFunc                func(ctx context.Context, db bun.IDB, poolID uuid.UUID) (competitiondomain.Cents, error)
	ListStuckPoolsFunc           func(ctx context.Context, db bun.IDB, olderThan time.Time) ([]competitiondb.StuckPool, error)
	CountPayoutsFunc             func(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (int, error)
	InsertPayoutsFunc            func(ctx context.Context, db bun.IDB, payouts []competitiondb.PrizePayout) (int, error)
	ListPayoutsFunc              func(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]competitiondb.PrizePayout, error)
	GetPayoutFunc                func(ctx context.Context, db bun.IDB, payoutID uuid.UUID) (*competitiondb.PrizePayout, error)
	ClaimPayoutFunc              func(ctx context.Context, db bun.IDB, payoutID, userID uuid.UUID, now time.Time) (bool, error)
	GetUserProfilesFunc          func(ctx context.Context, db bun.IDB, userIDs []uuid.UUID) ([]competitiondb.UserProfile, error)
}

// NewFakeCompetitionRepository initializes a new FakeCompetitionRepository with an empty trace.
func NewFakeCompetitionRepository() *FakeCompetitionRepository {
	return &FakeCompetitionRepository{trace: []string{}}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeCompetitionRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeCompetitionRepository) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeCompetitionRepository) GetCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*competitiondb.Competition, error) {
	f.record("GetCompetition")
	if f.GetCompetitionFunc != nil {
		return f.GetCompetitionFunc(ctx, db, competitionID)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepository) ListParticipantsByScore(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]competitiondb.Participant, error) {
	f.record("ListParticipantsByScore")
	if f.ListParticipantsByScoreFunc != nil {
		return f.ListParticipantsByScoreFunc(ctx, db, competitionID)
	}
	return []competitiondb.Participant{}, nil
}

func (f *FakeCompetitionRepository) GetParticipant(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID) (*competitiondb.Participant, error) {
	f.record("GetParticipant")
	if f.GetParticipantFunc != nil {
		return f.GetParticipantFunc(ctx, db, competitionID, participantID)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepository) LockParticipantScore(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, lockedAt time.Time) (bool, error) {
	f.record("LockParticipantScore")
	if f.LockParticipantScoreFunc != nil {
		return f.LockParticipantScoreFunc(ctx, db, competitionID, participantID, lockedAt)
	}
	return true, nil
}

func (f *FakeCompetitionRepository) UpdateParticipantScore(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, totalPoints float64, now time.Time) (bool, error) {
	f.record("UpdateParticipantScore")
	if f.UpdateParticipantScoreFunc != nil {
		return f.UpdateParticipantScoreFunc(ctx, db, competitionID, participantID, totalPoints, now)
	}
	return true, nil
}

func (f *FakeCompetitionRepository) MarkPrizeEligible(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, eligible bool) error {
	f.record("MarkPrizeEligible")
	if f.MarkPrizeEligibleFunc != nil {
		return f.MarkPrizeEligibleFunc(ctx, db, competitionID, participantID, eligible)
	}
	return nil
}

func (f *FakeCompetitionRepository) SetAllPrizeEligible(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eligible bool) error {
	f.record("SetAllPrizeEligible")
	if f.SetAllPrizeEligibleFunc != nil {
		return f.SetAllPrizeEligibleFunc(ctx, db, competitionID, eligible)
	}
	return nil
}

func (f *FakeCompetitionRepository) InsertWinnerRecords(ctx context.Context, db bun.IDB, records []competitiondb.CompetitionResult) ([]competitiondb.CompetitionResult, error) {
	f.record("InsertWinnerRecords")
	if f.InsertWinnerRecordsFunc != nil {
		return f.InsertWinnerRecordsFunc(ctx, db, records)
	}
	return records, nil
}

func (f *FakeCompetitionRepository) GetPrizePool(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*competitiondb.PrizePool, error) {
	f.record("GetPrizePool")
	if f.GetPrizePoolFunc != nil {
		return f.GetPrizePoolFunc(ctx, db, competitionID)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepository) CreatePrizePool(ctx context.Context, db bun.IDB, pool *competitiondb.PrizePool) (bool, error) {
	f.record("CreatePrizePool")
	if f.CreatePrizePoolFunc != nil {
		return f.CreatePrizePoolFunc(ctx, db, pool)
	}
	return true, nil
}

func (f *FakeCompetitionRepository) SetHasPrizePool(ctx context.Context, db bun.IDB, competitionID uuid.UUID) error {
	f.record("SetHasPrizePool")
	if f.SetHasPrizePoolFunc != nil {
		return f.SetHasPrizePoolFunc(ctx, db, competitionID)
	}
	return nil
}

func (f *FakeCompetitionRepository) BeginPoolDistribution(ctx context.Context, db bun.IDB, competitionID uuid.UUID, now time.Time) (*competitiondb.PrizePool, error) {
	f.record("BeginPoolDistribution")
	if f.BeginPoolDistributionFunc != nil {
		return f.BeginPoolDistributionFunc(ctx, db, competitionID, now)
	}
	return nil, nil
}

func (f *FakeCompetitionRepository) CompletePoolDistribution(ctx context.Context, db bun.IDB, poolID uuid.UUID, now time.Time) error {
	f.record("CompletePoolDistribution")
	if f.CompletePoolDistributionFunc != nil {
		return f.CompletePoolDistributionFunc(ctx, db, poolID, now)
	}
	return nil
}

func (f *FakeCompetitionRepository) RecordBuyIn(ctx context.Context, db bun.IDB, buyIn *competitiondb.BuyIn) (bool, error) {
	f.record("RecordBuyIn")
	if f.RecordBuyInFunc != nil {
		return f.RecordBuyInFunc(ctx, db, buyIn)
	}
	return true, nil
}

func (f *FakeCompetitionRepository) AddToPoolTotal(ctx context.Context, db bun.IDB, poolID uuid.UUID, amount competitiondomain.Cents, now time.Time) error {
	f.record("AddToPoolTotal")
	if f.AddToPoolTotalFunc != nil {
		return f.AddToPoolTotalFunc(ctx, db, poolID, amount, now)
	}
	return nil
}

func (f *FakeCompetitionRepository) SumBuyIns(ctx context.Context, db bun.IDB, poolID uuid.UUID) (competitiondomain.Cents, error) {
	f.record("SumBuyIns")
	if f.SumBuyInsFunc != nil {
		return f.SumBuyInsFunc(ctx, db, poolID)
	}
	return 0, nil
}

func (f *FakeCompetitionRepository) ListStuckPools(ctx context.Context, db bun.IDB, olderThan time.Time) ([]competitiondb.StuckPool, error) {
	f.record("ListStuckPools")
	if f.ListStuckPoolsFunc != nil {
		return f.ListStuckPoolsFunc(ctx, db, olderThan)
	}
	return nil, nil
}

func (f *FakeCompetitionRepository) CountPayouts(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (int, error) {
	f.record("CountPayouts")
	if f.CountPayoutsFunc != nil {
		return f.CountPayoutsFunc(ctx, db, competitionID)
	}
	return 0, nil
}

func (f *FakeCompetitionRepository) InsertPayouts(ctx context.Context, db bun.IDB, payouts []competitiondb.PrizePayout) (int, error) {
	f.record("InsertPayouts")
	if f.InsertPayoutsFunc != nil {
		return f.InsertPayoutsFunc(ctx, db, payouts)
	}
	return len(payouts), nil
}

func (f *FakeCompetitionRepository) ListPayouts(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]competitiondb.PrizePayout, error) {
	f.record("ListPayouts")
	if f.ListPayoutsFunc != nil {
		return f.ListPayoutsFunc(ctx, db, competitionID)
	}
	return nil, nil
}

func (f *FakeCompetitionRepository) GetPayout(ctx context.Context, db bun.IDB, payoutID uuid.UUID) (*competitiondb.PrizePayout, error) {
	f.record("GetPayout")
	if f.GetPayoutFunc != nil {
		return f.GetPayoutFunc(ctx, db, payoutID)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepository) ClaimPayout(ctx context.Context, db bun.IDB, payoutID, userID uuid.UUID, now time.Time) (bool, error) {
	f.record("ClaimPayout")
	if f.ClaimPayoutFunc != nil {
		return f.ClaimPayoutFunc(ctx, db, payoutID, userID, now)
	}
	return true, nil
}

func (f *FakeCompetitionRepository) GetUserProfiles(ctx context.Context, db bun.IDB, userIDs []uuid.UUID) ([]competitiondb.UserProfile, error) {
	f.record("GetUserProfiles")
	if f.GetUserProfilesFunc != nil {
		return f.GetUserProfilesFunc(ctx, db, userIDs)
	}
	return nil, nil
}

// Ensure the fake actually satisfies the interface
var _ competitiondb.Repository = (*FakeCompetitionRepository)(nil)

// ------------------------
// Fake collaborators
// ------------------------

// FakeDispatcher records notifications handed to it.
type FakeDispatcher struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
}

func (f *FakeDispatcher) Dispatch(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.sent = append(f.sent, n)
	return nil
}

// Sent returns a copy of the notifications dispatched so far.
func (f *FakeDispatcher) Sent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.sent...)
}

// FakeFeed records winner-feed records published to it.
type FakeFeed struct {
	mu        sync.Mutex
	published []WinnerFeedRecord
	Err       error
}

func (f *FakeFeed) PublishCompetitionWon(_ context.Context, record WinnerFeedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.published = append(f.published, record)
	return nil
}

// Published returns a copy of the records published so far.
func (f *FakeFeed) Published() []WinnerFeedRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]WinnerFeedRecord(nil), f.published...)
}

var (
	_ NotificationDispatcher = (*FakeDispatcher)(nil)
	_ WinnerFeedPublisher    = (*FakeFeed)(nil)
)
