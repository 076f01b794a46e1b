package competitionservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type settleFixture struct {
	repo          *memoryRepository
	competitionID uuid.UUID
	users         []uuid.UUID
}

// individualFixture seeds a completed individual competition with a $100.00
// pool paying 60/40 and three eligible participants scoring 300/200/100.
func individualFixture() settleFixture {
	repo := newMemoryRepository()
	competitionID := uuid.New()
	repo.addCompetition(competitiondb.Competition{
		ID:            competitionID,
		Name:          "October Miles",
		CreatorUserID: uuid.New(),
		Status:        competitiondomain.CompetitionCompleted,
	})
	repo.addPool(competitiondb.PrizePool{
		ID:              uuid.New(),
		CompetitionID:   competitionID,
		PoolType:        competitiondomain.PoolTypeFixed,
		TotalAmount:     10000,
		PayoutStructure: competitiondomain.PayoutStructure{"first": 60, "second": 40},
		Status:          competitiondomain.PoolActive,
	})

	users := make([]uuid.UUID, 3)
	for i, points := range []float64{300, 200, 100} {
		users[i] = uuid.New()
		repo.addParticipant(competitiondb.Participant{
			ID:            uuid.New(),
			CompetitionID: competitionID,
			UserID:        users[i],
			TotalPoints:   points,
			PrizeEligible: true,
		})
		repo.addProfile(competitiondb.UserProfile{UserID: users[i], DisplayName: "runner"})
	}
	return settleFixture{repo: repo, competitionID: competitionID, users: users}
}

func payoutsByUser(payouts []competitiondb.PrizePayout) map[uuid.UUID]competitiondomain.Cents {
	out := make(map[uuid.UUID]competitiondomain.Cents, len(payouts))
	for _, p := range payouts {
		out[p.UserID] += p.Amount
	}
	return out
}

func TestSettleCompetition_IndividualPayouts(t *testing.T) {
	fx := individualFixture()
	svc, dispatcher, feed := newTestService(fx.repo)

	res, err := svc.SettleCompetition(context.Background(), fx.competitionID)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	got := *res.Success
	assert.True(t, got.Processed)
	assert.Equal(t, ReasonSettled, got.Reason)
	assert.Equal(t, 1, got.WinnersRecorded)
	assert.Equal(t, 2, got.PayoutsCreated)
	assert.Equal(t, competitiondomain.Cents(10000), got.TotalDistributed)

	payouts := fx.repo.allPayouts()
	require.Len(t, payouts, 2)
	byUser := payoutsByUser(payouts)
	assert.Equal(t, competitiondomain.Cents(6000), byUser[fx.users[0]])
	assert.Equal(t, competitiondomain.Cents(4000), byUser[fx.users[1]])
	assert.NotContains(t, byUser, fx.users[2])

	for _, p := range payouts {
		assert.Equal(t, competitiondomain.ClaimUnclaimed, p.ClaimStatus)
		assert.Equal(t, testNow.Add(competitiondomain.ClaimWindow), p.ClaimExpires)
		assert.Equal(t, "runner", p.Recipient.DisplayName)
	}

	pool := fx.repo.pool(fx.competitionID)
	assert.Equal(t, competitiondomain.PoolDistributed, pool.Status)
	require.NotNil(t, pool.DistributedAt)

	require.Len(t, feed.Published(), 1)
	assert.Equal(t, fx.users[0], feed.Published()[0].UserID)

	var won, paid int
	for _, n := range dispatcher.Sent() {
		switch n.Type {
		case NotificationCompetitionWon:
			won++
		case NotificationPrizePayout:
			paid++
			require.NotNil(t, n.PayoutID)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 2, paid)
}

func TestSettleCompetition_FractionalSharesSettle(t *testing.T) {
	fx := individualFixture()
	fx.repo.addPool(competitiondb.PrizePool{
		ID:              uuid.New(),
		CompetitionID:   fx.competitionID,
		PoolType:        competitiondomain.PoolTypeFixed,
		TotalAmount:     10000,
		PayoutStructure: competitiondomain.PayoutStructure{"first": 0.005, "second": 99.995},
		Status:          competitiondomain.PoolActive,
	})
	svc, _, _ := newTestService(fx.repo)

	res, err := svc.SettleCompetition(context.Background(), fx.competitionID)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Equal(t, ReasonSettled, res.Success.Reason)
	assert.Equal(t, 1, res.Success.PayoutsCreated)
	assert.Equal(t, competitiondomain.Cents(9999), res.Success.TotalDistributed)

	byUser := payoutsByUser(fx.repo.allPayouts())
	assert.Equal(t, competitiondomain.Cents(9999), byUser[fx.users[1]])
	assert.NotContains(t, byUser, fx.users[0])
	assert.Equal(t, competitiondomain.PoolDistributed, fx.repo.pool(fx.competitionID).Status)
}

func TestSettleCompetition_RepeatIsNoOp(t *testing.T) {
	fx := individualFixture()
	svc, dispatcher, feed := newTestService(fx.repo)
	ctx := context.Background()

	_, err := svc.SettleCompetition(ctx, fx.competitionID)
	require.NoError(t, err)
	sentAfterFirst := len(dispatcher.Sent())

	res, err := svc.SettleCompetition(ctx, fx.competitionID)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.False(t, res.Success.Processed)
	assert.True(t, res.Success.AlreadySettled)
	assert.Equal(t, ReasonAlreadySettled, res.Success.Reason)
	assert.Zero(t, res.Success.WinnersRecorded)

	assert.Len(t, fx.repo.allPayouts(), 2)
	assert.Len(t, fx.repo.allResults(), 1)
	assert.Len(t, feed.Published(), 1)
	assert.Len(t, dispatcher.Sent(), sentAfterFirst)
}

func TestSettleCompetition_ConcurrentCallsPayOnce(t *testing.T) {
	fx := individualFixture()
	svc, dispatcher, _ := newTestService(fx.repo)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.SettleCompetition(context.Background(), fx.competitionID)
			if !assert.NoError(t, err) || !assert.True(t, res.IsSuccess()) {
				return
			}
			if res.Success.Processed {
				mu.Lock()
				processed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, processed)
	assert.Len(t, fx.repo.allPayouts(), 2)
	assert.Len(t, fx.repo.allResults(), 1)

	won := 0
	for _, n := range dispatcher.Sent() {
		if n.Type == NotificationCompetitionWon {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestSettleCompetition_TeamAveragesAndSplits(t *testing.T) {
	repo := newMemoryRepository()
	competitionID := uuid.New()
	repo.addCompetition(competitiondb.Competition{
		ID:                competitionID,
		Name:              "Team Relay",
		Status:            competitiondomain.CompetitionCompleted,
		IsTeamCompetition: true,
	})
	repo.addPool(competitiondb.PrizePool{
		ID:              uuid.New(),
		CompetitionID:   competitionID,
		PoolType:        competitiondomain.PoolTypeFixed,
		TotalAmount:     10000,
		PayoutStructure: competitiondomain.PayoutStructure{"first": 50, "second": 10},
		Status:          competitiondomain.PoolActive,
	})

	teamA, teamB := uuid.New(), uuid.New()
	repo.addTeam(competitiondb.Team{ID: teamA, CompetitionID: competitionID, TeamNumber: 1})
	repo.addTeam(competitiondb.Team{ID: teamB, CompetitionID: competitionID, TeamNumber: 2})

	user1, user2, user3 := uuid.New(), uuid.New(), uuid.New()
	for _, p := range []struct {
		user   uuid.UUID
		team   uuid.UUID
		points float64
	}{{user1, teamA, 100}, {user2, teamA, 50}, {user3, teamB, 120}} {
		team := p.team
		repo.addParticipant(competitiondb.Participant{
			ID:            uuid.New(),
			CompetitionID: competitionID,
			UserID:        p.user,
			TeamID:        &team,
			TotalPoints:   p.points,
			PrizeEligible: true,
		})
	}

	svc, _, feed := newTestService(repo)
	res, err := svc.SettleCompetition(context.Background(), competitionID)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Equal(t, 3, res.Success.PayoutsCreated)

	byUser := payoutsByUser(repo.allPayouts())
	assert.Equal(t, competitiondomain.Cents(5000), byUser[user3])
	assert.Equal(t, competitiondomain.Cents(500), byUser[user1])
	assert.Equal(t, competitiondomain.Cents(500), byUser[user2])

	require.Len(t, feed.Published(), 1)
	assert.Equal(t, user3, feed.Published()[0].UserID)
	assert.True(t, feed.Published()[0].IsTeamWin)
}

func TestSettleCompetition_IneligibleLeaderSkipped(t *testing.T) {
	fx := individualFixture()
	participants, err := fx.repo.ListParticipantsByScore(context.Background(), nil, fx.competitionID)
	require.NoError(t, err)
	require.NoError(t, fx.repo.MarkPrizeEligible(context.Background(), nil, fx.competitionID, participants[0].ID, false))

	svc, _, feed := newTestService(fx.repo)
	_, err = svc.SettleCompetition(context.Background(), fx.competitionID)
	require.NoError(t, err)

	byUser := payoutsByUser(fx.repo.allPayouts())
	assert.NotContains(t, byUser, fx.users[0])
	assert.Equal(t, competitiondomain.Cents(6000), byUser[fx.users[1]])
	assert.Equal(t, competitiondomain.Cents(4000), byUser[fx.users[2]])

	// The winner feed follows the standings, not eligibility.
	require.Len(t, feed.Published(), 1)
	assert.Equal(t, fx.users[0], feed.Published()[0].UserID)
}

func TestSettleCompetition_Gates(t *testing.T) {
	competitionID := uuid.New()
	completed := func(hasPool bool) func(context.Context, bun.IDB, uuid.UUID) (*competitiondb.Competition, error) {
		return func(context.Context, bun.IDB, uuid.UUID) (*competitiondb.Competition, error) {
			return &competitiondb.Competition{ID: competitionID, Status: competitiondomain.CompetitionCompleted, HasPrizePool: hasPool}, nil
		}
	}
	activePool := &competitiondb.PrizePool{
		ID:              uuid.New(),
		CompetitionID:   competitionID,
		TotalAmount:     1000,
		PayoutStructure: competitiondomain.PayoutStructure{"first": 100},
		Status:          competitiondomain.PoolDistributing,
	}

	tests := []struct {
		name          string
		setup         func(f *FakeCompetitionRepository)
		wantErr       bool
		wantFailure   error
		wantReason    string
		wantProcessed bool
		wantNoTrace   []string
	}{
		{
			name:        "unknown competition",
			setup:       func(f *FakeCompetitionRepository) {},
			wantFailure: ErrNotFound,
			wantNoTrace: []string{"ListParticipantsByScore"},
		},
		{
			name: "competition still active",
			setup: func(f *FakeCompetitionRepository) {
				f.GetCompetitionFunc = func(context.Context, bun.IDB, uuid.UUID) (*competitiondb.Competition, error) {
					return &competitiondb.Competition{ID: competitionID, Status: competitiondomain.CompetitionActive, HasPrizePool: true}, nil
				}
			},
			wantReason:  ReasonNotCompleted,
			wantNoTrace: []string{"ListParticipantsByScore", "InsertWinnerRecords", "BeginPoolDistribution"},
		},
		{
			name: "no prize pool flag",
			setup: func(f *FakeCompetitionRepository) {
				f.GetCompetitionFunc = completed(false)
			},
			wantReason:    ReasonSettled,
			wantProcessed: true,
			wantNoTrace:   []string{"BeginPoolDistribution"},
		},
		{
			name: "flag set but pool missing",
			setup: func(f *FakeCompetitionRepository) {
				f.GetCompetitionFunc = completed(true)
			},
			wantReason:    ReasonNoPrizePool,
			wantProcessed: true,
			wantNoTrace:   []string{"CountPayouts"},
		},
		{
			name: "pool already taken",
			setup: func(f *FakeCompetitionRepository) {
				f.GetCompetitionFunc = completed(true)
				f.GetPrizePoolFunc = func(context.Context, bun.IDB, uuid.UUID) (*competitiondb.PrizePool, error) {
					return activePool, nil
				}
			},
			wantReason:  ReasonAlreadySettled,
			wantNoTrace: []string{"CountPayouts", "InsertPayouts"},
		},
		{
			name: "payouts already exist",
			setup: func(f *FakeCompetitionRepository) {
				f.GetCompetitionFunc = completed(true)
				f.BeginPoolDistributionFunc = func(context.Context, bun.IDB, uuid.UUID, time.Time) (*competitiondb.PrizePool, error) {
					return activePool, nil
				}
				f.CountPayoutsFunc = func(context.Context, bun.IDB, uuid.UUID) (int, error) { return 2, nil }
			},
			wantReason:  ReasonPayoutsAlreadyExist,
			wantNoTrace: []string{"InsertPayouts", "CompletePoolDistribution"},
		},
		{
			name: "snapshot read fails",
			setup: func(f *FakeCompetitionRepository) {
				f.GetCompetitionFunc = completed(true)
				f.ListParticipantsByScoreFunc = func(context.Context, bun.IDB, uuid.UUID) ([]competitiondb.Participant, error) {
					return nil, errors.New("connection reset")
				}
			},
			wantErr: true,
		},
		{
			name: "winner record failure does not block payouts",
			setup: func(f *FakeCompetitionRepository) {
				f.GetCompetitionFunc = completed(true)
				f.ListParticipantsByScoreFunc = func(context.Context, bun.IDB, uuid.UUID) ([]competitiondb.Participant, error) {
					return []competitiondb.Participant{{ID: uuid.New(), UserID: uuid.New(), TotalPoints: 10, PrizeEligible: true}}, nil
				}
				f.InsertWinnerRecordsFunc = func(context.Context, bun.IDB, []competitiondb.CompetitionResult) ([]competitiondb.CompetitionResult, error) {
					return nil, errors.New("unique index missing")
				}
				f.BeginPoolDistributionFunc = func(context.Context, bun.IDB, uuid.UUID, time.Time) (*competitiondb.PrizePool, error) {
					return activePool, nil
				}
			},
			wantReason:    ReasonSettled,
			wantProcessed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeCompetitionRepository()
			tt.setup(repo)
			svc, _, _ := newTestService(repo)

			res, err := svc.SettleCompetition(context.Background(), competitionID)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.wantFailure != nil {
				require.True(t, res.IsFailure())
				assert.ErrorIs(t, *res.Failure, tt.wantFailure)
			} else {
				require.True(t, res.IsSuccess())
				assert.Equal(t, tt.wantReason, res.Success.Reason)
				assert.Equal(t, tt.wantProcessed, res.Success.Processed)
			}
			for _, step := range tt.wantNoTrace {
				assert.NotContains(t, repo.Trace(), step)
			}
		})
	}
}

func TestSettleCompetition_NotificationFailureIsSwallowed(t *testing.T) {
	fx := individualFixture()
	svc, dispatcher, feed := newTestService(fx.repo)
	dispatcher.Err = errors.New("push down")
	feed.Err = errors.New("nats down")

	res, err := svc.SettleCompetition(context.Background(), fx.competitionID)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Equal(t, 2, res.Success.PayoutsCreated)
	assert.Len(t, fx.repo.allPayouts(), 2)
}
