package competitionservice

import (
	"context"
	"testing"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCreatorCompetition(status competitiondomain.CompetitionStatus) (*memoryRepository, uuid.UUID, uuid.UUID) {
	repo := newMemoryRepository()
	competitionID, creator := uuid.New(), uuid.New()
	repo.addCompetition(competitiondb.Competition{ID: competitionID, Name: "Pool Test", CreatorUserID: creator, Status: status})
	return repo, competitionID, creator
}

func TestCreatePrizePool(t *testing.T) {
	fixed := competitiondomain.PoolInput{
		PoolType:        competitiondomain.PoolTypeFixed,
		TotalAmount:     5000,
		PayoutStructure: competitiondomain.PayoutStructure{"first": 100},
	}

	t.Run("creates fixed pool", func(t *testing.T) {
		repo, competitionID, creator := seedCreatorCompetition(competitiondomain.CompetitionUpcoming)
		svc, _, _ := newTestService(repo)

		res, err := svc.CreatePrizePool(context.Background(), competitionID, creator, fixed)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Equal(t, competitiondomain.Cents(5000), res.Success.TotalAmount)
		assert.Equal(t, competitiondomain.PoolActive, res.Success.Status)
		assert.True(t, repo.competitions[competitionID].HasPrizePool)
	})

	t.Run("rejects second pool", func(t *testing.T) {
		repo, competitionID, creator := seedCreatorCompetition(competitiondomain.CompetitionActive)
		svc, _, _ := newTestService(repo)

		_, err := svc.CreatePrizePool(context.Background(), competitionID, creator, fixed)
		require.NoError(t, err)
		res, err := svc.CreatePrizePool(context.Background(), competitionID, creator, fixed)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, *res.Failure, ErrPrizePoolExists)
	})

	t.Run("rejects non-creator", func(t *testing.T) {
		repo, competitionID, _ := seedCreatorCompetition(competitiondomain.CompetitionActive)
		svc, _, _ := newTestService(repo)

		res, err := svc.CreatePrizePool(context.Background(), competitionID, uuid.New(), fixed)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, *res.Failure, ErrNotAuthorized)
	})

	t.Run("rejects completed competition", func(t *testing.T) {
		repo, competitionID, creator := seedCreatorCompetition(competitiondomain.CompetitionCompleted)
		svc, _, _ := newTestService(repo)

		res, err := svc.CreatePrizePool(context.Background(), competitionID, creator, fixed)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, *res.Failure, ErrCompetitionCompleted)
	})

	t.Run("rejects structure over one hundred percent", func(t *testing.T) {
		repo, competitionID, creator := seedCreatorCompetition(competitiondomain.CompetitionActive)
		svc, _, _ := newTestService(repo)

		bad := fixed
		bad.PayoutStructure = competitiondomain.PayoutStructure{"first": 70, "second": 40}
		res, err := svc.CreatePrizePool(context.Background(), competitionID, creator, bad)
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, *res.Failure, ErrInvalidPayoutStructure)
	})
}

func TestBuyInPool_EndToEnd(t *testing.T) {
	repo, competitionID, creator := seedCreatorCompetition(competitiondomain.CompetitionActive)
	paid, unpaid := uuid.New(), uuid.New()
	paidUser, unpaidUser := uuid.New(), uuid.New()
	repo.addParticipant(competitiondb.Participant{ID: paid, CompetitionID: competitionID, UserID: paidUser, TotalPoints: 10, PrizeEligible: true})
	repo.addParticipant(competitiondb.Participant{ID: unpaid, CompetitionID: competitionID, UserID: unpaidUser, TotalPoints: 99, PrizeEligible: true})

	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.CreatePrizePool(ctx, competitionID, creator, competitiondomain.PoolInput{
		PoolType:        competitiondomain.PoolTypeBuyIn,
		BuyInAmount:     2500,
		PayoutStructure: competitiondomain.PayoutStructure{"first": 100},
	})
	require.NoError(t, err)
	require.True(t, created.IsSuccess())
	assert.Zero(t, created.Success.TotalAmount)
	assert.False(t, repo.participants[paid].PrizeEligible)
	assert.False(t, repo.participants[unpaid].PrizeEligible)

	capture, err := svc.CaptureBuyIn(ctx, competitionID, paid, "pi_123", 2500)
	require.NoError(t, err)
	require.True(t, capture.IsSuccess())
	assert.Equal(t, competitiondomain.Cents(2500), capture.Success.PoolTotal)

	again, err := svc.CaptureBuyIn(ctx, competitionID, paid, "pi_123", 2500)
	require.NoError(t, err)
	require.True(t, again.IsSuccess())
	assert.True(t, again.Success.AlreadyCaptured)

	mismatch, err := svc.CaptureBuyIn(ctx, competitionID, unpaid, "pi_456", 100)
	require.NoError(t, err)
	require.True(t, mismatch.IsFailure())
	assert.ErrorIs(t, *mismatch.Failure, ErrBuyInMismatch)

	view, err := svc.GetPrizePool(ctx, competitionID)
	require.NoError(t, err)
	require.True(t, view.IsSuccess())
	assert.Equal(t, competitiondomain.Cents(2500), view.Success.TotalAmount)
	assert.Equal(t, competitiondomain.Cents(2500), view.Success.CapturedAmount)

	repo.competitions[competitionID].Status = competitiondomain.CompetitionCompleted
	settled, err := svc.SettleCompetition(ctx, competitionID)
	require.NoError(t, err)
	require.True(t, settled.IsSuccess())

	byUser := payoutsByUser(repo.allPayouts())
	assert.Equal(t, map[uuid.UUID]competitiondomain.Cents{paidUser: 2500}, byUser)

	late, err := svc.CaptureBuyIn(ctx, competitionID, unpaid, "pi_789", 2500)
	require.NoError(t, err)
	require.True(t, late.IsFailure())
	assert.ErrorIs(t, *late.Failure, ErrPrizePoolNotActive)
}

func TestCaptureBuyIn_RequiresPaymentRef(t *testing.T) {
	repo := NewFakeCompetitionRepository()
	svc, _, _ := newTestService(repo)

	res, err := svc.CaptureBuyIn(context.Background(), uuid.New(), uuid.New(), "", 2500)
	require.NoError(t, err)
	require.True(t, res.IsFailure())
	assert.ErrorIs(t, *res.Failure, ErrInvalidPaymentRef)
	assert.Empty(t, repo.Trace())
}
