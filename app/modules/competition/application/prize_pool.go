package competitionservice

import (
	"context"
	"errors"
	"fmt"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreatePrizePool attaches a pool to a competition that has not ended.
// Buy-in pools reset every participant to ineligible until their capture lands.
func (s *CompetitionService) CreatePrizePool(ctx context.Context, competitionID, callerID uuid.UUID, input competitiondomain.PoolInput) (results.OperationResult[PrizePoolView, error], error) {
	return withTelemetry(s, ctx, "CreatePrizePool", competitionID, func(ctx context.Context) (results.OperationResult[PrizePoolView, error], error) {
		if err := input.Validate(); err != nil {
			return results.FailureResult[PrizePoolView, error](err), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[PrizePoolView, error], error) {
			competition, err := s.repo.GetCompetition(ctx, db, competitionID)
			if err != nil {
				if errors.Is(err, competitiondb.ErrNotFound) {
					return results.FailureResult[PrizePoolView, error](ErrNotFound), nil
				}
				return results.OperationResult[PrizePoolView, error]{}, fmt.Errorf("get competition: %w", err)
			}
			if competition.CreatorUserID != callerID {
				return results.FailureResult[PrizePoolView, error](ErrNotAuthorized), nil
			}
			if competition.Status == competitiondomain.CompetitionCompleted {
				return results.FailureResult[PrizePoolView, error](ErrCompetitionCompleted), nil
			}

			now := s.now()
			pool := &competitiondb.PrizePool{
				ID:              uuid.New(),
				CompetitionID:   competitionID,
				PoolType:        input.PoolType,
				TotalAmount:     input.InitialTotal(),
				BuyInAmount:     input.BuyInAmount,
				PayoutStructure: input.PayoutStructure,
				Status:          competitiondomain.PoolActive,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			created, err := s.repo.CreatePrizePool(ctx, db, pool)
			if err != nil {
				return results.OperationResult[PrizePoolView, error]{}, fmt.Errorf("create prize pool: %w", err)
			}
			if !created {
				return results.FailureResult[PrizePoolView, error](ErrPrizePoolExists), nil
			}

			if err := s.repo.SetHasPrizePool(ctx, db, competitionID); err != nil {
				return results.OperationResult[PrizePoolView, error]{}, fmt.Errorf("set has prize pool: %w", err)
			}
			if input.PoolType == competitiondomain.PoolTypeBuyIn {
				if err := s.repo.SetAllPrizeEligible(ctx, db, competitionID, false); err != nil {
					return results.OperationResult[PrizePoolView, error]{}, fmt.Errorf("reset prize eligibility: %w", err)
				}
			}

			s.logger.InfoContext(ctx, "Prize pool created",
				attr.CompetitionID(competitionID),
				attr.String("pool_type", string(pool.PoolType)),
				attr.Int64("total_amount_cents", int64(pool.TotalAmount)),
			)
			return results.SuccessResult[PrizePoolView, error](toPoolView(pool, 0)), nil
		})
	})
}

// GetPrizePool returns the competition's pool and the sum of its captures.
func (s *CompetitionService) GetPrizePool(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[PrizePoolView, error], error) {
	return withTelemetry(s, ctx, "GetPrizePool", competitionID, func(ctx context.Context) (results.OperationResult[PrizePoolView, error], error) {
		view, err := s.loadPoolView(ctx, s.conn(), competitionID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[PrizePoolView, error](ErrNotFound), nil
			}
			return results.OperationResult[PrizePoolView, error]{}, err
		}
		return results.SuccessResult[PrizePoolView, error](*view), nil
	})
}

// CaptureBuyIn credits one captured payment to an active buy-in pool and marks
// the participant prize-eligible. A payment reference is applied at most once.
func (s *CompetitionService) CaptureBuyIn(ctx context.Context, competitionID, participantID uuid.UUID, paymentRef string, amount competitiondomain.Cents) (results.OperationResult[BuyInResult, error], error) {
	return withTelemetry(s, ctx, "CaptureBuyIn", participantID, func(ctx context.Context) (results.OperationResult[BuyInResult, error], error) {
		if paymentRef == "" {
			return results.FailureResult[BuyInResult, error](ErrInvalidPaymentRef), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[BuyInResult, error], error) {
			pool, err := s.repo.GetPrizePool(ctx, db, competitionID)
			if err != nil {
				if errors.Is(err, competitiondb.ErrNotFound) {
					return results.FailureResult[BuyInResult, error](ErrNotFound), nil
				}
				return results.OperationResult[BuyInResult, error]{}, fmt.Errorf("get prize pool: %w", err)
			}
			if pool.PoolType != competitiondomain.PoolTypeBuyIn || amount != pool.BuyInAmount {
				return results.FailureResult[BuyInResult, error](ErrBuyInMismatch), nil
			}
			if pool.Status != competitiondomain.PoolActive {
				return results.FailureResult[BuyInResult, error](ErrPrizePoolNotActive), nil
			}

			if _, err := s.repo.GetParticipant(ctx, db, competitionID, participantID); err != nil {
				if errors.Is(err, competitiondb.ErrNotFound) {
					return results.FailureResult[BuyInResult, error](ErrNotFound), nil
				}
				return results.OperationResult[BuyInResult, error]{}, fmt.Errorf("get participant: %w", err)
			}

			out := BuyInResult{
				PrizePoolID:   pool.ID,
				ParticipantID: participantID,
				PaymentRef:    paymentRef,
				PoolTotal:     pool.TotalAmount,
			}

			now := s.now()
			recorded, err := s.repo.RecordBuyIn(ctx, db, &competitiondb.BuyIn{
				ID:            uuid.New(),
				PrizePoolID:   pool.ID,
				CompetitionID: competitionID,
				ParticipantID: participantID,
				PaymentRef:    paymentRef,
				Amount:        amount,
				CapturedAt:    now,
			})
			if err != nil {
				return results.OperationResult[BuyInResult, error]{}, fmt.Errorf("record buy-in: %w", err)
			}
			if !recorded {
				out.AlreadyCaptured = true
				return results.SuccessResult[BuyInResult, error](out), nil
			}

			if err := s.repo.AddToPoolTotal(ctx, db, pool.ID, amount, now); err != nil {
				if errors.Is(err, competitiondb.ErrNoRowsAffected) {
					// Settlement took the pool between our read and the credit.
					return results.FailureResult[BuyInResult, error](ErrPrizePoolNotActive), errSkipCommit
				}
				return results.OperationResult[BuyInResult, error]{}, fmt.Errorf("add to pool total: %w", err)
			}
			if err := s.repo.MarkPrizeEligible(ctx, db, competitionID, participantID, true); err != nil {
				return results.OperationResult[BuyInResult, error]{}, fmt.Errorf("mark prize eligible: %w", err)
			}

			out.PoolTotal = pool.TotalAmount + amount
			return results.SuccessResult[BuyInResult, error](out), nil
		})
	})
}

func (s *CompetitionService) loadPoolView(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*PrizePoolView, error) {
	pool, err := s.repo.GetPrizePool(ctx, db, competitionID)
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get prize pool: %w", err)
	}
	captured, err := s.repo.SumBuyIns(ctx, db, pool.ID)
	if err != nil {
		return nil, fmt.Errorf("sum buy-ins: %w", err)
	}
	view := toPoolView(pool, captured)
	return &view, nil
}

func toPoolView(pool *competitiondb.PrizePool, captured competitiondomain.Cents) PrizePoolView {
	return PrizePoolView{
		ID:              pool.ID,
		CompetitionID:   pool.CompetitionID,
		PoolType:        pool.PoolType,
		TotalAmount:     pool.TotalAmount,
		BuyInAmount:     pool.BuyInAmount,
		CapturedAmount:  captured,
		PayoutStructure: pool.PayoutStructure,
		Status:          pool.Status,
		DistributedAt:   pool.DistributedAt,
	}
}
