package competitionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/google/uuid"
)

// ListPayouts returns the payouts of a competition with lazy expiry applied.
// The recipient snapshot is only shown to the competition creator and to the
// payout's own recipient.
func (s *CompetitionService) ListPayouts(ctx context.Context, competitionID, callerID uuid.UUID) (results.OperationResult[[]PayoutView, error], error) {
	return withTelemetry(s, ctx, "ListPayouts", competitionID, func(ctx context.Context) (results.OperationResult[[]PayoutView, error], error) {
		competition, err := s.repo.GetCompetition(ctx, s.conn(), competitionID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[[]PayoutView, error](ErrNotFound), nil
			}
			return results.OperationResult[[]PayoutView, error]{}, fmt.Errorf("get competition: %w", err)
		}

		payouts, err := s.repo.ListPayouts(ctx, s.conn(), competitionID)
		if err != nil {
			return results.OperationResult[[]PayoutView, error]{}, fmt.Errorf("list payouts: %w", err)
		}

		views := toPayoutViews(payouts, s.now())
		if competition.CreatorUserID != callerID {
			for i := range views {
				if views[i].UserID != callerID {
					views[i].Recipient = competitiondb.RecipientSnapshot{}
				}
			}
		}
		return results.SuccessResult[[]PayoutView, error](views), nil
	})
}

// ClaimPayout moves a payout owned by the caller from unclaimed to claimed
// while its claim window is open.
func (s *CompetitionService) ClaimPayout(ctx context.Context, payoutID, callerID uuid.UUID) (results.OperationResult[ClaimResult, error], error) {
	return withTelemetry(s, ctx, "ClaimPayout", payoutID, func(ctx context.Context) (results.OperationResult[ClaimResult, error], error) {
		payout, err := s.repo.GetPayout(ctx, s.conn(), payoutID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[ClaimResult, error](ErrNotFound), nil
			}
			return results.OperationResult[ClaimResult, error]{}, fmt.Errorf("get payout: %w", err)
		}
		if payout.UserID != callerID {
			return results.FailureResult[ClaimResult, error](ErrNotAuthorized), nil
		}

		now := s.now()
		if err := competitiondomain.CheckClaimable(payout.ClaimStatus, payout.ClaimExpires, now); err != nil {
			return results.FailureResult[ClaimResult, error](err), nil
		}

		claimed, err := s.repo.ClaimPayout(ctx, s.conn(), payoutID, callerID, now)
		if err != nil {
			return results.OperationResult[ClaimResult, error]{}, fmt.Errorf("claim payout: %w", err)
		}
		if !claimed {
			current, err := s.repo.GetPayout(ctx, s.conn(), payoutID)
			if err != nil {
				return results.OperationResult[ClaimResult, error]{}, fmt.Errorf("reload payout: %w", err)
			}
			if err := competitiondomain.CheckClaimable(current.ClaimStatus, current.ClaimExpires, now); err != nil {
				return results.FailureResult[ClaimResult, error](err), nil
			}
			return results.OperationResult[ClaimResult, error]{}, fmt.Errorf("claim for payout %s not applied", payoutID)
		}

		s.logger.InfoContext(ctx, "Payout claimed",
			attr.UUID("payout_id", payoutID),
			attr.CompetitionID(payout.CompetitionID),
			attr.Int64("amount_cents", int64(payout.Amount)),
		)
		return results.SuccessResult[ClaimResult, error](ClaimResult{PayoutID: payoutID, ClaimedAt: now}), nil
	})
}

// GetPayoutReport gathers the pool and payouts for reconciliation. Only the
// competition creator may read it.
func (s *CompetitionService) GetPayoutReport(ctx context.Context, competitionID, callerID uuid.UUID) (results.OperationResult[PayoutReport, error], error) {
	return withTelemetry(s, ctx, "GetPayoutReport", competitionID, func(ctx context.Context) (results.OperationResult[PayoutReport, error], error) {
		competition, err := s.repo.GetCompetition(ctx, s.conn(), competitionID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[PayoutReport, error](ErrNotFound), nil
			}
			return results.OperationResult[PayoutReport, error]{}, fmt.Errorf("get competition: %w", err)
		}
		if competition.CreatorUserID != callerID {
			return results.FailureResult[PayoutReport, error](ErrNotAuthorized), nil
		}

		report := PayoutReport{
			CompetitionID:   competitionID,
			CompetitionName: competition.Name,
			GeneratedAt:     s.now(),
		}

		pool, err := s.loadPoolView(ctx, s.conn(), competitionID)
		switch {
		case errors.Is(err, competitiondb.ErrNotFound):
		case err != nil:
			return results.OperationResult[PayoutReport, error]{}, err
		default:
			report.Pool = pool
		}

		payouts, err := s.repo.ListPayouts(ctx, s.conn(), competitionID)
		if err != nil {
			return results.OperationResult[PayoutReport, error]{}, fmt.Errorf("list payouts: %w", err)
		}
		report.Payouts = toPayoutViews(payouts, report.GeneratedAt)

		return results.SuccessResult[PayoutReport, error](report), nil
	})
}

func toPayoutViews(payouts []competitiondb.PrizePayout, now time.Time) []PayoutView {
	views := make([]PayoutView, 0, len(payouts))
	for _, p := range payouts {
		views = append(views, PayoutView{
			ID:             p.ID,
			CompetitionID:  p.CompetitionID,
			ParticipantID:  p.ParticipantID,
			UserID:         p.UserID,
			TeamID:         p.TeamID,
			Placement:      p.Placement,
			Amount:         p.Amount,
			StoredStatus:   p.ClaimStatus,
			ClaimStatus:    competitiondomain.EffectiveClaimStatus(p.ClaimStatus, p.ClaimExpires, now),
			ClaimExpiresAt: p.ClaimExpires,
			ClaimedAt:      p.ClaimedAt,
			Recipient:      p.Recipient,
			CreatedAt:      p.CreatedAt,
		})
	}
	return views
}
