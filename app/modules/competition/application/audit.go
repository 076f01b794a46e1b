package competitionservice

import (
	"context"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/google/uuid"
)

// AuditPrizePools reports pools stuck in distributing. Nothing is repaired;
// an operator resolves each one by hand.
func (s *CompetitionService) AuditPrizePools(ctx context.Context, olderThan time.Time) (results.OperationResult[AuditResult, error], error) {
	return withTelemetry(s, ctx, "AuditPrizePools", uuid.Nil, func(ctx context.Context) (results.OperationResult[AuditResult, error], error) {
		stuck, err := s.repo.ListStuckPools(ctx, s.conn(), olderThan)
		if err != nil {
			return results.OperationResult[AuditResult, error]{}, fmt.Errorf("list stuck pools: %w", err)
		}

		out := AuditResult{CheckedAt: s.now(), Stuck: make([]StuckPoolView, 0, len(stuck))}
		for _, sp := range stuck {
			s.logger.ErrorContext(ctx, "Prize pool stuck in distributing",
				attr.CompetitionID(sp.PrizePool.CompetitionID),
				attr.UUID("prize_pool_id", sp.PrizePool.ID),
				attr.Time("since", sp.PrizePool.UpdatedAt),
				attr.Int("payout_count", sp.PayoutCount),
			)
			out.Stuck = append(out.Stuck, StuckPoolView{
				PrizePoolID:   sp.PrizePool.ID,
				CompetitionID: sp.PrizePool.CompetitionID,
				Since:         sp.PrizePool.UpdatedAt,
				PayoutCount:   sp.PayoutCount,
			})
		}
		s.metrics.SetStuckPools(ctx, len(out.Stuck))

		return results.SuccessResult[AuditResult, error](out), nil
	})
}
