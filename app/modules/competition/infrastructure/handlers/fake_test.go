package competitionhandlers

import (
	"context"
	"time"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/google/uuid"
)

// FakeCompetitionService is a programmable stub for competitionservice.Service.
type FakeCompetitionService struct {
	SettleCompetitionFunc func(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[competitionservice.SettlementResult, error], error)
	calls                 []uuid.UUID
}

func (f *FakeCompetitionService) SettleCompetition(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[competitionservice.SettlementResult, error], error) {
	f.calls = append(f.calls, competitionID)
	if f.SettleCompetitionFunc != nil {
		return f.SettleCompetitionFunc(ctx, competitionID)
	}
	return results.SuccessResult[competitionservice.SettlementResult, error](competitionservice.SettlementResult{CompetitionID: competitionID}), nil
}

func (f *FakeCompetitionService) LockScore(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (results.OperationResult[competitionservice.LockResult, error], error) {
	return results.OperationResult[competitionservice.LockResult, error]{}, nil
}

func (f *FakeCompetitionService) SyncScore(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, float64) (results.OperationResult[competitionservice.SyncResult, error], error) {
	return results.OperationResult[competitionservice.SyncResult, error]{}, nil
}

func (f *FakeCompetitionService) GetStandings(context.Context, uuid.UUID) (results.OperationResult[competitionservice.Standings, error], error) {
	return results.OperationResult[competitionservice.Standings, error]{}, nil
}

func (f *FakeCompetitionService) CreatePrizePool(context.Context, uuid.UUID, uuid.UUID, competitiondomain.PoolInput) (results.OperationResult[competitionservice.PrizePoolView, error], error) {
	return results.OperationResult[competitionservice.PrizePoolView, error]{}, nil
}

func (f *FakeCompetitionService) GetPrizePool(context.Context, uuid.UUID) (results.OperationResult[competitionservice.PrizePoolView, error], error) {
	return results.OperationResult[competitionservice.PrizePoolView, error]{}, nil
}

func (f *FakeCompetitionService) CaptureBuyIn(context.Context, uuid.UUID, uuid.UUID, string, competitiondomain.Cents) (results.OperationResult[competitionservice.BuyInResult, error], error) {
	return results.OperationResult[competitionservice.BuyInResult, error]{}, nil
}

func (f *FakeCompetitionService) ListPayouts(context.Context, uuid.UUID, uuid.UUID) (results.OperationResult[[]competitionservice.PayoutView, error], error) {
	return results.OperationResult[[]competitionservice.PayoutView, error]{}, nil
}

func (f *FakeCompetitionService) ClaimPayout(context.Context, uuid.UUID, uuid.UUID) (results.OperationResult[competitionservice.ClaimResult, error], error) {
	return results.OperationResult[competitionservice.ClaimResult, error]{}, nil
}

func (f *FakeCompetitionService) GetPayoutReport(context.Context, uuid.UUID, uuid.UUID) (results.OperationResult[competitionservice.PayoutReport, error], error) {
	return results.OperationResult[competitionservice.PayoutReport, error]{}, nil
}

func (f *FakeCompetitionService) AuditPrizePools(context.Context, time.Time) (results.OperationResult[competitionservice.AuditResult, error], error) {
	return results.OperationResult[competitionservice.AuditResult, error]{}, nil
}

var _ competitionservice.Service = (*FakeCompetitionService)(nil)
