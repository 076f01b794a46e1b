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
	"github.com/uptrace/bun"
)

// SettleCompetition records winners and distributes the prize pool of a
// completed competition. Re-entry is guarded by the winner-record unique key,
// the pool status flip and the existing-payout check, in that order.
func (s *CompetitionService) SettleCompetition(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[SettlementResult, error], error) {
	return withTelemetry(s, ctx, "SettleCompetition", competitionID, func(ctx context.Context) (results.OperationResult[SettlementResult, error], error) {
		competition, err := s.repo.GetCompetition(ctx, s.conn(), competitionID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[SettlementResult, error](ErrNotFound), nil
			}
			return results.OperationResult[SettlementResult, error]{}, fmt.Errorf("get competition: %w", err)
		}

		if competition.Status != competitiondomain.CompetitionCompleted {
			s.logger.InfoContext(ctx, "Competition not completed, skipping settlement",
				attr.CompetitionID(competitionID),
				attr.String("status", string(competition.Status)),
			)
			s.metrics.RecordSettlement(ctx, ReasonNotCompleted)
			return results.SuccessResult[SettlementResult, error](SettlementResult{
				CompetitionID: competitionID,
				Reason:        ReasonNotCompleted,
			}), nil
		}

		participants, err := s.repo.ListParticipantsByScore(ctx, s.conn(), competitionID)
		if err != nil {
			return results.OperationResult[SettlementResult, error]{}, fmt.Errorf("list participants: %w", err)
		}
		standings := competitiondomain.Rank(toScoreEntries(participants), competition.IsTeamCompetition)

		winnersRecorded := s.recordWinners(ctx, competition, standings)

		out := SettlementResult{
			CompetitionID:   competitionID,
			Processed:       true,
			Reason:          ReasonSettled,
			WinnersRecorded: winnersRecorded,
		}

		if !competition.HasPrizePool {
			s.metrics.RecordSettlement(ctx, ReasonSettled)
			return results.SuccessResult[SettlementResult, error](out), nil
		}

		var created []competitiondb.PrizePayout
		distribution, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[SettlementResult, error], error) {
			payouts, res, err := s.distributePool(ctx, db, competition, standings, out)
			created = payouts
			return res, err
		})
		if err != nil {
			return results.OperationResult[SettlementResult, error]{}, err
		}
		if distribution.Success == nil {
			return distribution, nil
		}

		out = *distribution.Success
		if len(created) > 0 {
			s.notifyPayouts(ctx, competition, created)
		}

		s.metrics.RecordSettlement(ctx, out.Reason)
		s.logger.InfoContext(ctx, "Competition settled",
			attr.CompetitionID(competitionID),
			attr.String("reason", out.Reason),
			attr.Int("winners_recorded", out.WinnersRecorded),
			attr.Int("payouts_created", out.PayoutsCreated),
			attr.Int64("total_distributed_cents", int64(out.TotalDistributed)),
		)
		return results.SuccessResult[SettlementResult, error](out), nil
	})
}

// distributePool runs inside one transaction. Returning errSkipCommit
// rolls back the status flip while keeping the reported result.
func (s *CompetitionService) distributePool(
	ctx context.Context,
	db bun.IDB,
	competition *competitiondb.Competition,
	standings []competitiondomain.RankedEntry,
	out SettlementResult,
) ([]competitiondb.PrizePayout, results.OperationResult[SettlementResult, error], error) {
	now := s.now()

	pool, err := s.repo.BeginPoolDistribution(ctx, db, competition.ID, now)
	if err != nil {
		return nil, results.OperationResult[SettlementResult, error]{}, fmt.Errorf("begin pool distribution: %w", err)
	}
	if pool == nil {
		_, err := s.repo.GetPrizePool(ctx, db, competition.ID)
		switch {
		case errors.Is(err, competitiondb.ErrNotFound):
			out.Reason = ReasonNoPrizePool
			return nil, results.SuccessResult[SettlementResult, error](out), nil
		case err != nil:
			return nil, results.OperationResult[SettlementResult, error]{}, fmt.Errorf("get prize pool: %w", err)
		}
		s.logger.InfoContext(ctx, "Prize pool already claimed by another settlement",
			attr.CompetitionID(competition.ID),
		)
		out.Processed = false
		out.AlreadySettled = true
		out.Reason = ReasonAlreadySettled
		return nil, results.SuccessResult[SettlementResult, error](out), nil
	}

	existing, err := s.repo.CountPayouts(ctx, db, competition.ID)
	if err != nil {
		return nil, results.OperationResult[SettlementResult, error]{}, fmt.Errorf("count payouts: %w", err)
	}
	if existing > 0 {
		s.logger.WarnContext(ctx, "Payouts already exist for active pool, skipping distribution",
			attr.CompetitionID(competition.ID),
			attr.Int("existing_payouts", existing),
		)
		out.Processed = false
		out.AlreadySettled = true
		out.Reason = ReasonPayoutsAlreadyExist
		return nil, results.SuccessResult[SettlementResult, error](out), errSkipCommit
	}

	plan := competitiondomain.BuildPayoutPlan(standings, competition.IsTeamCompetition, pool.TotalAmount, pool.PayoutStructure)
	if total := competitiondomain.PlanTotal(plan); total > pool.TotalAmount {
		return nil, results.OperationResult[SettlementResult, error]{}, fmt.Errorf("payout plan total %s exceeds pool total %s", total, pool.TotalAmount)
	}

	payouts, err := s.buildPayoutRecords(ctx, db, competition.ID, pool.ID, plan, now)
	if err != nil {
		return nil, results.OperationResult[SettlementResult, error]{}, err
	}

	inserted, err := s.repo.InsertPayouts(ctx, db, payouts)
	if err != nil {
		return nil, results.OperationResult[SettlementResult, error]{}, fmt.Errorf("insert payouts: %w", err)
	}
	if err := s.repo.CompletePoolDistribution(ctx, db, pool.ID, now); err != nil {
		return nil, results.OperationResult[SettlementResult, error]{}, fmt.Errorf("complete pool distribution: %w", err)
	}

	out.PayoutsCreated = inserted
	out.TotalDistributed = competitiondomain.PlanTotal(plan)
	s.metrics.RecordPayoutsCreated(ctx, inserted, int64(out.TotalDistributed))
	return payouts, results.SuccessResult[SettlementResult, error](out), nil
}

func (s *CompetitionService) buildPayoutRecords(
	ctx context.Context,
	db bun.IDB,
	competitionID, poolID uuid.UUID,
	plan []competitiondomain.PlannedPayout,
	now time.Time,
) ([]competitiondb.PrizePayout, error) {
	if len(plan) == 0 {
		return nil, nil
	}

	userIDs := make([]uuid.UUID, 0, len(plan))
	for _, p := range plan {
		userIDs = append(userIDs, p.UserID)
	}
	profiles, err := s.repo.GetUserProfiles(ctx, db, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get user profiles: %w", err)
	}
	byUser := make(map[uuid.UUID]competitiondb.UserProfile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	payouts := make([]competitiondb.PrizePayout, 0, len(plan))
	for _, p := range plan {
		recipient := competitiondb.RecipientSnapshot{UserID: p.UserID, CapturedAt: now}
		if profile, ok := byUser[p.UserID]; ok {
			recipient.DisplayName = profile.DisplayName
			recipient.Email = profile.Email
			recipient.PayoutHandle = profile.PayoutHandle
		} else {
			s.logger.WarnContext(ctx, "No profile for payout recipient, snapshot left blank",
				attr.CompetitionID(competitionID),
				attr.UUID("user_id", p.UserID),
			)
		}

		payouts = append(payouts, competitiondb.PrizePayout{
			ID:            uuid.New(),
			CompetitionID: competitionID,
			PrizePoolID:   poolID,
			ParticipantID: p.ParticipantID,
			UserID:        p.UserID,
			TeamID:        p.TeamID,
			Placement:     p.Placement,
			Amount:        p.Amount,
			ClaimStatus:   competitiondomain.ClaimUnclaimed,
			ClaimExpires:  competitiondomain.ClaimExpiresAt(now),
			Recipient:     recipient,
			CreatedAt:     now,
		})
	}
	return payouts, nil
}

// recordWinners writes winner-feed records and fans out only for rows this
// call inserted. Failures here never block settlement.
func (s *CompetitionService) recordWinners(ctx context.Context, competition *competitiondb.Competition, standings []competitiondomain.RankedEntry) int {
	winners := competitiondomain.Winners(standings, competition.IsTeamCompetition)
	if len(winners) == 0 {
		return 0
	}

	records := make([]competitiondb.CompetitionResult, 0, len(winners))
	for _, w := range winners {
		records = append(records, competitiondb.CompetitionResult{
			ID:            uuid.New(),
			CompetitionID: competition.ID,
			UserID:        w.UserID,
			Kind:          competitiondomain.WinKind,
			Rank:          1,
			IsTeamWin:     competition.IsTeamCompetition,
			TeamID:        w.TeamID,
			CreatedAt:     s.now(),
		})
	}

	inserted, err := s.repo.InsertWinnerRecords(ctx, s.conn(), records)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to record winners",
			attr.CompetitionID(competition.ID),
			attr.Error(err),
		)
		return 0
	}

	for _, rec := range inserted {
		feed := WinnerFeedRecord{
			UserID:        rec.UserID,
			CompetitionID: rec.CompetitionID,
			Rank:          rec.Rank,
			IsTeamWin:     rec.IsTeamWin,
			TeamID:        rec.TeamID,
		}
		if s.feed != nil {
			if err := s.feed.PublishCompetitionWon(ctx, feed); err != nil {
				s.logger.WarnContext(ctx, "Failed to publish winner feed record",
					attr.CompetitionID(competition.ID),
					attr.UUID("user_id", rec.UserID),
					attr.Error(err),
				)
			}
		}
		s.dispatch(ctx, Notification{
			Type:            NotificationCompetitionWon,
			RecipientUserID: rec.UserID,
			CompetitionID:   competition.ID,
			CompetitionName: competition.Name,
		})
	}

	s.metrics.RecordWinnersRecorded(ctx, len(inserted))
	return len(inserted)
}

func (s *CompetitionService) notifyPayouts(ctx context.Context, competition *competitiondb.Competition, payouts []competitiondb.PrizePayout) {
	for _, p := range payouts {
		payoutID := p.ID
		s.dispatch(ctx, Notification{
			Type:            NotificationPrizePayout,
			RecipientUserID: p.UserID,
			CompetitionID:   competition.ID,
			CompetitionName: competition.Name,
			PayoutID:        &payoutID,
			AmountCents:     p.Amount,
		})
	}
}

// dispatch hands a notification off without surfacing failures to the caller.
func (s *CompetitionService) dispatch(ctx context.Context, n Notification) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		s.metrics.RecordNotificationFailure(ctx, n.Type)
		s.logger.WarnContext(ctx, "Failed to dispatch notification",
			attr.String("type", n.Type),
			attr.UUID("recipient_user_id", n.RecipientUserID),
			attr.CompetitionID(n.CompetitionID),
			attr.Error(err),
		)
	}
}

func toScoreEntries(participants []competitiondb.Participant) []competitiondomain.ScoreEntry {
	entries := make([]competitiondomain.ScoreEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, competitiondomain.ScoreEntry{
			ParticipantID: p.ID,
			UserID:        p.UserID,
			TeamID:        p.TeamID,
			TeamNumber:    p.TeamNumber,
			TotalPoints:   p.TotalPoints,
			PrizeEligible: p.PrizeEligible,
		})
	}
	return entries
}
