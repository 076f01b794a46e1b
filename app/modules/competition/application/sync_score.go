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
)

// SyncScore overwrites the participant's running total. Writes are rejected
// once the score is locked or the competition has left the active phase.
func (s *CompetitionService) SyncScore(ctx context.Context, competitionID, participantID, callerID uuid.UUID, totalPoints float64) (results.OperationResult[SyncResult, error], error) {
	return withTelemetry(s, ctx, "SyncScore", participantID, func(ctx context.Context) (results.OperationResult[SyncResult, error], error) {
		if err := competitiondomain.ValidateScore(totalPoints); err != nil {
			return results.FailureResult[SyncResult, error](err), nil
		}

		participant, err := s.repo.GetParticipant(ctx, s.conn(), competitionID, participantID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[SyncResult, error](ErrNotFound), nil
			}
			return results.OperationResult[SyncResult, error]{}, fmt.Errorf("get participant: %w", err)
		}
		if participant.UserID != callerID {
			return results.FailureResult[SyncResult, error](ErrNotAuthorized), nil
		}
		if participant.ScoreLockedAt != nil {
			return results.FailureResult[SyncResult, error](ErrScoreLocked), nil
		}

		now := s.now()
		updated, err := s.repo.UpdateParticipantScore(ctx, s.conn(), competitionID, participantID, totalPoints, now)
		if err != nil {
			return results.OperationResult[SyncResult, error]{}, fmt.Errorf("update participant score: %w", err)
		}
		if updated {
			s.logger.DebugContext(ctx, "Score synced",
				attr.CompetitionID(competitionID),
				attr.UUID("participant_id", participantID),
				attr.Float64("total_points", totalPoints),
			)
			return results.SuccessResult[SyncResult, error](SyncResult{
				ParticipantID: participantID,
				TotalPoints:   totalPoints,
				UpdatedAt:     now,
			}), nil
		}

		// The guarded update matched nothing; work out which guard fired.
		current, err := s.repo.GetParticipant(ctx, s.conn(), competitionID, participantID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[SyncResult, error](ErrNotFound), nil
			}
			return results.OperationResult[SyncResult, error]{}, fmt.Errorf("reload participant: %w", err)
		}
		if current.ScoreLockedAt != nil {
			return results.FailureResult[SyncResult, error](ErrScoreLocked), nil
		}
		return results.FailureResult[SyncResult, error](ErrCompetitionNotActive), nil
	})
}
