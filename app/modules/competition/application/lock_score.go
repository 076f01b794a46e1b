package competitionservice

import (
	"context"
	"errors"
	"fmt"

	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/google/uuid"
)

// LockScore sets the participant's score lock. A repeat call succeeds with
// AlreadyLocked and returns the time of the original lock.
func (s *CompetitionService) LockScore(ctx context.Context, competitionID, participantID, callerID uuid.UUID) (results.OperationResult[LockResult, error], error) {
	return withTelemetry(s, ctx, "LockScore", participantID, func(ctx context.Context) (results.OperationResult[LockResult, error], error) {
		participant, err := s.repo.GetParticipant(ctx, s.conn(), competitionID, participantID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[LockResult, error](ErrNotFound), nil
			}
			return results.OperationResult[LockResult, error]{}, fmt.Errorf("get participant: %w", err)
		}
		if participant.UserID != callerID {
			return results.FailureResult[LockResult, error](ErrNotAuthorized), nil
		}

		if participant.ScoreLockedAt != nil {
			s.metrics.RecordScoreLock(ctx, "already_locked")
			return results.SuccessResult[LockResult, error](LockResult{
				ParticipantID: participantID,
				Locked:        true,
				AlreadyLocked: true,
				LockedAt:      *participant.ScoreLockedAt,
			}), nil
		}

		now := s.now()
		locked, err := s.repo.LockParticipantScore(ctx, s.conn(), competitionID, participantID, now)
		if err != nil {
			return results.OperationResult[LockResult, error]{}, fmt.Errorf("lock participant score: %w", err)
		}
		if locked {
			s.metrics.RecordScoreLock(ctx, "locked")
			s.logger.InfoContext(ctx, "Participant score locked",
				attr.CompetitionID(competitionID),
				attr.UUID("participant_id", participantID),
			)
			return results.SuccessResult[LockResult, error](LockResult{
				ParticipantID: participantID,
				Locked:        true,
				LockedAt:      now,
			}), nil
		}

		// A concurrent call won the lock; report its timestamp.
		current, err := s.repo.GetParticipant(ctx, s.conn(), competitionID, participantID)
		if err != nil {
			return results.OperationResult[LockResult, error]{}, fmt.Errorf("reload participant: %w", err)
		}
		if current.ScoreLockedAt == nil {
			return results.OperationResult[LockResult, error]{}, fmt.Errorf("score lock for participant %s not applied", participantID)
		}
		s.metrics.RecordScoreLock(ctx, "already_locked")
		return results.SuccessResult[LockResult, error](LockResult{
			ParticipantID: participantID,
			Locked:        true,
			AlreadyLocked: true,
			LockedAt:      *current.ScoreLockedAt,
		}), nil
	})
}
