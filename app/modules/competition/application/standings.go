package competitionservice

import (
	"context"
	"errors"
	"fmt"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/google/uuid"
)

// GetStandings ranks the current score snapshot. It is read-only and works in
// every competition phase.
func (s *CompetitionService) GetStandings(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[Standings, error], error) {
	return withTelemetry(s, ctx, "GetStandings", competitionID, func(ctx context.Context) (results.OperationResult[Standings, error], error) {
		competition, err := s.repo.GetCompetition(ctx, s.conn(), competitionID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[Standings, error](ErrNotFound), nil
			}
			return results.OperationResult[Standings, error]{}, fmt.Errorf("get competition: %w", err)
		}

		participants, err := s.repo.ListParticipantsByScore(ctx, s.conn(), competitionID)
		if err != nil {
			return results.OperationResult[Standings, error]{}, fmt.Errorf("list participants: %w", err)
		}

		return results.SuccessResult[Standings, error](Standings{
			CompetitionID:   competitionID,
			CompetitionName: competition.Name,
			IsTeam:          competition.IsTeamCompetition,
			Status:          competition.Status,
			Entries:         competitiondomain.Rank(toScoreEntries(participants), competition.IsTeamCompetition),
			GeneratedAt:     s.now(),
		}), nil
	})
}
