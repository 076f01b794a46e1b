package competitiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CompetitionRepo implements Repository on Postgres.
type CompetitionRepo struct{}

func NewRepository() Repository {
	return &CompetitionRepo{}
}

var _ Repository = (*CompetitionRepo)(nil)

func (r *CompetitionRepo) GetCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*Competition, error) {
	competition := new(Competition)
	err := db.NewSelect().
		Model(competition).
		Where("id = ?", competitionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("competition.GetCompetition: %w", err)
	}
	return competition, nil
}

func (r *CompetitionRepo) ListParticipantsByScore(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]Participant, error) {
	var participants []Participant
	err := db.NewSelect().
		Model(&participants).
		ColumnExpr("cp.*").
		ColumnExpr("COALESCE(ct.team_number, 0) AS team_number").
		Join("LEFT JOIN competition_teams AS ct ON ct.id = cp.team_id").
		Where("cp.competition_id = ?", competitionID).
		Order("cp.total_points DESC", "cp.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("competition.ListParticipantsByScore: %w", err)
	}
	return participants, nil
}

func (r *CompetitionRepo) GetParticipant(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID) (*Participant, error) {
	participant := new(Participant)
	err := db.NewSelect().
		Model(participant).
		Where("cp.id = ?", participantID).
		Where("cp.competition_id = ?", competitionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("competition.GetParticipant: %w", err)
	}
	return participant, nil
}

func (r *CompetitionRepo) LockParticipantScore(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, lockedAt time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*Participant)(nil)).
		Set("score_locked_at = ?", lockedAt).
		Set("updated_at = ?", lockedAt).
		Where("id = ?", participantID).
		Where("competition_id = ?", competitionID).
		Where("score_locked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("competition.LockParticipantScore: %w", err)
	}
	return rowsAffected(res) > 0, nil
}

func (r *CompetitionRepo) UpdateParticipantScore(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, totalPoints float64, now time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*Participant)(nil)).
		Set("total_points = ?", totalPoints).
		Set("updated_at = ?", now).
		Where("id = ?", participantID).
		Where("competition_id = ?", competitionID).
		Where("score_locked_at IS NULL").
		Where("EXISTS (SELECT 1 FROM competitions AS c WHERE c.id = ? AND c.status = ?)",
			competitionID, competitiondomain.CompetitionActive).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("competition.UpdateParticipantScore: %w", err)
	}
	return rowsAffected(res) > 0, nil
}

func (r *CompetitionRepo) MarkPrizeEligible(ctx context.Context, db bun.IDB, competitionID, participantID uuid.UUID, eligible bool) error {
	res, err := db.NewUpdate().
		Model((*Participant)(nil)).
		Set("prize_eligible = ?", eligible).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", participantID).
		Where("competition_id = ?", competitionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("competition.MarkPrizeEligible: %w", err)
	}
	if rowsAffected(res) == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *CompetitionRepo) SetAllPrizeEligible(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eligible bool) error {
	_, err := db.NewUpdate().
		Model((*Participant)(nil)).
		Set("prize_eligible = ?", eligible).
		Set("updated_at = ?", time.Now().UTC()).
		Where("competition_id = ?", competitionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("competition.SetAllPrizeEligible: %w", err)
	}
	return nil
}

func (r *CompetitionRepo) InsertWinnerRecords(ctx context.Context, db bun.IDB, records []CompetitionResult) ([]CompetitionResult, error) {
	if len(records) == 0 {
		return nil, nil
	}
	for i := range records {
		if records[i].ID == uuid.Nil {
			records[i].ID = uuid.New()
		}
	}

	var inserted []CompetitionResult
	_, err := db.NewInsert().
		Model(&records).
		On("CONFLICT (user_id, competition_id, kind) DO NOTHING").
		Returning("*").
		Exec(ctx, &inserted)
	if err != nil {
		return nil, fmt.Errorf("competition.InsertWinnerRecords: %w", err)
	}
	return inserted, nil
}

func (r *CompetitionRepo) GetUserProfiles(ctx context.Context, db bun.IDB, userIDs []uuid.UUID) ([]UserProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var profiles []UserProfile
	err := db.NewSelect().
		Model(&profiles).
		Where("user_id IN (?)", bun.In(userIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("competition.GetUserProfiles: %w", err)
	}
	return profiles, nil
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
