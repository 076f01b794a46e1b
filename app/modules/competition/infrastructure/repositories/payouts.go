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

func (r *CompetitionRepo) CountPayouts(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (int, error) {
	count, err := db.NewSelect().
		Model((*PrizePayout)(nil)).
		Where("competition_id = ?", competitionID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("payout.CountPayouts: %w", err)
	}
	return count, nil
}

func (r *CompetitionRepo) InsertPayouts(ctx context.Context, db bun.IDB, payouts []PrizePayout) (int, error) {
	if len(payouts) == 0 {
		return 0, nil
	}
	for i := range payouts {
		if payouts[i].ID == uuid.Nil {
			payouts[i].ID = uuid.New()
		}
	}

	res, err := db.NewInsert().
		Model(&payouts).
		On("CONFLICT (competition_id, user_id, placement) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("payout.InsertPayouts: %w", err)
	}
	return int(rowsAffected(res)), nil
}

func (r *CompetitionRepo) ListPayouts(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]PrizePayout, error) {
	var payouts []PrizePayout
	err := db.NewSelect().
		Model(&payouts).
		Where("competition_id = ?", competitionID).
		Order("placement ASC", "user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("payout.ListPayouts: %w", err)
	}
	return payouts, nil
}

func (r *CompetitionRepo) GetPayout(ctx context.Context, db bun.IDB, payoutID uuid.UUID) (*PrizePayout, error) {
	payout := new(PrizePayout)
	err := db.NewSelect().
		Model(payout).
		Where("id = ?", payoutID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("payout.GetPayout: %w", err)
	}
	return payout, nil
}

func (r *CompetitionRepo) ClaimPayout(ctx context.Context, db bun.IDB, payoutID, userID uuid.UUID, now time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*PrizePayout)(nil)).
		Set("claim_status = ?", competitiondomain.ClaimClaimed).
		Set("claimed_at = ?", now).
		Where("id = ?", payoutID).
		Where("user_id = ?", userID).
		Where("claim_status = ?", competitiondomain.ClaimUnclaimed).
		Where("claim_expires_at >= ?", now).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("payout.ClaimPayout: %w", err)
	}
	return rowsAffected(res) > 0, nil
}
