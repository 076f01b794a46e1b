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

func (r *CompetitionRepo) GetPrizePool(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*PrizePool, error) {
	pool := new(PrizePool)
	err := db.NewSelect().
		Model(pool).
		Where("competition_id = ?", competitionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("prizepool.GetPrizePool: %w", err)
	}
	return pool, nil
}

func (r *CompetitionRepo) CreatePrizePool(ctx context.Context, db bun.IDB, pool *PrizePool) (bool, error) {
	if pool.ID == uuid.Nil {
		pool.ID = uuid.New()
	}
	now := time.Now().UTC()
	pool.CreatedAt = now
	pool.UpdatedAt = now

	res, err := db.NewInsert().
		Model(pool).
		On("CONFLICT (competition_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("prizepool.CreatePrizePool: %w", err)
	}
	return rowsAffected(res) > 0, nil
}

func (r *CompetitionRepo) SetHasPrizePool(ctx context.Context, db bun.IDB, competitionID uuid.UUID) error {
	res, err := db.NewUpdate().
		Model((*Competition)(nil)).
		Set("has_prize_pool = TRUE").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", competitionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("prizepool.SetHasPrizePool: %w", err)
	}
	if rowsAffected(res) == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *CompetitionRepo) BeginPoolDistribution(ctx context.Context, db bun.IDB, competitionID uuid.UUID, now time.Time) (*PrizePool, error) {
	pool := new(PrizePool)
	err := db.NewUpdate().
		Model(pool).
		Set("status = ?", competitiondomain.PoolDistributing).
		Set("updated_at = ?", now).
		Where("competition_id = ?", competitionID).
		Where("status = ?", competitiondomain.PoolActive).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("prizepool.BeginPoolDistribution: %w", err)
	}
	return pool, nil
}

func (r *CompetitionRepo) CompletePoolDistribution(ctx context.Context, db bun.IDB, poolID uuid.UUID, now time.Time) error {
	res, err := db.NewUpdate().
		Model((*PrizePool)(nil)).
		Set("status = ?", competitiondomain.PoolDistributed).
		Set("distributed_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", poolID).
		Where("status = ?", competitiondomain.PoolDistributing).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("prizepool.CompletePoolDistribution: %w", err)
	}
	if rowsAffected(res) == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *CompetitionRepo) RecordBuyIn(ctx context.Context, db bun.IDB, buyIn *BuyIn) (bool, error) {
	if buyIn.ID == uuid.Nil {
		buyIn.ID = uuid.New()
	}
	if buyIn.CapturedAt.IsZero() {
		buyIn.CapturedAt = time.Now().UTC()
	}
	res, err := db.NewInsert().
		Model(buyIn).
		On("CONFLICT (payment_ref) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("prizepool.RecordBuyIn: %w", err)
	}
	return rowsAffected(res) > 0, nil
}

func (r *CompetitionRepo) AddToPoolTotal(ctx context.Context, db bun.IDB, poolID uuid.UUID, amount competitiondomain.Cents, now time.Time) error {
	res, err := db.NewUpdate().
		Model((*PrizePool)(nil)).
		Set("total_amount_cents = total_amount_cents + ?", int64(amount)).
		Set("updated_at = ?", now).
		Where("id = ?", poolID).
		Where("status = ?", competitiondomain.PoolActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("prizepool.AddToPoolTotal: %w", err)
	}
	if rowsAffected(res) == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *CompetitionRepo) SumBuyIns(ctx context.Context, db bun.IDB, poolID uuid.UUID) (competitiondomain.Cents, error) {
	var total int64
	err := db.NewSelect().
		Model((*BuyIn)(nil)).
		ColumnExpr("COALESCE(SUM(amount_cents), 0)").
		Where("prize_pool_id = ?", poolID).
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("prizepool.SumBuyIns: %w", err)
	}
	return competitiondomain.Cents(total), nil
}

func (r *CompetitionRepo) ListStuckPools(ctx context.Context, db bun.IDB, olderThan time.Time) ([]StuckPool, error) {
	var pools []PrizePool
	err := db.NewSelect().
		Model(&pools).
		Where("status = ?", competitiondomain.PoolDistributing).
		Where("updated_at < ?", olderThan).
		Order("updated_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("prizepool.ListStuckPools: %w", err)
	}

	stuck := make([]StuckPool, 0, len(pools))
	for _, pool := range pools {
		count, err := r.CountPayouts(ctx, db, pool.CompetitionID)
		if err != nil {
			return nil, err
		}
		stuck = append(stuck, StuckPool{PrizePool: pool, PayoutCount: count})
	}
	return stuck, nil
}
