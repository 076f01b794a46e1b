package competitionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var settlementConstraints = []string{
	// One payout per winner per placement; retried settlements cannot double-insert.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_prize_payouts_winner_placement
		ON prize_payouts (competition_id, user_id, placement)`,
	// One "won" record per user per competition.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_competition_results_user_kind
		ON competition_results (user_id, competition_id, kind)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_competition_participants_user
		ON competition_participants (competition_id, user_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_competition_teams_number
		ON competition_teams (competition_id, team_number)`,
	`CREATE INDEX IF NOT EXISTS idx_competition_participants_score
		ON competition_participants (competition_id, total_points DESC, id)`,
	`CREATE INDEX IF NOT EXISTS idx_prize_payouts_user
		ON prize_payouts (user_id, claim_status)`,
	`CREATE INDEX IF NOT EXISTS idx_prize_pools_status
		ON prize_pools (status, updated_at)`,
	`ALTER TABLE prize_pools DROP CONSTRAINT IF EXISTS chk_prize_pools_status`,
	`ALTER TABLE prize_pools ADD CONSTRAINT chk_prize_pools_status
		CHECK (status IN ('active', 'distributing', 'distributed'))`,
	`ALTER TABLE prize_payouts DROP CONSTRAINT IF EXISTS chk_prize_payouts_claim_status`,
	`ALTER TABLE prize_payouts ADD CONSTRAINT chk_prize_payouts_claim_status
		CHECK (claim_status IN ('unclaimed', 'claimed', 'expired'))`,
}

var settlementConstraintsDown = []string{
	`ALTER TABLE prize_payouts DROP CONSTRAINT IF EXISTS chk_prize_payouts_claim_status`,
	`ALTER TABLE prize_pools DROP CONSTRAINT IF EXISTS chk_prize_pools_status`,
	`DROP INDEX IF EXISTS idx_prize_pools_status`,
	`DROP INDEX IF EXISTS idx_prize_payouts_user`,
	`DROP INDEX IF EXISTS idx_competition_participants_score`,
	`DROP INDEX IF EXISTS uq_competition_teams_number`,
	`DROP INDEX IF EXISTS uq_competition_participants_user`,
	`DROP INDEX IF EXISTS uq_competition_results_user_kind`,
	`DROP INDEX IF EXISTS uq_prize_payouts_winner_placement`,
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding settlement uniqueness constraints...")
		for _, stmt := range settlementConstraints {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply %q: %w", stmt, err)
			}
		}
		fmt.Println("Settlement constraints added successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Removing settlement uniqueness constraints...")
		for _, stmt := range settlementConstraintsDown {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply %q: %w", stmt, err)
			}
		}
		fmt.Println("Settlement constraints removed successfully!")
		return nil
	})
}
