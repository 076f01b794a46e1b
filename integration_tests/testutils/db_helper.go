package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	competitionmigrations "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories/migrations"
)

// competitionTables lists every table the competition module owns, children first.
var competitionTables = []string{
	"prize_payouts",
	"prize_pool_buy_ins",
	"prize_pools",
	"competition_results",
	"competition_participants",
	"competition_teams",
	"competitions",
	"user_profiles",
}

// runMigrations applies the River schema and then the competition migrations.
func runMigrations(ctx context.Context, db *bun.DB, pgConnStr string) error {
	if err := runRiverMigrations(ctx, pgConnStr); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}

	migrator := migrate.NewMigrator(db, competitionmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run competition migrations: %w", err)
	}
	if group.IsZero() {
		log.Println("No competition migrations to run")
	} else {
		log.Printf("Ran competition migrations group #%d", group.ID)
	}
	return nil
}

func runRiverMigrations(ctx context.Context, pgConnStr string) error {
	pool, err := pgxpool.New(ctx, pgConnStr)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return err
	}
	return nil
}

// CleanupRiverJobs deletes all jobs from the River queue.
func CleanupRiverJobs(ctx context.Context, db bun.IDB) error {
	_, err := db.ExecContext(ctx, "DELETE FROM river_job")
	return err
}

// CleanupDatabase truncates all competition tables and clears queued jobs.
func CleanupDatabase(ctx context.Context, db bun.IDB) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(competitionTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	if err := CleanupRiverJobs(ctx, db); err != nil {
		return fmt.Errorf("failed to cleanup river jobs: %w", err)
	}
	return nil
}
