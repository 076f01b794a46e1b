package competitionmigrations

import (
	"context"
	"fmt"

	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/uptrace/bun"
)

var competitionModels = []any{
	(*competitiondb.Competition)(nil),
	(*competitiondb.Team)(nil),
	(*competitiondb.Participant)(nil),
	(*competitiondb.PrizePool)(nil),
	(*competitiondb.BuyIn)(nil),
	(*competitiondb.PrizePayout)(nil),
	(*competitiondb.CompetitionResult)(nil),
	(*competitiondb.UserProfile)(nil),
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating competition settlement tables...")

		for _, model := range competitionModels {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		fmt.Println("Competition settlement tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping competition settlement tables...")

		for i := len(competitionModels) - 1; i >= 0; i-- {
			if _, err := db.NewDropTable().Model(competitionModels[i]).IfExists().Cascade().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", competitionModels[i], err)
			}
		}

		fmt.Println("Competition settlement tables dropped successfully!")
		return nil
	})
}
