package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/urfave/cli/v2"
)

func newRiverCommand(dsn string) *cli.Command {
	return &cli.Command{
		Name:  "river",
		Usage: "job queue schema",
		Subcommands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply River queue migrations",
				Action: func(c *cli.Context) error {
					pool, err := pgxpool.New(c.Context, dsn)
					if err != nil {
						return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
					}
					defer pool.Close()

					migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
					if err != nil {
						return fmt.Errorf("failed to create River migrator: %w", err)
					}

					res, err := migrator.Migrate(c.Context, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
					if err != nil {
						return fmt.Errorf("failed to run River migrations: %w", err)
					}
					if len(res.Versions) == 0 {
						fmt.Println("River schema already up to date")
					}
					for _, v := range res.Versions {
						fmt.Printf("Applied River migration %d\n", v.Version)
					}
					return nil
				},
			},
		},
	}
}
