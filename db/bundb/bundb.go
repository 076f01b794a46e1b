// Package bundb opens the Postgres connection shared by repositories and the job queue.
package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-league/config"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// DBService holds the bun handle and the repositories built on it.
type DBService struct {
	CompetitionDB competitiondb.Repository
	db            *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// Close closes the connection pool.
func (s *DBService) Close() error {
	return s.db.Close()
}

// NewBunDBService connects to Postgres and builds the repositories.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to PostgreSQL", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.InfoContext(ctx, "Connected to PostgreSQL")
	return NewTestDBService(BunDB(sqldb)), nil
}

// NewTestDBService wraps an existing bun handle, for integration tests.
func NewTestDBService(db *bun.DB) *DBService {
	RegisterModels(db)
	return &DBService{
		CompetitionDB: competitiondb.NewRepository(),
		db:            db,
	}
}

// RegisterModels registers the competition models with bun.
func RegisterModels(db *bun.DB) {
	db.RegisterModel(
		(*competitiondb.Competition)(nil),
		(*competitiondb.Team)(nil),
		(*competitiondb.Participant)(nil),
		(*competitiondb.PrizePool)(nil),
		(*competitiondb.BuyIn)(nil),
		(*competitiondb.PrizePayout)(nil),
		(*competitiondb.CompetitionResult)(nil),
		(*competitiondb.UserProfile)(nil),
	)
}

// BunDB returns a new bun.DB for given sql.DB connection pool.
func BunDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
