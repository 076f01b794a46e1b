package testutils

import (
	"context"
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TestDataGenerator creates competition fixtures with fake but stable data.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  uint64
}

// NewTestDataGenerator creates a generator. An optional seed makes runs reproducible.
func NewTestDataGenerator(seed ...uint64) *TestDataGenerator {
	s := uint64(time.Now().UnixNano())
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(s), seed: s}
}

// CompetitionFixture is what SeedCompetition wrote.
type CompetitionFixture struct {
	Competition  competitiondb.Competition
	Participants []competitiondb.Participant
	Pool         *competitiondb.PrizePool
}

// CompetitionOptions shapes a seeded competition.
type CompetitionOptions struct {
	Status competitiondomain.CompetitionStatus
	// Points lists one total per participant; participants are created in this order.
	Points []float64
	// Pool, when set, attaches a fixed pool with this total and structure.
	PoolTotal       competitiondomain.Cents
	PayoutStructure competitiondomain.PayoutStructure
}

// SeedCompetition inserts an individual competition, its participants with
// profiles, and optionally a fixed prize pool.
func (g *TestDataGenerator) SeedCompetition(ctx context.Context, db bun.IDB, opts CompetitionOptions) (CompetitionFixture, error) {
	status := opts.Status
	if status == "" {
		status = competitiondomain.CompetitionCompleted
	}

	fx := CompetitionFixture{
		Competition: competitiondb.Competition{
			ID:            uuid.New(),
			Name:          g.faker.Company() + " Challenge",
			CreatorUserID: uuid.New(),
			Status:        status,
			HasPrizePool:  opts.PoolTotal > 0,
			EndsAt:        time.Now().UTC().Add(-time.Hour),
		},
	}
	if _, err := db.NewInsert().Model(&fx.Competition).Exec(ctx); err != nil {
		return fx, err
	}

	profiles := make([]competitiondb.UserProfile, 0, len(opts.Points))
	for _, points := range opts.Points {
		p := competitiondb.Participant{
			ID:            uuid.New(),
			CompetitionID: fx.Competition.ID,
			UserID:        uuid.New(),
			TotalPoints:   points,
			PrizeEligible: true,
		}
		fx.Participants = append(fx.Participants, p)
		profiles = append(profiles, competitiondb.UserProfile{
			UserID:       p.UserID,
			DisplayName:  g.faker.Name(),
			Email:        g.faker.Email(),
			PayoutHandle: "@" + g.faker.Username(),
		})
	}
	if len(fx.Participants) > 0 {
		if _, err := db.NewInsert().Model(&fx.Participants).Exec(ctx); err != nil {
			return fx, err
		}
		if _, err := db.NewInsert().Model(&profiles).Exec(ctx); err != nil {
			return fx, err
		}
	}

	if opts.PoolTotal > 0 {
		fx.Pool = &competitiondb.PrizePool{
			ID:              uuid.New(),
			CompetitionID:   fx.Competition.ID,
			PoolType:        competitiondomain.PoolTypeFixed,
			TotalAmount:     opts.PoolTotal,
			PayoutStructure: opts.PayoutStructure,
			Status:          competitiondomain.PoolActive,
		}
		if _, err := db.NewInsert().Model(fx.Pool).Exec(ctx); err != nil {
			return fx, err
		}
	}
	return fx, nil
}

// RandomPoints returns n distinct descending totals.
func (g *TestDataGenerator) RandomPoints(n int) []float64 {
	out := make([]float64, n)
	next := g.faker.Float64Range(1000, 2000)
	for i := range out {
		out[i] = next
		next -= g.faker.Float64Range(1, 100)
	}
	return out
}
