package competitiondb

import (
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Competition is read by settlement; its status is owned elsewhere.
type Competition struct {
	bun.BaseModel `bun:"table:competitions,alias:c"`

	ID                uuid.UUID                           `bun:"id,pk,type:uuid"`
	Name              string                              `bun:"name,notnull"`
	CreatorUserID     uuid.UUID                           `bun:"creator_user_id,type:uuid,notnull"`
	Status            competitiondomain.CompetitionStatus `bun:"status,notnull,default:'draft'"`
	IsTeamCompetition bool                                `bun:"is_team_competition,notnull,default:false"`
	TeamCount         *int                                `bun:"team_count"`
	HasPrizePool      bool                                `bun:"has_prize_pool,notnull,default:false"`
	EndsAt            time.Time                           `bun:"ends_at,nullzero"`
	CreatedAt         time.Time                           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time                           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Team exists only for team competitions. Membership is fixed once assigned.
type Team struct {
	bun.BaseModel `bun:"table:competition_teams,alias:ct"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	CompetitionID uuid.UUID `bun:"competition_id,type:uuid,notnull"`
	TeamNumber    int       `bun:"team_number,notnull"`
	Name          string    `bun:"name"`
}

// Participant is one score ledger row.
type Participant struct {
	bun.BaseModel `bun:"table:competition_participants,alias:cp"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	CompetitionID uuid.UUID  `bun:"competition_id,type:uuid,notnull"`
	UserID        uuid.UUID  `bun:"user_id,type:uuid,notnull"`
	TeamID        *uuid.UUID `bun:"team_id,type:uuid"`
	TotalPoints   float64    `bun:"total_points,notnull,default:0"`
	PrizeEligible bool       `bun:"prize_eligible,notnull,default:true"`
	// ScoreLockedAt is immutable once set.
	ScoreLockedAt *time.Time `bun:"score_locked_at"`
	JoinedAt      time.Time  `bun:"joined_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	TeamNumber int `bun:"team_number,scanonly"`
}

// PrizePool is the monetary pool of a competition (at most one).
type PrizePool struct {
	bun.BaseModel `bun:"table:prize_pools,alias:pp"`

	ID              uuid.UUID                         `bun:"id,pk,type:uuid"`
	CompetitionID   uuid.UUID                         `bun:"competition_id,type:uuid,notnull,unique"`
	PoolType        competitiondomain.PoolType        `bun:"pool_type,notnull"`
	TotalAmount     competitiondomain.Cents           `bun:"total_amount_cents,notnull,default:0"`
	BuyInAmount     competitiondomain.Cents           `bun:"buy_in_amount_cents,notnull,default:0"`
	PayoutStructure competitiondomain.PayoutStructure `bun:"payout_structure,type:jsonb,notnull"`
	Status          competitiondomain.PoolStatus      `bun:"status,notnull,default:'active'"`
	CreatedAt       time.Time                         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time                         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DistributedAt   *time.Time                        `bun:"distributed_at"`
}

// BuyIn is one captured buy-in payment credited to a pool.
type BuyIn struct {
	bun.BaseModel `bun:"table:prize_pool_buy_ins,alias:bi"`

	ID            uuid.UUID               `bun:"id,pk,type:uuid"`
	PrizePoolID   uuid.UUID               `bun:"prize_pool_id,type:uuid,notnull"`
	CompetitionID uuid.UUID               `bun:"competition_id,type:uuid,notnull"`
	ParticipantID uuid.UUID               `bun:"participant_id,type:uuid,notnull"`
	PaymentRef    string                  `bun:"payment_ref,notnull,unique"`
	Amount        competitiondomain.Cents `bun:"amount_cents,notnull"`
	CapturedAt    time.Time               `bun:"captured_at,nullzero,notnull,default:current_timestamp"`
}

// RecipientSnapshot freezes the payout target at creation time.
type RecipientSnapshot struct {
	UserID       uuid.UUID `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	PayoutHandle string    `json:"payout_handle,omitempty"`
	CapturedAt   time.Time `json:"captured_at"`
}

// PrizePayout is a claimable payout obligation. Amount and recipient never change.
type PrizePayout struct {
	bun.BaseModel `bun:"table:prize_payouts,alias:po"`

	ID            uuid.UUID                     `bun:"id,pk,type:uuid"`
	CompetitionID uuid.UUID                     `bun:"competition_id,type:uuid,notnull"`
	PrizePoolID   uuid.UUID                     `bun:"prize_pool_id,type:uuid,notnull"`
	ParticipantID uuid.UUID                     `bun:"participant_id,type:uuid,notnull"`
	UserID        uuid.UUID                     `bun:"user_id,type:uuid,notnull"`
	TeamID        *uuid.UUID                    `bun:"team_id,type:uuid"`
	Placement     int                           `bun:"placement,notnull"`
	Amount        competitiondomain.Cents       `bun:"payout_amount_cents,notnull"`
	ClaimStatus   competitiondomain.ClaimStatus `bun:"claim_status,notnull,default:'unclaimed'"`
	ClaimExpires  time.Time                     `bun:"claim_expires_at,notnull"`
	ClaimedAt     *time.Time                    `bun:"claimed_at"`
	Recipient     RecipientSnapshot             `bun:"recipient,type:jsonb,notnull"`
	CreatedAt     time.Time                     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// CompetitionResult is a winner-feed record.
type CompetitionResult struct {
	bun.BaseModel `bun:"table:competition_results,alias:cr"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid"`
	CompetitionID uuid.UUID  `bun:"competition_id,type:uuid,notnull"`
	UserID        uuid.UUID  `bun:"user_id,type:uuid,notnull"`
	Kind          string     `bun:"kind,notnull"`
	Rank          int        `bun:"rank,notnull"`
	IsTeamWin     bool       `bun:"is_team_win,notnull,default:false"`
	TeamID        *uuid.UUID `bun:"team_id,type:uuid"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// UserProfile is maintained by the profile service; settlement only reads it.
type UserProfile struct {
	bun.BaseModel `bun:"table:user_profiles,alias:up"`

	UserID       uuid.UUID `bun:"user_id,pk,type:uuid"`
	DisplayName  string    `bun:"display_name,notnull"`
	Email        string    `bun:"email"`
	PayoutHandle string    `bun:"payout_handle"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// StuckPool is a pool observed in distributing past the audit threshold.
type StuckPool struct {
	PrizePool   PrizePool
	PayoutCount int
}
