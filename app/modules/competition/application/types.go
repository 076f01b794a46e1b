package competitionservice

import (
	"time"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
)

// Settlement reasons reported in SettlementResult.Reason.
const (
	ReasonNotCompleted        = "competition_not_completed"
	ReasonSettled             = "settled"
	ReasonNoPrizePool         = "no_prize_pool"
	ReasonAlreadySettled      = "already_settled"
	ReasonPayoutsAlreadyExist = "payouts_already_exist"
)

// Notification types sent to the push collaborator.
const (
	NotificationCompetitionWon = "competition_won"
	NotificationPrizePayout    = "prize_payout"
)

// SettlementResult describes what a settle call did. Repeated calls are
// successes with Processed=false, never failures.
type SettlementResult struct {
	CompetitionID    uuid.UUID               `json:"competition_id"`
	Processed        bool                    `json:"processed"`
	Reason           string                  `json:"reason,omitempty"`
	AlreadySettled   bool                    `json:"already_settled"`
	WinnersRecorded  int                     `json:"winners_recorded"`
	PayoutsCreated   int                     `json:"payouts_created"`
	TotalDistributed competitiondomain.Cents `json:"total_distributed_cents"`
}

// LockResult is returned by LockScore. AlreadyLocked marks an idempotent repeat
// and LockedAt is then the original lock time.
type LockResult struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Locked        bool      `json:"locked"`
	AlreadyLocked bool      `json:"already_locked"`
	LockedAt      time.Time `json:"locked_at"`
}

// SyncResult is returned by SyncScore.
type SyncResult struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	TotalPoints   float64   `json:"total_points"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Standings is a ranked view of one score snapshot.
type Standings struct {
	CompetitionID   uuid.UUID                           `json:"competition_id"`
	CompetitionName string                              `json:"competition_name"`
	IsTeam          bool                                `json:"is_team"`
	Status          competitiondomain.CompetitionStatus `json:"status"`
	Entries         []competitiondomain.RankedEntry     `json:"entries"`
	GeneratedAt     time.Time                           `json:"generated_at"`
}

// PrizePoolView is the pool as seen by callers, including captured funds.
type PrizePoolView struct {
	ID              uuid.UUID                         `json:"id"`
	CompetitionID   uuid.UUID                         `json:"competition_id"`
	PoolType        competitiondomain.PoolType        `json:"pool_type"`
	TotalAmount     competitiondomain.Cents           `json:"total_amount_cents"`
	BuyInAmount     competitiondomain.Cents           `json:"buy_in_amount_cents"`
	CapturedAmount  competitiondomain.Cents           `json:"captured_amount_cents"`
	PayoutStructure competitiondomain.PayoutStructure `json:"payout_structure"`
	Status          competitiondomain.PoolStatus      `json:"status"`
	DistributedAt   *time.Time                        `json:"distributed_at,omitempty"`
}

// BuyInResult is returned by CaptureBuyIn.
type BuyInResult struct {
	PrizePoolID     uuid.UUID               `json:"prize_pool_id"`
	ParticipantID   uuid.UUID               `json:"participant_id"`
	PaymentRef      string                  `json:"payment_ref"`
	AlreadyCaptured bool                    `json:"already_captured"`
	PoolTotal       competitiondomain.Cents `json:"pool_total_cents"`
}

// PayoutView is a payout with its lazily evaluated claim status.
type PayoutView struct {
	ID             uuid.UUID                       `json:"id"`
	CompetitionID  uuid.UUID                       `json:"competition_id"`
	ParticipantID  uuid.UUID                       `json:"participant_id"`
	UserID         uuid.UUID                       `json:"user_id"`
	TeamID         *uuid.UUID                      `json:"team_id,omitempty"`
	Placement      int                             `json:"placement"`
	Amount         competitiondomain.Cents         `json:"payout_amount_cents"`
	StoredStatus   competitiondomain.ClaimStatus   `json:"stored_status"`
	ClaimStatus    competitiondomain.ClaimStatus   `json:"claim_status"`
	ClaimExpiresAt time.Time                       `json:"claim_expires_at"`
	ClaimedAt      *time.Time                      `json:"claimed_at,omitempty"`
	Recipient      competitiondb.RecipientSnapshot `json:"recipient,omitzero"`
	CreatedAt      time.Time                       `json:"created_at"`
}

// ClaimResult is returned by ClaimPayout.
type ClaimResult struct {
	PayoutID  uuid.UUID `json:"payout_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// PayoutReport bundles what the reconciliation export needs.
type PayoutReport struct {
	CompetitionID   uuid.UUID      `json:"competition_id"`
	CompetitionName string         `json:"competition_name"`
	Pool            *PrizePoolView `json:"pool,omitempty"`
	Payouts         []PayoutView   `json:"payouts"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// StuckPoolView is one pool flagged by the audit.
type StuckPoolView struct {
	PrizePoolID   uuid.UUID `json:"prize_pool_id"`
	CompetitionID uuid.UUID `json:"competition_id"`
	Since         time.Time `json:"since"`
	PayoutCount   int       `json:"payout_count"`
}

// AuditResult is returned by AuditPrizePools.
type AuditResult struct {
	CheckedAt time.Time       `json:"checked_at"`
	Stuck     []StuckPoolView `json:"stuck"`
}

// WinnerFeedRecord is published to the activity feed for each new winner.
type WinnerFeedRecord struct {
	UserID        uuid.UUID  `json:"user_id"`
	CompetitionID uuid.UUID  `json:"competition_id"`
	Rank          int        `json:"rank"`
	IsTeamWin     bool       `json:"is_team_win"`
	TeamID        *uuid.UUID `json:"team_id,omitempty"`
}

// Notification is a fire-and-forget push request.
type Notification struct {
	Type            string                  `json:"type"`
	RecipientUserID uuid.UUID               `json:"recipient_user_id"`
	CompetitionID   uuid.UUID               `json:"competition_id"`
	CompetitionName string                  `json:"competition_name"`
	PayoutID        *uuid.UUID              `json:"payout_id,omitempty"`
	AmountCents     competitiondomain.Cents `json:"amount_cents,omitempty"`
}
