package competitiondomain

import (
	"errors"
	"time"
)

// CompetitionStatus is driven externally; settlement only reads it.
type CompetitionStatus string

const (
	CompetitionDraft     CompetitionStatus = "draft"
	CompetitionUpcoming  CompetitionStatus = "upcoming"
	CompetitionActive    CompetitionStatus = "active"
	CompetitionCompleted CompetitionStatus = "completed"
)

// PoolType distinguishes creator-funded pools from pools funded by captured buy-ins.
type PoolType string

const (
	PoolTypeFixed PoolType = "fixed"
	PoolTypeBuyIn PoolType = "buy_in"
)

// PoolStatus moves active -> distributing -> distributed and never back.
type PoolStatus string

const (
	PoolActive       PoolStatus = "active"
	PoolDistributing PoolStatus = "distributing"
	PoolDistributed  PoolStatus = "distributed"
)

// ClaimStatus of a payout. Both claimed and expired are terminal.
type ClaimStatus string

const (
	ClaimUnclaimed ClaimStatus = "unclaimed"
	ClaimClaimed   ClaimStatus = "claimed"
	ClaimExpired   ClaimStatus = "expired"
)

const (
	// ClaimWindow is how long a winner has to claim a payout after it is created.
	ClaimWindow = 7 * 24 * time.Hour

	// MaxPlacements is the number of paid placement tiers.
	MaxPlacements = 5
)

// WinKind is the winner-feed record kind written at settlement.
const WinKind = "won"

var (
	ErrInvalidPayoutStructure = errors.New("invalid payout structure")
	ErrInvalidPoolAmount      = errors.New("invalid prize pool amount")
	ErrInvalidPoolType        = errors.New("invalid prize pool type")
	ErrInvalidScore           = errors.New("invalid score value")
	ErrClaimExpired           = errors.New("payout claim window has expired")
	ErrClaimAlreadyClaimed    = errors.New("payout already claimed")
)
