package competitionservice

import (
	"errors"

	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
)

// Domain errors for the competition service.
// These are business outcomes returned in OperationResult.Failure, never as
// the error return, so callers do not retry them.
var (
	// ErrNotFound indicates the competition, participant, pool or payout does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized indicates the caller does not own the record or is not the competition creator.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrScoreLocked indicates the participant locked their score; no further writes are accepted.
	ErrScoreLocked = errors.New("score is locked")

	// ErrCompetitionNotActive indicates score writes were attempted outside the active phase.
	ErrCompetitionNotActive = errors.New("competition is not active")

	// ErrCompetitionCompleted indicates the competition already ended.
	ErrCompetitionCompleted = errors.New("competition is completed")

	// ErrPrizePoolExists indicates the competition already has a prize pool.
	ErrPrizePoolExists = errors.New("prize pool already exists")

	// ErrPrizePoolNotActive indicates the pool is distributing or distributed.
	ErrPrizePoolNotActive = errors.New("prize pool is not active")

	// ErrBuyInMismatch indicates a capture that does not match the pool's buy-in.
	ErrBuyInMismatch = errors.New("buy-in does not match prize pool")

	// ErrInvalidPaymentRef indicates a capture without a payment reference.
	ErrInvalidPaymentRef = errors.New("payment reference required")

	ErrInvalidScore           = competitiondomain.ErrInvalidScore
	ErrInvalidPayoutStructure = competitiondomain.ErrInvalidPayoutStructure
	ErrPayoutExpired          = competitiondomain.ErrClaimExpired
	ErrPayoutAlreadyClaimed   = competitiondomain.ErrClaimAlreadyClaimed
)

// errSkipCommit rolls a transaction back while runInTx still returns the
// result built inside it.
var errSkipCommit = errors.New("transaction skipped")
