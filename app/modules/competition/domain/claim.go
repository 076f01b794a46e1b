package competitiondomain

import "time"

// ClaimExpiresAt returns the end of the claim window for a payout created at createdAt.
func ClaimExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(ClaimWindow)
}

// EffectiveClaimStatus applies lazy expiry: an unclaimed payout read after its
// window is expired even if the stored status was never updated.
func EffectiveClaimStatus(stored ClaimStatus, expiresAt, now time.Time) ClaimStatus {
	if stored == ClaimUnclaimed && now.After(expiresAt) {
		return ClaimExpired
	}
	return stored
}

// CheckClaimable reports why a payout cannot move to claimed, or nil if it can.
func CheckClaimable(stored ClaimStatus, expiresAt, now time.Time) error {
	switch EffectiveClaimStatus(stored, expiresAt, now) {
	case ClaimUnclaimed:
		return nil
	case ClaimClaimed:
		return ErrClaimAlreadyClaimed
	default:
		return ErrClaimExpired
	}
}
