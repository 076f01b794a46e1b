package competitiondomain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cents is an amount in the smallest currency unit.
type Cents int64

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

var placementKeys = [MaxPlacements]string{"first", "second", "third", "fourth", "fifth"}

// PlacementKey maps a 1-based rank to its payout structure key.
func PlacementKey(rank int) (string, bool) {
	if rank < 1 || rank > MaxPlacements {
		return "", false
	}
	return placementKeys[rank-1], true
}

// PayoutStructure maps a placement key to a percentage of the pool total.
type PayoutStructure map[string]float64

// Validate checks keys are known placements, each share is within 0..100 and
// the shares do not exceed the whole pool. Shares are summed as decimals.
func (s PayoutStructure) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no placements defined", ErrInvalidPayoutStructure)
	}
	total := decimal.Zero
	for key, pct := range s {
		if !isPlacementKey(key) {
			return fmt.Errorf("%w: unknown placement %q", ErrInvalidPayoutStructure, key)
		}
		if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 || pct > 100 {
			return fmt.Errorf("%w: %s share %v out of range", ErrInvalidPayoutStructure, key, pct)
		}
		total = total.Add(decimal.NewFromFloat(pct))
	}
	if total.GreaterThan(hundred) {
		return fmt.Errorf("%w: shares sum to %s%%", ErrInvalidPayoutStructure, total)
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

func isPlacementKey(key string) bool {
	for _, k := range placementKeys {
		if k == key {
			return true
		}
	}
	return false
}

// TierAmount is floor(total * pct / 100). The share is taken at its shortest
// decimal form, so 12.345 means exactly 12.345 percent.
func TierAmount(total Cents, pct float64) Cents {
	if total <= 0 || math.IsNaN(pct) || math.IsInf(pct, 0) || pct <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(int64(total)).
		Mul(decimal.NewFromFloat(pct)).
		Shift(-2).
		Floor()
	return Cents(amount.IntPart())
}

// SplitTier divides a tier across n members, rounding each share down.
func SplitTier(tier Cents, n int) Cents {
	if n <= 0 || tier <= 0 {
		return 0
	}
	return tier / Cents(n)
}

// PlannedPayout is one payout obligation derived from standings.
type PlannedPayout struct {
	ParticipantID uuid.UUID
	UserID        uuid.UUID
	TeamID        *uuid.UUID
	Placement     int
	PlacementKey  string
	Amount        Cents
}

// BuildPayoutPlan converts standings into payouts.
//
// Individual mode: only prize-eligible participants take placements, in rank
// order, so an ineligible leader hands "first" to the next eligible entry.
// Team mode: a team's placement is its rank and its eligible members share the
// tier equally. Ranks past MaxPlacements and 0% tiers pay nothing.
func BuildPayoutPlan(standings []RankedEntry, isTeam bool, total Cents, structure PayoutStructure) []PlannedPayout {
	if isTeam {
		return buildTeamPlan(standings, total, structure)
	}
	return buildIndividualPlan(standings, total, structure)
}

func buildIndividualPlan(standings []RankedEntry, total Cents, structure PayoutStructure) []PlannedPayout {
	var plan []PlannedPayout
	placement := 0
	for _, entry := range standings {
		if !entry.PrizeEligible {
			continue
		}
		placement++
		key, ok := PlacementKey(placement)
		if !ok {
			break
		}
		amount := TierAmount(total, structure[key])
		if amount == 0 {
			continue
		}
		plan = append(plan, PlannedPayout{
			ParticipantID: entry.ParticipantID,
			UserID:        entry.UserID,
			Placement:     placement,
			PlacementKey:  key,
			Amount:        amount,
		})
	}
	return plan
}

func buildTeamPlan(standings []RankedEntry, total Cents, structure PayoutStructure) []PlannedPayout {
	var plan []PlannedPayout
	for _, team := range standings {
		key, ok := PlacementKey(team.Rank)
		if !ok {
			break
		}
		tier := TierAmount(total, structure[key])
		if tier == 0 {
			continue
		}

		eligible := make([]ScoreEntry, 0, len(team.Members))
		for _, m := range team.Members {
			if m.PrizeEligible {
				eligible = append(eligible, m)
			}
		}
		share := SplitTier(tier, len(eligible))
		if share == 0 {
			continue
		}

		teamID := team.TeamID
		for _, m := range eligible {
			plan = append(plan, PlannedPayout{
				ParticipantID: m.ParticipantID,
				UserID:        m.UserID,
				TeamID:        &teamID,
				Placement:     team.Rank,
				PlacementKey:  key,
				Amount:        share,
			})
		}
	}
	return plan
}

// PlanTotal sums the amounts of a plan.
func PlanTotal(plan []PlannedPayout) Cents {
	var sum Cents
	for _, p := range plan {
		sum += p.Amount
	}
	return sum
}

// Winners returns the users recorded in the winner feed: the top individual,
// or every member of the top team. Ties at the top are not widened.
func Winners(standings []RankedEntry, isTeam bool) []ScoreEntry {
	if len(standings) == 0 {
		return nil
	}
	top := standings[0]
	if isTeam {
		return top.Members
	}
	return []ScoreEntry{{
		ParticipantID: top.ParticipantID,
		UserID:        top.UserID,
		TotalPoints:   top.Score,
		PrizeEligible: top.PrizeEligible,
	}}
}
