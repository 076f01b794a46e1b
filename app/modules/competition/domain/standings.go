package competitiondomain

import (
	"bytes"
	"cmp"
	"math"
	"slices"

	"github.com/google/uuid"
)

// ScoreEntry is one participant row from a score ledger snapshot.
type ScoreEntry struct {
	ParticipantID uuid.UUID  `json:"participant_id"`
	UserID        uuid.UUID  `json:"user_id"`
	TeamID        *uuid.UUID `json:"team_id,omitempty"`
	TeamNumber    int        `json:"team_number,omitempty"`
	TotalPoints   float64    `json:"total_points"`
	PrizeEligible bool       `json:"prize_eligible"`
}

// RankedEntry is one line of the standings. Individual entries carry the
// participant; team entries carry the team and all of its members.
type RankedEntry struct {
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
	// Tied is set when Score equals the previous entry's Score.
	Tied bool `json:"tied"`

	ParticipantID uuid.UUID `json:"participant_id,omitempty"`
	UserID        uuid.UUID `json:"user_id,omitempty"`
	PrizeEligible bool      `json:"prize_eligible,omitempty"`

	TeamID     uuid.UUID    `json:"team_id,omitempty"`
	TeamNumber int          `json:"team_number,omitempty"`
	Members    []ScoreEntry `json:"members,omitempty"`
}

// Rank orders a snapshot into standings. It is pure and deterministic.
//
// Individual mode sorts by points descending, then participant ID ascending.
// Team mode averages member points per team (members without a team are not
// ranked) and sorts by average descending, then team number, then team ID.
// Eligibility is not considered here.
func Rank(entries []ScoreEntry, isTeam bool) []RankedEntry {
	if isTeam {
		return rankTeams(entries)
	}
	return rankIndividuals(entries)
}

func rankIndividuals(entries []ScoreEntry) []RankedEntry {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, compareMembers)

	ranked := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = RankedEntry{
			Rank:          i + 1,
			Score:         e.TotalPoints,
			Tied:          i > 0 && sorted[i-1].TotalPoints == e.TotalPoints,
			ParticipantID: e.ParticipantID,
			UserID:        e.UserID,
			PrizeEligible: e.PrizeEligible,
		}
	}
	return ranked
}

type teamAggregate struct {
	id      uuid.UUID
	number  int
	sum     float64
	members []ScoreEntry
}

func rankTeams(entries []ScoreEntry) []RankedEntry {
	byTeam := make(map[uuid.UUID]*teamAggregate)
	for _, e := range entries {
		if e.TeamID == nil {
			continue
		}
		agg, ok := byTeam[*e.TeamID]
		if !ok {
			agg = &teamAggregate{id: *e.TeamID, number: e.TeamNumber}
			byTeam[*e.TeamID] = agg
		}
		agg.sum += e.TotalPoints
		agg.members = append(agg.members, e)
	}

	ranked := make([]RankedEntry, 0, len(byTeam))
	for _, agg := range byTeam {
		slices.SortFunc(agg.members, compareMembers)
		ranked = append(ranked, RankedEntry{
			Score:      agg.sum / float64(len(agg.members)),
			TeamID:     agg.id,
			TeamNumber: agg.number,
			Members:    agg.members,
		})
	}

	slices.SortFunc(ranked, func(a, b RankedEntry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TeamNumber, b.TeamNumber); c != 0 {
			return c
		}
		return bytes.Compare(a.TeamID[:], b.TeamID[:])
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Tied = i > 0 && ranked[i-1].Score == ranked[i].Score
	}
	return ranked
}

func compareMembers(a, b ScoreEntry) int {
	if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
		return c
	}
	return bytes.Compare(a.ParticipantID[:], b.ParticipantID[:])
}

// ValidateScore rejects negative and non-finite totals.
func ValidateScore(points float64) error {
	if math.IsNaN(points) || math.IsInf(points, 0) || points < 0 {
		return ErrInvalidScore
	}
	return nil
}
