// Package competitionevents holds the topics and payloads exchanged with the
// rest of the platform over the event bus.
package competitionevents

import (
	"github.com/google/uuid"
)

const (
	// CompetitionCompletedV1 is published by the lifecycle owner when a competition ends.
	CompetitionCompletedV1 = "competition.completed.v1"
	// CompetitionSettledV1 reports the outcome of a settlement attempt.
	CompetitionSettledV1 = "competition.settled.v1"
	// CompetitionSettlementFailedV1 reports a settlement that could not start.
	CompetitionSettlementFailedV1 = "competition.settlement_failed.v1"
	// ActivityCompetitionWonV1 carries one winner-feed record.
	ActivityCompetitionWonV1 = "activity.competition_won.v1"
)

// CompetitionCompletedPayloadV1 triggers settlement.
type CompetitionCompletedPayloadV1 struct {
	CompetitionID uuid.UUID `json:"competition_id"`
}

// CompetitionSettledPayloadV1 summarizes a settlement call.
type CompetitionSettledPayloadV1 struct {
	CompetitionID   uuid.UUID `json:"competition_id"`
	Processed       bool      `json:"processed"`
	Reason          string    `json:"reason"`
	PayoutsCreated  int       `json:"payouts_created"`
	WinnersRecorded int       `json:"winners_recorded"`
}

// CompetitionSettlementFailedPayloadV1 names the business reason settlement was refused.
type CompetitionSettlementFailedPayloadV1 struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	Reason        string    `json:"reason"`
}

// CompetitionWonPayloadV1 is the winner-feed record.
type CompetitionWonPayloadV1 struct {
	UserID        uuid.UUID  `json:"user_id"`
	CompetitionID uuid.UUID  `json:"competition_id"`
	Rank          int        `json:"rank"`
	IsTeamWin     bool       `json:"is_team_win"`
	TeamID        *uuid.UUID `json:"team_id,omitempty"`
}
