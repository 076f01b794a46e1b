package competitionevents

import (
	"context"
	"fmt"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	"github.com/ThreeDotsLabs/watermill/message"
)

// FeedPublisher publishes winner-feed records to the activity stream.
type FeedPublisher struct {
	publisher message.Publisher
}

// NewFeedPublisher creates a FeedPublisher.
func NewFeedPublisher(publisher message.Publisher) *FeedPublisher {
	return &FeedPublisher{publisher: publisher}
}

var _ competitionservice.WinnerFeedPublisher = (*FeedPublisher)(nil)

func (p *FeedPublisher) PublishCompetitionWon(ctx context.Context, record competitionservice.WinnerFeedRecord) error {
	msg, err := NewMessage(ctx, ActivityCompetitionWonV1, CompetitionWonPayloadV1{
		UserID:        record.UserID,
		CompetitionID: record.CompetitionID,
		Rank:          record.Rank,
		IsTeamWin:     record.IsTeamWin,
		TeamID:        record.TeamID,
	}, nil)
	if err != nil {
		return err
	}
	if err := p.publisher.Publish(ActivityCompetitionWonV1, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ActivityCompetitionWonV1, err)
	}
	return nil
}
