package competitionhandlers

import (
	"context"
	"errors"
	"fmt"

	competitionevents "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/events"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// HandleCompetitionCompleted settles the competition named in the event and
// reports the outcome. Redelivery is safe because settlement is idempotent.
func (h *CompetitionHandlers) HandleCompetitionCompleted(msg *message.Message) ([]*message.Message, error) {
	wrapper := h.handlerWrapper(
		"HandleCompetitionCompleted",
		&competitionevents.CompetitionCompletedPayloadV1{},
		func(ctx context.Context, msg *message.Message, payload any) ([]*message.Message, error) {
			completed, ok := payload.(*competitionevents.CompetitionCompletedPayloadV1)
			if !ok {
				return nil, errors.New("invalid payload type for HandleCompetitionCompleted")
			}
			if completed.CompetitionID == uuid.Nil {
				return nil, errors.New("competition_id is required")
			}

			result, err := h.service.SettleCompetition(ctx, completed.CompetitionID)
			if err != nil {
				return nil, fmt.Errorf("settle competition: %w", err)
			}

			if result.Failure != nil {
				out, err := competitionevents.NewMessage(ctx, competitionevents.CompetitionSettlementFailedV1,
					competitionevents.CompetitionSettlementFailedPayloadV1{
						CompetitionID: completed.CompetitionID,
						Reason:        (*result.Failure).Error(),
					}, msg)
				if err != nil {
					return nil, err
				}
				return []*message.Message{out}, nil
			}

			settled := result.Success
			out, err := competitionevents.NewMessage(ctx, competitionevents.CompetitionSettledV1,
				competitionevents.CompetitionSettledPayloadV1{
					CompetitionID:   settled.CompetitionID,
					Processed:       settled.Processed,
					Reason:          settled.Reason,
					PayoutsCreated:  settled.PayoutsCreated,
					WinnersRecorded: settled.WinnersRecorded,
				}, msg)
			if err != nil {
				return nil, err
			}
			return []*message.Message{out}, nil
		},
	)

	return wrapper(msg)
}
