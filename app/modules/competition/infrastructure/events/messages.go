package competitionevents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// NewMessage marshals payload into a watermill message addressed to topic.
// The correlation ID is taken from the parent message when there is one,
// otherwise from ctx.
func NewMessage(ctx context.Context, topic string, payload any, parent *message.Message) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set("topic", topic)

	correlationID := ""
	if parent != nil {
		correlationID = parent.Metadata.Get(attr.CorrelationIDMetadataKey)
	}
	if correlationID == "" {
		correlationID = attr.CorrelationIDFromContext(ctx)
	}
	if correlationID != "" {
		msg.Metadata.Set(attr.CorrelationIDMetadataKey, correlationID)
	}

	msg.SetContext(ctx)
	return msg, nil
}
