package competitionrouter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	competitionevents "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/events"
	competitionmetrics "github.com/Black-And-White-Club/stride-league/internal/observability/metrics/competition"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type settleOnlyService struct {
	competitionservice.Service
}

func (settleOnlyService) SettleCompetition(_ context.Context, id uuid.UUID) (results.OperationResult[competitionservice.SettlementResult, error], error) {
	return results.SuccessResult[competitionservice.SettlementResult, error](competitionservice.SettlementResult{
		CompetitionID:    id,
		Processed:        true,
		Reason:           competitionservice.ReasonSettled,
		PayoutsCreated:   2,
		TotalDistributed: competitiondomain.Cents(10000),
	}), nil
}

func TestCompetitionRouter_SettlesAndPublishes(t *testing.T) {
	t.Setenv(TestEnvironmentFlag, TestEnvironmentValue)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	cr := NewCompetitionRouter(logger, router, pubSub, pubSub, noop.NewTracerProvider().Tracer("test"), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, cr.Configure(ctx, settleOnlyService{}, competitionmetrics.NoOpMetrics{}))

	settled, err := pubSub.Subscribe(ctx, competitionevents.CompetitionSettledV1)
	require.NoError(t, err)

	go func() { _ = cr.Run(ctx) }()
	defer cr.Close()
	<-router.Running()

	competitionID := uuid.New()
	body, err := json.Marshal(competitionevents.CompetitionCompletedPayloadV1{CompetitionID: competitionID})
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish(competitionevents.CompetitionCompletedV1, message.NewMessage(watermill.NewUUID(), body)))

	select {
	case msg := <-settled:
		msg.Ack()
		var payload competitionevents.CompetitionSettledPayloadV1
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, competitionID, payload.CompetitionID)
		assert.True(t, payload.Processed)
		assert.Equal(t, 2, payload.PayoutsCreated)
	case <-ctx.Done():
		t.Fatal("timed out waiting for competition.settled.v1")
	}
}
