package competitionhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	competitionmetrics "github.com/Black-And-White-Club/stride-league/internal/observability/metrics/competition"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerScope = "handler"

// CompetitionHandlers handles competition-related events.
type CompetitionHandlers struct {
	service        competitionservice.Service
	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        competitionmetrics.CompetitionMetrics
	handlerWrapper func(handlerName string, unmarshalTo any, handlerFunc func(ctx context.Context, msg *message.Message, payload any) ([]*message.Message, error)) message.HandlerFunc
}

// NewCompetitionHandlers creates a new CompetitionHandlers.
func NewCompetitionHandlers(
	service competitionservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics competitionmetrics.CompetitionMetrics,
) Handlers {
	return &CompetitionHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
		handlerWrapper: func(handlerName string, unmarshalTo any, handlerFunc func(ctx context.Context, msg *message.Message, payload any) ([]*message.Message, error)) message.HandlerFunc {
			return handlerWrapper(handlerName, unmarshalTo, handlerFunc, logger, metrics, tracer)
		},
	}
}

// handlerWrapper is a standalone function that handles common tracing, logging, and metrics for handlers.
func handlerWrapper(
	handlerName string,
	unmarshalTo any,
	handlerFunc func(ctx context.Context, msg *message.Message, payload any) ([]*message.Message, error),
	logger *slog.Logger,
	metrics competitionmetrics.CompetitionMetrics,
	tracer trace.Tracer,
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := attr.WithCorrelationID(msg.Context(), msg.Metadata.Get(attr.CorrelationIDMetadataKey))
		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message_id", msg.UUID),
		))
		defer span.End()

		metrics.RecordOperationAttempt(ctx, handlerName, handlerScope)

		startTime := time.Now()
		defer func() {
			metrics.RecordOperationDuration(ctx, handlerName, handlerScope, time.Since(startTime))
		}()

		logger.InfoContext(ctx, handlerName+" triggered",
			attr.CorrelationIDFromMsg(msg),
			attr.String("message_id", msg.UUID),
		)

		if unmarshalTo != nil {
			if err := json.Unmarshal(msg.Payload, unmarshalTo); err != nil {
				logger.ErrorContext(ctx, "Failed to unmarshal payload",
					attr.CorrelationIDFromMsg(msg),
					attr.Error(err),
				)
				metrics.RecordOperationFailure(ctx, handlerName, handlerScope)
				span.RecordError(err)
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		result, err := handlerFunc(ctx, msg, unmarshalTo)
		if err != nil {
			logger.ErrorContext(ctx, "Error in "+handlerName,
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			metrics.RecordOperationFailure(ctx, handlerName, handlerScope)
			span.RecordError(err)
			return nil, err
		}

		logger.InfoContext(ctx, handlerName+" completed successfully", attr.CorrelationIDFromMsg(msg))
		metrics.RecordOperationSuccess(ctx, handlerName, handlerScope)
		return result, nil
	}
}
