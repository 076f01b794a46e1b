package competitionrouter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	competitionevents "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/events"
	competitionhandlers "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/handlers"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	competitionmetrics "github.com/Black-And-White-Club/stride-league/internal/observability/metrics/competition"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// CompetitionRouter wires competition handlers into a watermill router.
type CompetitionRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     message.Subscriber
	publisher      message.Publisher
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

// NewCompetitionRouter creates a new CompetitionRouter.
func NewCompetitionRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
	prometheusRegistry *prometheus.Registry,
) *CompetitionRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && !inTestEnv {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}
	return &CompetitionRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
		metricsEnabled: metricsBuilder != nil,
	}
}

// Configure registers handlers and middleware on the router.
func (r *CompetitionRouter) Configure(routerCtx context.Context, service competitionservice.Service, competitionMetrics competitionmetrics.CompetitionMetrics) error {
	if r.metricsEnabled {
		r.logger.Info("Adding Prometheus router metrics middleware")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	} else {
		r.logger.Info("Skipping Prometheus router metrics middleware - either in test environment or metrics not configured")
	}

	handlers := competitionhandlers.NewCompetitionHandlers(service, r.logger, r.tracer, competitionMetrics)

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{MaxRetries: 3}.Middleware,
	)

	if err := r.RegisterHandlers(routerCtx, handlers); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	return nil
}

// RegisterHandlers registers event handlers using V1 versioned event constants.
func (r *CompetitionRouter) RegisterHandlers(ctx context.Context, handlers competitionhandlers.Handlers) error {
	eventsToHandlers := map[string]message.HandlerFunc{
		competitionevents.CompetitionCompletedV1: handlers.HandleCompetitionCompleted,
	}

	for topic, handlerFunc := range eventsToHandlers {
		handlerName := fmt.Sprintf("competition.%s", topic)
		r.Router.AddHandler(
			handlerName,
			topic,
			r.subscriber,
			"",
			nil,
			func(msg *message.Message) ([]*message.Message, error) {
				messages, err := handlerFunc(msg)
				if err != nil {
					r.logger.ErrorContext(ctx, "Error processing message", attr.String("message_id", msg.UUID), attr.Error(err))
					return nil, err
				}
				for _, m := range messages {
					publishTopic := m.Metadata.Get("topic")
					if publishTopic == "" {
						r.logger.Error("router failed to resolve publish topic - MESSAGE DROPPED",
							attr.String("handler", handlerName),
							attr.String("msg_uuid", m.UUID),
							attr.String("correlation_id", m.Metadata.Get(attr.CorrelationIDMetadataKey)),
						)
						continue
					}

					r.logger.InfoContext(ctx, "publishing message",
						attr.String("topic", publishTopic),
						attr.String("handler", handlerName),
						attr.String("correlation_id", m.Metadata.Get(attr.CorrelationIDMetadataKey)),
					)

					if err := r.publisher.Publish(publishTopic, m); err != nil {
						return nil, fmt.Errorf("failed to publish to %s: %w", publishTopic, err)
					}
				}
				return nil, nil
			},
		)
	}
	return nil
}

// Run blocks until the router stops or ctx is cancelled.
func (r *CompetitionRouter) Run(ctx context.Context) error {
	return r.Router.Run(ctx)
}

func (r *CompetitionRouter) Close() error {
	return r.Router.Close()
}
