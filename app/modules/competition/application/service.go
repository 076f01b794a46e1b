package competitionservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	competitionmetrics "github.com/Black-And-White-Club/stride-league/internal/observability/metrics/competition"
	"github.com/Black-And-White-Club/stride-league/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const metricsScope = "competition"

// CompetitionService implements the Service interface.
type CompetitionService struct {
	repo       competitiondb.Repository
	dispatcher NotificationDispatcher
	feed       WinnerFeedPublisher
	logger     *slog.Logger
	metrics    competitionmetrics.CompetitionMetrics
	tracer     trace.Tracer
	db         *bun.DB
	now        func() time.Time
}

// NewCompetitionService creates a new CompetitionService.
func NewCompetitionService(
	repo competitiondb.Repository,
	dispatcher NotificationDispatcher,
	feed WinnerFeedPublisher,
	logger *slog.Logger,
	metrics competitionmetrics.CompetitionMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *CompetitionService {
	return &CompetitionService{
		repo:       repo,
		dispatcher: dispatcher,
		feed:       feed,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		db:         db,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var _ Service = (*CompetitionService)(nil)

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *CompetitionService,
	ctx context.Context,
	operationName string,
	subjectID uuid.UUID,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("subject_id", subjectID.String()),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, metricsScope)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, metricsScope, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, operationName+" triggered",
		attr.String("operation", operationName),
		attr.UUID("subject_id", subjectID),
		attr.ExtractCorrelationID(ctx),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.UUID("subject_id", subjectID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, metricsScope)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.UUID("subject_id", subjectID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, metricsScope)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.UUID("subject_id", subjectID),
			attr.Any("failure_payload", *result.Failure),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, metricsScope)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			attr.String("operation", operationName),
			attr.UUID("subject_id", subjectID),
			attr.ExtractCorrelationID(ctx),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName, metricsScope)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
// errSkipCommit rolls the transaction back but keeps the result.
func runInTx[S any, F any](
	s *CompetitionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		result, err := fn(ctx, nil)
		if errors.Is(err, errSkipCommit) {
			return result, nil
		}
		return result, err
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	if errors.Is(err, errSkipCommit) {
		return result, nil
	}

	return result, err
}

// conn returns the pool for reads outside a transaction.
func (s *CompetitionService) conn() bun.IDB {
	if s.db == nil {
		return nil
	}
	return s.db
}
