// Package competitionmetrics defines the Prometheus metrics recorded by the competition module.
package competitionmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CompetitionMetrics is the metrics surface used by the service, handlers and queue.
type CompetitionMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, scope string)
	RecordOperationSuccess(ctx context.Context, operation, scope string)
	RecordOperationFailure(ctx context.Context, operation, scope string)
	RecordOperationDuration(ctx context.Context, operation, scope string, duration time.Duration)

	// RecordSettlement counts settle outcomes ("processed", "not_completed", ...).
	RecordSettlement(ctx context.Context, outcome string)
	RecordPayoutsCreated(ctx context.Context, count int, totalCents int64)
	RecordWinnersRecorded(ctx context.Context, count int)
	RecordScoreLock(ctx context.Context, outcome string)
	RecordNotificationFailure(ctx context.Context, kind string)
	SetStuckPools(ctx context.Context, count int)
}

type prometheusMetrics struct {
	operationAttempts    *prometheus.CounterVec
	operationSuccesses   *prometheus.CounterVec
	operationFailures    *prometheus.CounterVec
	operationDuration    *prometheus.HistogramVec
	settlements          *prometheus.CounterVec
	payoutsCreated       prometheus.Counter
	payoutCents          prometheus.Counter
	winnersRecorded      prometheus.Counter
	scoreLocks           *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	stuckPools           prometheus.Gauge
}

// NewCompetitionMetrics registers the competition collectors on reg.
func NewCompetitionMetrics(reg prometheus.Registerer, prefix string) CompetitionMetrics {
	m := &prometheusMetrics{
		operationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "operation_attempts_total",
			Help:      "Number of competition operations attempted.",
		}, []string{"operation", "scope"}),
		operationSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "operation_success_total",
			Help:      "Number of competition operations that succeeded.",
		}, []string{"operation", "scope"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "operation_failures_total",
			Help:      "Number of competition operations that failed.",
		}, []string{"operation", "scope"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "operation_duration_seconds",
			Help:      "Duration of competition operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "scope"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "settlements_total",
			Help:      "Settlement invocations by outcome.",
		}, []string{"outcome"}),
		payoutsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "payouts_created_total",
			Help:      "Prize payout rows created.",
		}),
		payoutCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "payout_cents_total",
			Help:      "Sum of created payout amounts in cents.",
		}),
		winnersRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "winners_recorded_total",
			Help:      "Winner feed records inserted.",
		}),
		scoreLocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "score_locks_total",
			Help:      "Score lock requests by outcome.",
		}, []string{"outcome"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "notification_failures_total",
			Help:      "Push notification dispatch failures.",
		}, []string{"kind"}),
		stuckPools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prefix,
			Subsystem: "competition",
			Name:      "stuck_prize_pools",
			Help:      "Prize pools observed in distributing past the audit threshold.",
		}),
	}

	reg.MustRegister(
		m.operationAttempts,
		m.operationSuccesses,
		m.operationFailures,
		m.operationDuration,
		m.settlements,
		m.payoutsCreated,
		m.payoutCents,
		m.winnersRecorded,
		m.scoreLocks,
		m.notificationFailures,
		m.stuckPools,
	)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, scope string) {
	m.operationAttempts.WithLabelValues(operation, scope).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, scope string) {
	m.operationSuccesses.WithLabelValues(operation, scope).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, scope string) {
	m.operationFailures.WithLabelValues(operation, scope).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, scope string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation, scope).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordSettlement(_ context.Context, outcome string) {
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *prometheusMetrics) RecordPayoutsCreated(_ context.Context, count int, totalCents int64) {
	m.payoutsCreated.Add(float64(count))
	m.payoutCents.Add(float64(totalCents))
}

func (m *prometheusMetrics) RecordWinnersRecorded(_ context.Context, count int) {
	m.winnersRecorded.Add(float64(count))
}

func (m *prometheusMetrics) RecordScoreLock(_ context.Context, outcome string) {
	m.scoreLocks.WithLabelValues(outcome).Inc()
}

func (m *prometheusMetrics) RecordNotificationFailure(_ context.Context, kind string) {
	m.notificationFailures.WithLabelValues(kind).Inc()
}

func (m *prometheusMetrics) SetStuckPools(_ context.Context, count int) {
	m.stuckPools.Set(float64(count))
}

// NoOpMetrics discards every measurement.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOpMetrics) RecordSettlement(context.Context, string)                               {}
func (NoOpMetrics) RecordPayoutsCreated(context.Context, int, int64)                       {}
func (NoOpMetrics) RecordWinnersRecorded(context.Context, int)                             {}
func (NoOpMetrics) RecordScoreLock(context.Context, string)                                {}
func (NoOpMetrics) RecordNotificationFailure(context.Context, string)                      {}
func (NoOpMetrics) SetStuckPools(context.Context, int)                                     {}

var (
	_ CompetitionMetrics = (*prometheusMetrics)(nil)
	_ CompetitionMetrics = NoOpMetrics{}
)
