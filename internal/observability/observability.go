// Package observability builds the logger, tracer and metrics shared by the process.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	competitionmetrics "github.com/Black-And-White-Club/stride-league/internal/observability/metrics/competition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects log level, environment and metrics listener.
type Config struct {
	ServiceName    string
	Environment    string
	LogLevel       string
	MetricsAddress string
	MetricsPrefix  string
}

// Observability bundles the process-wide telemetry handles.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  competitionmetrics.CompetitionMetrics
	Registry *prometheus.Registry

	metricsServer *http.Server
}

// Init builds the JSON logger, the otel tracer and a fresh Prometheus registry.
func Init(cfg Config) *Observability {
	logger := NewLogger(cfg.LogLevel, cfg.Environment).With(
		slog.String("service", cfg.ServiceName),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prefix := cfg.MetricsPrefix
	if prefix == "" {
		prefix = "stride"
	}

	return &Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(cfg.ServiceName),
		Metrics:  competitionmetrics.NewCompetitionMetrics(reg, prefix),
		Registry: reg,
	}
}

// NewNoop returns handles that discard everything, for tests and tools.
func NewNoop() *Observability {
	return &Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:   noop.NewTracerProvider().Tracer("noop"),
		Metrics:  competitionmetrics.NoOpMetrics{},
		Registry: prometheus.NewRegistry(),
	}
}

// NewLogger returns a JSON slog logger at the given level.
func NewLogger(level, environment string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if environment == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StartMetricsServer serves /metrics on addr until ctx is done. An empty addr disables it.
func (o *Observability) StartMetricsServer(ctx context.Context, addr string) {
	if addr == "" {
		o.Logger.InfoContext(ctx, "Metrics address not configured, metrics server disabled")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{Registry: o.Registry}))
	o.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		o.Logger.InfoContext(ctx, "Starting metrics server", slog.String("address", addr))
		if err := o.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.Logger.ErrorContext(ctx, "Metrics server stopped", slog.String("error", err.Error()))
		}
	}()
}

// Shutdown stops the metrics server if it was started.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.metricsServer == nil {
		return nil
	}
	if err := o.metricsServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down metrics server: %w", err)
	}
	return nil
}
