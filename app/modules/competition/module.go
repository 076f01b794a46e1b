package competition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	competitionevents "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/events"
	competitionhttp "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/http"
	competitionnotify "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/notify"
	competitionqueue "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/queue"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	competitionrouter "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/router"
	"github.com/Black-And-White-Club/stride-league/config"
	"github.com/Black-And-White-Club/stride-league/internal/eventbus"
	"github.com/Black-And-White-Club/stride-league/internal/observability"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// Module represents the competition module.
type Module struct {
	CompetitionService competitionservice.Service
	CompetitionRouter  *competitionrouter.CompetitionRouter
	Queue              *competitionqueue.Service
	config             *config.Config
	logger             *slog.Logger
	cancelFunc         context.CancelFunc
}

// NewCompetitionModule wires the competition service to storage, the event
// bus, the job queue and the HTTP router.
func NewCompetitionModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	repo competitiondb.Repository,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger.With(attr.String("module", "competition"))
	metrics := obs.Metrics
	tracer := obs.Tracer

	logger.InfoContext(ctx, "Initializing competition module")

	notifier := competitionnotify.NewClient(ctx, cfg.Notifications, logger)

	queue, err := competitionqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, metrics, notifier, cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to create competition queue: %w", err)
	}

	feed := competitionevents.NewFeedPublisher(eventBus)
	service := competitionservice.NewCompetitionService(repo, queue, feed, logger, metrics, tracer, db)
	queue.AttachCompetitionService(service)

	competitionRouter := competitionrouter.NewCompetitionRouter(logger, router, eventBus, eventBus, tracer, obs.Registry)
	if err := competitionRouter.Configure(ctx, service, metrics); err != nil {
		return nil, fmt.Errorf("failed to configure competition router: %w", err)
	}

	if httpRouter != nil {
		verifier := competitionhttp.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)
		limiter := competitionhttp.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
		competitionhttp.NewHandlers(service, logger).Mount(httpRouter, verifier, verifier, limiter, cfg.HTTP.AllowedOrigins)
	}

	return &Module{
		CompetitionService: service,
		CompetitionRouter:  competitionRouter,
		Queue:              queue,
		config:             cfg,
		logger:             logger,
	}, nil
}

// Run starts the job queue and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting competition module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.Queue.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start competition queue", attr.Error(err))
		return
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Competition module goroutine stopped")
}

// Close stops the queue and the event router.
func (m *Module) Close() error {
	m.logger.Info("Stopping competition module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if err := m.Queue.Stop(stopCtx); err != nil {
		errs = append(errs, fmt.Errorf("error stopping queue: %w", err))
	}
	if err := m.CompetitionRouter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error stopping router: %w", err))
	}

	m.logger.Info("Competition module stopped")
	return errors.Join(errs...)
}
