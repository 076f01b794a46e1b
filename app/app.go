// Package app builds the process: storage, event bus, observability and modules.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/stride-league/app/modules/competition"
	"github.com/Black-And-White-Club/stride-league/config"
	"github.com/Black-And-White-Club/stride-league/db/bundb"
	"github.com/Black-And-White-Club/stride-league/internal/eventbus"
	"github.com/Black-And-White-Club/stride-league/internal/observability"
	"github.com/Black-And-White-Club/stride-league/internal/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const appName = "stride-league"

// App holds the process-wide dependencies and modules.
type App struct {
	Config            *config.Config
	Observability     *observability.Observability
	DB                *bundb.DBService
	EventBus          eventbus.EventBus
	Router            *message.Router
	HTTPServer        *http.Server
	CompetitionModule *competition.Module

	wg sync.WaitGroup
}

// Initialize connects infrastructure and builds the modules.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, obs *observability.Observability) error {
	app.Config = cfg
	app.Observability = obs
	logger := obs.Logger

	db, err := bundb.NewBunDBService(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database service: %w", err)
	}
	app.DB = db

	eventBus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger, appName)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = eventBus

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create Watermill router: %w", err)
	}
	app.Router = router

	httpRouter := chi.NewRouter()
	httpRouter.Use(middleware.RealIP)
	httpRouter.Use(middleware.Recoverer)
	httpRouter.Get("/healthz", app.healthz)

	module, err := competition.NewCompetitionModule(ctx, cfg, obs, db.GetDB(), db.CompetitionDB, eventBus, router, httpRouter)
	if err != nil {
		return fmt.Errorf("failed to initialize competition module: %w", err)
	}
	app.CompetitionModule = module

	app.HTTPServer = &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.InfoContext(ctx, "Application initialized")
	return nil
}

// Run starts every component and blocks until ctx is cancelled or the
// event router stops.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	app.Observability.StartMetricsServer(ctx, app.Config.Observability.MetricsAddress)

	app.wg.Add(1)
	go app.CompetitionModule.Run(ctx, &app.wg)

	go func() {
		logger.InfoContext(ctx, "Starting HTTP server", attr.String("address", app.HTTPServer.Addr))
		if err := app.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "HTTP server stopped", attr.Error(err))
		}
	}()

	if err := app.Router.Run(ctx); err != nil {
		return fmt.Errorf("watermill router stopped: %w", err)
	}
	return nil
}

// Close shuts components down in reverse start order.
func (app *App) Close() error {
	logger := app.Observability.Logger
	logger.Info("Shutting down application")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if app.HTTPServer != nil {
		if err := app.HTTPServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if app.CompetitionModule != nil {
		if err := app.CompetitionModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("competition module: %w", err))
		}
	}
	app.wg.Wait()

	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if err := app.Observability.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	logger.Info("Application shut down")
	return errors.Join(errs...)
}

func (app *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.CompetitionModule.Queue.HealthCheck(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
