package competitionintegrationtests

import (
	"context"
	"log"
	"sync"
	"testing"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	competitionevents "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/events"
	competitiondb "github.com/Black-And-White-Club/stride-league/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-league/integration_tests/testutils"
	competitionmetrics "github.com/Black-And-White-Club/stride-league/internal/observability/metrics/competition"
)

var (
	testEnv     *testutils.TestEnvironment
	testEnvOnce sync.Once
	testEnvErr  error
)

// GetTestEnv starts the shared containers on first use.
func GetTestEnv(t *testing.T) *testutils.TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testEnvOnce.Do(func() {
		log.Println("Initializing competition test environment...")
		testEnv, testEnvErr = testutils.NewTestEnvironment(t)
	})
	if testEnvErr != nil {
		t.Fatalf("Competition test environment initialization failed: %v", testEnvErr)
	}
	return testEnv
}

// recordingDispatcher captures notifications instead of enqueuing them.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []competitionservice.Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n competitionservice.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

func (d *recordingDispatcher) byType(kind string) []competitionservice.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []competitionservice.Notification
	for _, n := range d.sent {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type TestDeps struct {
	Ctx        context.Context
	Env        *testutils.TestEnvironment
	DB         *bun.DB
	Repo       competitiondb.Repository
	Service    *competitionservice.CompetitionService
	Dispatcher *recordingDispatcher
	Data       *testutils.TestDataGenerator
}

func SetupTestCompetitionService(t *testing.T) TestDeps {
	t.Helper()
	env := GetTestEnv(t)
	env.Reset(t)

	repo := competitiondb.NewRepository()
	dispatcher := &recordingDispatcher{}
	svc := competitionservice.NewCompetitionService(
		repo,
		dispatcher,
		competitionevents.NewFeedPublisher(env.EventBus),
		env.Logger,
		&competitionmetrics.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		env.DB,
	)

	return TestDeps{
		Ctx:        env.Ctx,
		Env:        env,
		DB:         env.DB,
		Repo:       repo,
		Service:    svc,
		Dispatcher: dispatcher,
		Data:       testutils.NewTestDataGenerator(42),
	}
}
