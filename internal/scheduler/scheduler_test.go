package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/askhatb/go-fire-alerts/internal/geocode"
	"github.com/askhatb/go-fire-alerts/internal/ingestion"
	"github.com/askhatb/go-fire-alerts/internal/metrics"
	"github.com/askhatb/go-fire-alerts/internal/reconcile"
	"github.com/askhatb/go-fire-alerts/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingTask struct {
	mu   sync.Mutex
	runs int
	errs []error
}

func (c *countingTask) run(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	if c.runs <= len(c.errs) {
		return c.errs[c.runs-1]
	}
	return nil
}

func (c *countingTask) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func TestLoop_ContinuesAfterTaskError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := metrics.NewWith(prometheus.NewRegistry())
	task := &countingTask{errs: []error{errors.New("feed unavailable")}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Loop(ctx, "test", time.Minute, clock, m, task.run)
		close(done)
	}()

	// First cycle fails, then the loop parks on the timer.
	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	// Second cycle succeeds and the loop parks again.
	clock.BlockUntil(1)
	cancel()
	<-done

	if got := task.count(); got != 2 {
		t.Errorf("expected 2 cycles, got %d", got)
	}
	if got := testutil.ToFloat64(m.LoopErrors.WithLabelValues("test")); got != 1 {
		t.Errorf("expected 1 loop error counted, got %v", got)
	}
}

func TestLoop_RunsImmediatelyThenStopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := metrics.NewWith(prometheus.NewRegistry())
	task := &countingTask{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Loop(ctx, "test", time.Hour, clock, m, task.run)
		close(done)
	}()

	clock.BlockUntil(1)
	cancel()
	<-done

	if got := task.count(); got != 1 {
		t.Errorf("expected exactly 1 immediate cycle, got %d", got)
	}
}

func TestLoop_CancelledContextRunsNothing(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := metrics.NewWith(prometheus.NewRegistry())
	task := &countingTask{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	Loop(ctx, "test", time.Minute, clock, m, task.run)

	if got := task.count(); got != 0 {
		t.Errorf("expected no cycles for cancelled context, got %d", got)
	}
}

type fixedFeed struct {
	detections []ingestion.Detection
	err        error
}

func (f *fixedFeed) Fetch(ctx context.Context) ([]ingestion.Detection, error) {
	return f.detections, f.err
}

type noopGeocoder struct{}

func (noopGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	return "", nil
}

var _ geocode.Geocoder = noopGeocoder{}

func newTestOrchestrator(t *testing.T, feed ingestion.Feed) (*Orchestrator, *repository.SQLiteDB) {
	t.Helper()
	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))
	m := metrics.NewWith(prometheus.NewRegistry())
	ing := ingestion.NewIngestor(feed, noopGeocoder{}, db, clock, m)
	rec := reconcile.NewReconciler(db, m)
	return NewOrchestrator(ing, rec, 5*time.Minute, clock, m), db
}

func TestOrchestrator_CycleIngestsAndReconciles(t *testing.T) {
	timeFire := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	feed := &fixedFeed{detections: []ingestion.Detection{
		{Latitude: 43.2220, Longitude: 76.8512, Daynight: "D", TimeFire: timeFire},
	}}
	orch, db := newTestOrchestrator(t, feed)

	if err := orch.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle failed: %v", err)
	}

	fires, err := db.ListFires(context.Background(), repository.FireFilter{})
	if err != nil {
		t.Fatalf("ListFires failed: %v", err)
	}
	if len(fires) != 1 {
		t.Errorf("expected 1 fire after cycle, got %d", len(fires))
	}
}

func TestOrchestrator_CycleReturnsIngestError(t *testing.T) {
	feed := &fixedFeed{err: errors.New("connection refused")}
	orch, _ := newTestOrchestrator(t, feed)

	if err := orch.Cycle(context.Background()); err == nil {
		t.Error("expected error when ingestion fails")
	}
}
