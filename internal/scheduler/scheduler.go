package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/askhatb/go-fire-alerts/internal/ingestion"
	"github.com/askhatb/go-fire-alerts/internal/metrics"
	"github.com/askhatb/go-fire-alerts/internal/reconcile"
)

// Loop runs task immediately and then once per interval until ctx is
// cancelled. A task error is logged and counted, never fatal: the next
// cycle runs after the same fixed delay. Cancellation is honored before
// each cycle and during the inter-cycle sleep.
func Loop(ctx context.Context, name string, interval time.Duration, clock clockwork.Clock, m *metrics.Metrics, task func(context.Context) error) {
	slog.Info("starting loop", "loop", name, "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("loop shutting down", "loop", name)
			return
		default:
		}

		if err := task(ctx); err != nil {
			slog.Error("cycle failed", "loop", name, "error", err)
			m.LoopErrors.WithLabelValues(name).Inc()
		}

		select {
		case <-ctx.Done():
			slog.Info("loop shutting down", "loop", name)
			return
		case <-clock.After(interval):
		}
	}
}

// Orchestrator supervises the ingest-then-reconcile pipeline on a fixed
// cadence. It has two states: running (loop) and stopped (ctx cancelled);
// no processing error moves it out of running.
type Orchestrator struct {
	ingestor   *ingestion.Ingestor
	reconciler *reconcile.Reconciler
	interval   time.Duration
	clock      clockwork.Clock
	metrics    *metrics.Metrics
}

func NewOrchestrator(ingestor *ingestion.Ingestor, reconciler *reconcile.Reconciler, interval time.Duration, clock clockwork.Clock, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		ingestor:   ingestor,
		reconciler: reconciler,
		interval:   interval,
		clock:      clock,
		metrics:    m,
	}
}

// Run blocks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	Loop(ctx, "pipeline", o.interval, o.clock, o.metrics, o.Cycle)
}

// Cycle executes one ingest+reconcile pass. Exported so the one-shot
// binary can drive a single cycle without the loop.
func (o *Orchestrator) Cycle(ctx context.Context) error {
	if err := o.ingestor.Ingest(ctx); err != nil {
		return err
	}
	return o.reconciler.Reconcile(ctx)
}
