package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/askhatb/go-fire-alerts/internal/metrics"
	"github.com/askhatb/go-fire-alerts/internal/repository"
)

// Reconciler sweeps the fire store for records sharing a dedup triple and
// deletes all but one per group. It corrects duplicates that slip past the
// ingestor's existence check under concurrent writers. Crowd reports are
// never reconciled; they have a single writer.
type Reconciler struct {
	fires   repository.FireRepository
	metrics *metrics.Metrics
}

func NewReconciler(fires repository.FireRepository, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		fires:   fires,
		metrics: m,
	}
}

// Reconcile deletes every duplicate group's non-survivors. The survivor is
// the group's earliest-ingested record (ties broken by lowest id), as
// ordered by the repository, and keeps its original identity so existing
// notification-log entries stay valid.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	groups, err := r.fires.DuplicateGroups(ctx)
	if err != nil {
		return fmt.Errorf("error finding duplicate groups: %w", err)
	}

	for _, ids := range groups {
		duplicates := ids[1:]
		deleted, err := r.fires.DeleteByIDs(ctx, duplicates)
		if err != nil {
			slog.Error("error deleting duplicates", "survivor", ids[0], "error", err)
			continue
		}
		r.metrics.DuplicatesPurged.Add(float64(deleted))
		slog.Info("removed duplicate fires", "survivor", ids[0], "deleted", deleted)
	}

	return nil
}
