package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/askhatb/go-fire-alerts/internal/config"
	"github.com/askhatb/go-fire-alerts/internal/geo"
	"github.com/askhatb/go-fire-alerts/internal/metrics"
	"github.com/askhatb/go-fire-alerts/internal/models"
	"github.com/askhatb/go-fire-alerts/internal/repository"
	"github.com/askhatb/go-fire-alerts/internal/scheduler"
	"github.com/askhatb/go-fire-alerts/internal/sms"
	"github.com/askhatb/go-fire-alerts/internal/worker"
)

// Notifier matches fresh events against active user locations and sends
// at most one SMS per (user, event) pair, tracked in the notification log.
// Delivery is at-least-once: the log entry is written only after the
// gateway accepts the message.
type Notifier struct {
	fires     repository.FireRepository
	reports   repository.CrowdReportRepository
	locations repository.LocationRepository
	users     repository.UserRepository
	log       repository.NotificationLogRepository
	sender    sms.Sender
	clock     clockwork.Clock
	metrics   *metrics.Metrics
	cfg       config.NotifyConfig

	pool *worker.Pool[delivery]
}

type delivery struct {
	user models.User
	ev   fireEvent
}

func NewNotifier(
	fires repository.FireRepository,
	reports repository.CrowdReportRepository,
	locations repository.LocationRepository,
	users repository.UserRepository,
	log repository.NotificationLogRepository,
	sender sms.Sender,
	clock clockwork.Clock,
	m *metrics.Metrics,
	cfg config.NotifyConfig,
) *Notifier {
	return &Notifier{
		fires:     fires,
		reports:   reports,
		locations: locations,
		users:     users,
		log:       log,
		sender:    sender,
		clock:     clock,
		metrics:   m,
		cfg:       cfg,
	}
}

// StartWorkers brings up the delivery pool. Sends for distinct
// (user, event) pairs are independent, so they dispatch in parallel.
func (n *Notifier) StartWorkers(ctx context.Context) {
	n.pool = worker.NewPool(n.cfg.WorkerCount, n.cfg.WorkerBuffer, n.deliver)
	n.pool.Start(ctx)
}

// StopWorkers drains queued deliveries and waits for the pool to exit.
func (n *Notifier) StopWorkers() {
	n.pool.Stop()
}

// Run blocks, executing ProcessPending on the configured interval until
// ctx is cancelled. StartWorkers must have been called.
func (n *Notifier) Run(ctx context.Context) {
	scheduler.Loop(ctx, "notifier", n.cfg.Interval, n.clock, n.metrics, n.ProcessPending)
}

// ProcessPending runs one notification cycle over events newer than the
// event window. A failure listing either event source aborts the cycle;
// failures per event or per recipient are isolated and logged.
func (n *Notifier) ProcessPending(ctx context.Context) error {
	cutoff := n.clock.Now().UTC().Add(-n.cfg.EventWindow)

	fires, err := n.fires.ListIngestedSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("error listing new fires: %w", err)
	}
	for i := range fires {
		if err := n.dispatch(ctx, fireEventFromFire(&fires[i])); err != nil {
			slog.Error("error dispatching fire event", "event", fires[i].ID, "error", err)
		}
	}

	reports, err := n.reports.ListReportedSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("error listing new crowd reports: %w", err)
	}
	for i := range reports {
		if err := n.dispatch(ctx, fireEventFromReport(&reports[i])); err != nil {
			slog.Error("error dispatching crowd event", "event", reports[i].ID, "error", err)
		}
	}

	return nil
}

// dispatch finds the event's recipients and queues one delivery each.
func (n *Notifier) dispatch(ctx context.Context, ev fireEvent) error {
	locCutoff := n.clock.Now().UTC().Add(-n.cfg.LocationWindow)
	locations, err := n.locations.ListActiveSince(ctx, locCutoff)
	if err != nil {
		return fmt.Errorf("error listing active locations: %w", err)
	}

	var nearbyIDs []string
	for _, l := range locations {
		distance := geo.HaversineKm(ev.Latitude, ev.Longitude, l.Latitude, l.Longitude)
		if distance <= n.cfg.RadiusKm {
			nearbyIDs = append(nearbyIDs, l.UserID)
		}
	}
	if len(nearbyIDs) == 0 {
		return nil
	}

	users, err := n.users.GetUsersByIDs(ctx, nearbyIDs)
	if err != nil {
		return fmt.Errorf("error resolving nearby users: %w", err)
	}

	for _, u := range users {
		// Reporters are not notified about their own sighting.
		if ev.Type == models.EventTypeCrowd && u.ID == ev.ReporterID {
			continue
		}
		n.pool.Submit(delivery{user: u, ev: ev})
	}

	return nil
}

// deliver is the pool processor: idempotency check, send, then log. A
// failed send writes no log entry, leaving the pair eligible for retry.
func (n *Notifier) deliver(ctx context.Context, d delivery) error {
	sent, err := n.log.LogExists(ctx, d.user.ID, d.ev.ID, d.ev.Type)
	if err != nil {
		slog.Error("error checking notification log", "user", d.user.ID, "event", d.ev.ID, "error", err)
		return err
	}
	if sent {
		return nil
	}

	message := renderMessage(d.ev)
	if err := n.sender.Send(ctx, d.user.PhoneNumber, message); err != nil {
		slog.Error("error sending notification", "user", d.user.ID, "event", d.ev.ID, "error", err)
		n.metrics.NotificationFailures.Inc()
		return err
	}

	entry := &models.NotificationLog{
		ID:        uuid.NewString(),
		UserID:    d.user.ID,
		EventID:   d.ev.ID,
		EventType: d.ev.Type,
		Message:   message,
		SentAt:    n.clock.Now().UTC(),
		Success:   true,
	}
	if err := n.log.AddLog(ctx, entry); err != nil {
		// The SMS went out; a lost log entry means one possible repeat
		// next cycle, which at-least-once delivery already allows.
		slog.Error("error writing notification log", "user", d.user.ID, "event", d.ev.ID, "error", err)
		return err
	}

	n.metrics.NotificationsSent.WithLabelValues(string(d.ev.Type)).Inc()
	slog.Info("notification sent", "user", d.user.ID, "event", d.ev.ID, "type", d.ev.Type)
	return nil
}
