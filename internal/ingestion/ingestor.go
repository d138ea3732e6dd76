package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/askhatb/go-fire-alerts/internal/geocode"
	"github.com/askhatb/go-fire-alerts/internal/metrics"
	"github.com/askhatb/go-fire-alerts/internal/models"
	"github.com/askhatb/go-fire-alerts/internal/repository"
)

// Ingestor turns feed detections into stored fire records. Insert-time
// dedup is an existence check on (latitude, longitude, time_fire); races
// that slip past it are cleaned up by the reconciler.
type Ingestor struct {
	feed     Feed
	geocoder geocode.Geocoder
	fires    repository.FireRepository
	clock    clockwork.Clock
	metrics  *metrics.Metrics
}

func NewIngestor(feed Feed, geocoder geocode.Geocoder, fires repository.FireRepository, clock clockwork.Clock, m *metrics.Metrics) *Ingestor {
	return &Ingestor{
		feed:     feed,
		geocoder: geocoder,
		fires:    fires,
		clock:    clock,
		metrics:  m,
	}
}

// Ingest runs one feed cycle. A fetch or parse failure aborts the cycle;
// geocode and store failures are isolated per row.
func (i *Ingestor) Ingest(ctx context.Context) error {
	detections, err := i.feed.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("feed fetch failed: %w", err)
	}

	var added, skipped int
	for _, d := range detections {
		address, err := i.geocoder.ReverseGeocode(ctx, d.Latitude, d.Longitude)
		if err != nil {
			// A record without an address is still worth storing.
			slog.Warn("reverse geocode failed", "lat", d.Latitude, "lon", d.Longitude, "error", err)
			i.metrics.GeocodeFailures.Inc()
			address = ""
		}

		exists, err := i.fires.ExistsAt(ctx, d.Latitude, d.Longitude, d.TimeFire)
		if err != nil {
			slog.Error("error checking fire existence", "lat", d.Latitude, "lon", d.Longitude, "error", err)
			continue
		}
		if exists {
			slog.Debug("fire already exists", "lat", d.Latitude, "lon", d.Longitude, "time_fire", d.TimeFire)
			i.metrics.FiresSkipped.Inc()
			skipped++
			continue
		}

		fire := &models.Fire{
			ID:          uuid.NewString(),
			Latitude:    d.Latitude,
			Longitude:   d.Longitude,
			Daynight:    d.Daynight,
			Address:     address,
			TimeFire:    d.TimeFire,
			RequestTime: i.clock.Now().UTC(),
		}
		if err := i.fires.Add(ctx, fire); err != nil {
			// Skipped rows are re-supplied by the next feed fetch.
			slog.Error("error adding fire", "lat", d.Latitude, "lon", d.Longitude, "error", err)
			continue
		}
		i.metrics.FiresIngested.Inc()
		added++
		slog.Info("added fire", "id", fire.ID, "lat", fire.Latitude, "lon", fire.Longitude, "time_fire", fire.TimeFire)
	}

	slog.Debug("ingest cycle complete", "rows", len(detections), "added", added, "skipped", skipped)
	return nil
}
