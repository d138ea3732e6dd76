package main

import (
	"context"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/askhatb/go-fire-alerts/internal/config"
	"github.com/askhatb/go-fire-alerts/internal/geocode"
	"github.com/askhatb/go-fire-alerts/internal/ingestion"
	"github.com/askhatb/go-fire-alerts/internal/logging"
	"github.com/askhatb/go-fire-alerts/internal/metrics"
	"github.com/askhatb/go-fire-alerts/internal/reconcile"
	"github.com/askhatb/go-fire-alerts/internal/repository"
)

// Runs a single ingest + reconcile cycle and exits. Useful for cron-style
// operation and for priming a fresh database.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	m := metrics.New()
	clock := clockwork.NewRealClock()

	feed := ingestion.NewFirmsClient(cfg.Firms.BaseURL, cfg.Firms.APIKey, cfg.Firms.Sensor, cfg.Firms.Country, cfg.Firms.Days, clock)
	geocoder := geocode.NewNominatimClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout, logger)
	ingestor := ingestion.NewIngestor(feed, geocoder, db, clock, m)
	reconciler := reconcile.NewReconciler(db, m)

	if err := ingestor.Ingest(ctx); err != nil {
		logging.Fatalf("ingest failed: %v", err)
	}
	if err := reconciler.Reconcile(ctx); err != nil {
		logging.Fatalf("reconcile failed: %v", err)
	}

	slog.Info("ingest cycle complete")
}
