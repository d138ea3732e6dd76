package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/askhatb/go-fire-alerts/internal/api"
	"github.com/askhatb/go-fire-alerts/internal/config"
	"github.com/askhatb/go-fire-alerts/internal/geocode"
	"github.com/askhatb/go-fire-alerts/internal/ingestion"
	"github.com/askhatb/go-fire-alerts/internal/logging"
	"github.com/askhatb/go-fire-alerts/internal/metrics"
	"github.com/askhatb/go-fire-alerts/internal/notify"
	"github.com/askhatb/go-fire-alerts/internal/reconcile"
	"github.com/askhatb/go-fire-alerts/internal/repository"
	"github.com/askhatb/go-fire-alerts/internal/scheduler"
	"github.com/askhatb/go-fire-alerts/internal/sms"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	clock := clockwork.NewRealClock()

	// Ingest -> reconcile pipeline
	feed := ingestion.NewFirmsClient(cfg.Firms.BaseURL, cfg.Firms.APIKey, cfg.Firms.Sensor, cfg.Firms.Country, cfg.Firms.Days, clock)
	geocoder := geocode.NewNominatimClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout, logger)
	ingestor := ingestion.NewIngestor(feed, geocoder, db, clock, m)
	reconciler := reconcile.NewReconciler(db, m)
	orch := scheduler.NewOrchestrator(ingestor, reconciler, cfg.Pipeline.Interval, clock, m)

	// Proximity notifier
	sender := sms.NewTwilioClient(cfg.Twilio.BaseURL, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.Twilio.Timeout, logger)
	notifier := notify.NewNotifier(db, db, db, db, db, sender, clock, m, cfg.Notify)
	notifier.StartWorkers(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		orch.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		notifier.Run(ctx)
	}()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(5, 5)) // 5 req/s global limit

	handler := api.NewHandler(db, db)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	wg.Wait()
	notifier.StopWorkers()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
