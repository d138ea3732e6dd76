package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askhatb/go-fire-alerts/internal/models"
	"github.com/askhatb/go-fire-alerts/internal/repository"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *repository.SQLiteDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r := gin.New()
	NewHandler(db, db).RegisterRoutes(r)
	return r, db
}

func TestGetFires(t *testing.T) {
	r, db := setupTestRouter(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	db.Add(ctx, &models.Fire{
		ID: "fire1", Latitude: 43.2220, Longitude: 76.8512,
		Daynight: "D", Address: "Almaty", TimeFire: now.Add(-time.Hour), RequestTime: now,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/fires", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected geo+json content type, got %q", ct)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %q", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	f := fc.Features[0]
	if f.Geometry.Coordinates[0] != 76.8512 || f.Geometry.Coordinates[1] != 43.2220 {
		t.Errorf("expected [lon, lat] order, got %v", f.Geometry.Coordinates)
	}
	if f.Properties["address"] != "Almaty" {
		t.Errorf("expected address property, got %v", f.Properties["address"])
	}
}

func TestGetFires_SinceFilter(t *testing.T) {
	r, db := setupTestRouter(t)
	ctx := context.Background()

	cutoff := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	db.Add(ctx, &models.Fire{ID: "old", Latitude: 1, Longitude: 1, TimeFire: cutoff.Add(-time.Hour), RequestTime: cutoff.Add(-time.Hour)})
	db.Add(ctx, &models.Fire{ID: "new", Latitude: 2, Longitude: 2, TimeFire: cutoff.Add(time.Hour), RequestTime: cutoff.Add(time.Hour)})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/fires?since=2026-08-20", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature after since filter, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["id"] != "new" {
		t.Errorf("expected only the recent fire, got %v", fc.Features[0].Properties["id"])
	}
}

func TestGetFires_LimitCapped(t *testing.T) {
	r, db := setupTestRouter(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		db.Add(ctx, &models.Fire{
			ID: string(rune('a' + i)), Latitude: float64(i), Longitude: float64(i),
			TimeFire: now, RequestTime: now.Add(time.Duration(i) * time.Second),
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/fires?limit=2", nil)
	r.ServeHTTP(w, req)

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("expected limit 2 applied, got %d features", len(fc.Features))
	}
}

func TestGetReports(t *testing.T) {
	r, db := setupTestRouter(t)
	ctx := context.Background()

	db.AddReport(ctx, &models.CrowdReport{
		ID: "r1", UserID: "u1", Latitude: 43.0, Longitude: 76.0,
		TimeFire: time.Now().UTC(), Definition: "smoke near the road",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["definition"] != "smoke near the road" {
		t.Errorf("expected report definition, got %v", fc.Features[0].Properties["definition"])
	}
}

func TestHealth(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
