package repository

import (
	"context"
	"time"

	"github.com/askhatb/go-fire-alerts/internal/models"
)

type FireFilter struct {
	Limit int
	Since *time.Time // time_fire >= Since
}

// FireRepository is the capability interface over the fire-record store.
// Records are created by ingestion, deleted only by reconciliation, and
// never mutated in place.
type FireRepository interface {
	Add(ctx context.Context, f *models.Fire) error
	GetByID(ctx context.Context, id string) (*models.Fire, error)
	// ExistsAt reports whether a record already holds the dedup triple.
	ExistsAt(ctx context.Context, latitude, longitude float64, timeFire time.Time) (bool, error)
	// ListIngestedSince returns fires with request_time >= cutoff (inclusive).
	ListIngestedSince(ctx context.Context, cutoff time.Time) ([]models.Fire, error)
	ListFires(ctx context.Context, opts FireFilter) ([]models.Fire, error)
	// DuplicateGroups returns the ids of every dedup group with more than
	// one member, each group ordered by (request_time, id) ascending.
	DuplicateGroups(ctx context.Context) ([][]string, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type CrowdReportRepository interface {
	AddReport(ctx context.Context, r *models.CrowdReport) error
	// ListReportedSince returns reports with time_fire >= cutoff (inclusive).
	ListReportedSince(ctx context.Context, cutoff time.Time) ([]models.CrowdReport, error)
	ListReports(ctx context.Context, limit int) ([]models.CrowdReport, error)
}

// LocationRepository reads user positions maintained by the mobile-facing
// API. This service only ever writes through Upsert in tests and tooling.
type LocationRepository interface {
	UpsertLocation(ctx context.Context, l *models.UserLocation) error
	// ListActiveSince returns locations with last_updated >= cutoff (inclusive).
	ListActiveSince(ctx context.Context, cutoff time.Time) ([]models.UserLocation, error)
}

type UserRepository interface {
	AddUser(ctx context.Context, u *models.User) error
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// NotificationLogRepository is the idempotency ledger for sends.
type NotificationLogRepository interface {
	AddLog(ctx context.Context, l *models.NotificationLog) error
	LogExists(ctx context.Context, userID, eventID string, eventType models.EventType) (bool, error)
}
