package models

import "time"

// EventType tags which store a notification's event came from.
type EventType string

const (
	EventTypeFire  EventType = "FireData"
	EventTypeCrowd EventType = "CrowdSourcingData"
)

// NotificationLog is the idempotency record for sends: at most one entry
// may exist per (UserID, EventID, EventType) under sequential operation.
// Written only after a successful gateway response, never updated.
type NotificationLog struct {
	ID        string
	UserID    string
	EventID   string
	EventType EventType
	Message   string
	SentAt    time.Time
	Success   bool
}
