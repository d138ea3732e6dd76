package models

import "time"

type User struct {
	ID          string
	Name        string
	PhoneNumber string // E.164, may arrive without the leading +
}

// UserLocation is a user's most recent known position. Only the latest row
// per user is meaningful; staleness is judged against LastUpdated.
type UserLocation struct {
	ID          string
	UserID      string
	Latitude    float64
	Longitude   float64
	LastUpdated time.Time
}
