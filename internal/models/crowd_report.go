package models

import "time"

// CrowdReport is a user-submitted fire sighting. It enters the store through
// the photo-verification flow, never through the satellite feed, and is
// never mutated or reconciled after creation.
type CrowdReport struct {
	ID         string
	UserID     string
	Latitude   float64
	Longitude  float64
	Address    string
	TimeFire   time.Time
	Photo      string // blob reference, opaque to this service
	Definition string // free-text description from the reporter
}

func (r *CrowdReport) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}
