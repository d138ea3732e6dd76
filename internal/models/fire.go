package models

import "time"

type Fire struct {
	ID          string
	Latitude    float64
	Longitude   float64
	Daynight    string    // "D" or "N" from the satellite feed
	Address     string    // reverse-geocoded, empty when the lookup failed
	TimeFire    time.Time // when the satellite observed the fire
	RequestTime time.Time // when we ingested it
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (f *Fire) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
	}
}

// DedupKey identifies a logically unique fire event. Two fires sharing
// the same key are duplicates of one observation.
type DedupKey struct {
	Latitude  float64
	Longitude float64
	TimeFire  time.Time
}

func (f *Fire) DedupKey() DedupKey {
	return DedupKey{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		TimeFire:  f.TimeFire,
	}
}
