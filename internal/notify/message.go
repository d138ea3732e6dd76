package notify

import (
	"fmt"
	"time"

	"github.com/askhatb/go-fire-alerts/internal/models"
)

// fireEvent is the notifier's common view of a satellite fire or a crowd
// report. ReporterID and Definition are set only for crowd reports.
type fireEvent struct {
	ID         string
	Type       models.EventType
	Latitude   float64
	Longitude  float64
	Address    string
	TimeFire   time.Time
	ReporterID string
	Definition string
}

func fireEventFromFire(f *models.Fire) fireEvent {
	return fireEvent{
		ID:        f.ID,
		Type:      models.EventTypeFire,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Address:   f.Address,
		TimeFire:  f.TimeFire,
	}
}

func fireEventFromReport(r *models.CrowdReport) fireEvent {
	return fireEvent{
		ID:         r.ID,
		Type:       models.EventTypeCrowd,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Address:    r.Address,
		TimeFire:   r.TimeFire,
		ReporterID: r.UserID,
		Definition: r.Definition,
	}
}

const messageTimeLayout = "02.01.2006 15:04"

func renderMessage(ev fireEvent) string {
	location := ev.Address
	if location == "" {
		location = fmt.Sprintf("%.4f, %.4f", ev.Latitude, ev.Longitude)
	}

	if ev.Type == models.EventTypeCrowd {
		return fmt.Sprintf(
			"A user reported a fire near you.\nLocation: %s\nTime: %s\nDetails: %s\nBe careful!",
			location, ev.TimeFire.Format(messageTimeLayout), ev.Definition,
		)
	}
	return fmt.Sprintf(
		"Warning! A fire has been detected near you.\nLocation: %s\nTime: %s\nStay safe!",
		location, ev.TimeFire.Format(messageTimeLayout),
	)
}
