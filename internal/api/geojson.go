package api

import (
	"github.com/askhatb/go-fire-alerts/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func firesToGeoJSON(fires []models.Fire) FeatureCollection {
	features := make([]Feature, 0, len(fires))

	for _, f := range fires {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{f.Longitude, f.Latitude},
			},
			Properties: map[string]any{
				"id":           f.ID,
				"daynight":     f.Daynight,
				"address":      f.Address,
				"time_fire":    f.TimeFire,
				"request_time": f.RequestTime,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

func reportsToGeoJSON(reports []models.CrowdReport) FeatureCollection {
	features := make([]Feature, 0, len(reports))

	for _, r := range reports {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{r.Longitude, r.Latitude},
			},
			Properties: map[string]any{
				"id":         r.ID,
				"address":    r.Address,
				"time_fire":  r.TimeFire,
				"definition": r.Definition,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
