package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
)

// Detection is one parsed row of the FIRMS country CSV.
type Detection struct {
	Latitude  float64
	Longitude float64
	Daynight  string
	TimeFire  time.Time
}

// Feed fetches the current detection window from the satellite feed.
type Feed interface {
	Fetch(ctx context.Context) ([]Detection, error)
}

// FirmsClient pulls the NASA FIRMS country CSV for a fixed sensor and
// country with a source-side lookback of Days.
type FirmsClient struct {
	baseURL    string
	apiKey     string
	sensor     string
	country    string
	days       int
	httpClient *http.Client
	clock      clockwork.Clock
}

func NewFirmsClient(baseURL, apiKey, sensor, country string, days int, clock clockwork.Clock) *FirmsClient {
	return &FirmsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		sensor:  sensor,
		country: country,
		days:    days,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		clock: clock,
	}
}

func (c *FirmsClient) Fetch(ctx context.Context) ([]Detection, error) {
	date := c.clock.Now().UTC().Format("2006-01-02")
	url := fmt.Sprintf("%s/api/country/csv/%s/%s/%s/%d/%s",
		c.baseURL, c.apiKey, c.sensor, c.country, c.days, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	return parseCSV(resp.Body)
}

// parseCSV maps rows by header name so column order and passthrough
// columns the feed adds over time do not break parsing.
func parseCSV(r io.Reader) ([]Detection, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"latitude", "longitude", "acq_date", "acq_time", "daynight"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("CSV missing required column: %s", required)
		}
	}

	var detections []Detection
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}

		lat, err := strconv.ParseFloat(record[cols["latitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing latitude %q: %w", record[cols["latitude"]], err)
		}
		lon, err := strconv.ParseFloat(record[cols["longitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing longitude %q: %w", record[cols["longitude"]], err)
		}
		acqTime, err := strconv.Atoi(record[cols["acq_time"]])
		if err != nil {
			return nil, fmt.Errorf("error parsing acq_time %q: %w", record[cols["acq_time"]], err)
		}

		timeFire, err := combineAcqTimestamp(record[cols["acq_date"]], acqTime)
		if err != nil {
			return nil, err
		}

		detections = append(detections, Detection{
			Latitude:  lat,
			Longitude: lon,
			Daynight:  record[cols["daynight"]],
			TimeFire:  timeFire,
		})
	}

	return detections, nil
}

// combineAcqTimestamp reconstructs the observation time from the feed's
// split fields: acq_date is a plain date and acq_time is an integer HHMM
// that loses its leading zeros, so 930 means 09:30.
func combineAcqTimestamp(acqDate string, acqTime int) (time.Time, error) {
	day, err := time.Parse("2006-01-02", acqDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing acq_date %q: %w", acqDate, err)
	}

	padded := fmt.Sprintf("%04d", acqTime)
	hours, err := strconv.Atoi(padded[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing hours from acq_time %d: %w", acqTime, err)
	}
	minutes, err := strconv.Atoi(padded[2:])
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing minutes from acq_time %d: %w", acqTime, err)
	}
	if hours > 23 || minutes > 59 {
		return time.Time{}, fmt.Errorf("acq_time out of range: %d", acqTime)
	}

	return day.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), nil
}
