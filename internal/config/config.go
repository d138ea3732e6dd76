package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Firms    FirmsConfig
	Geocode  GeocodeConfig
	Twilio   TwilioConfig
	Notify   NotifyConfig
	Pipeline PipelineConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type FirmsConfig struct {
	BaseURL string
	APIKey  string
	Sensor  string
	Country string
	Days    int
}

type GeocodeConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type TwilioConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	FromNumber string
	Timeout    time.Duration
}

type NotifyConfig struct {
	Interval       time.Duration
	RadiusKm       float64
	EventWindow    time.Duration
	LocationWindow time.Duration
	WorkerCount    int
	WorkerBuffer   int
}

// PipelineConfig drives the ingest+reconcile supervisory loop. The design
// assumes a single active instance; running two pipelines concurrently
// widens the duplicate race window the reconciler has to clean up.
type PipelineConfig struct {
	Interval time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Firms: FirmsConfig{
			BaseURL: getEnv("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov"),
			APIKey:  getEnv("FIRMS_API_KEY", ""),
			Sensor:  getEnv("FIRMS_SENSOR", "VIIRS_NOAA20_NRT"),
			Country: getEnv("FIRMS_COUNTRY", "KAZ"),
			Days:    getEnvInt("FIRMS_DAYS", 1),
		},
		Geocode: GeocodeConfig{
			BaseURL:   getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("NOMINATIM_USER_AGENT", "go-fire-alerts/1.0"),
			Timeout:   getEnvDuration("NOMINATIM_TIMEOUT", 10*time.Second),
		},
		Twilio: TwilioConfig{
			BaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
			Timeout:    getEnvDuration("TWILIO_TIMEOUT", 30*time.Second),
		},
		Notify: NotifyConfig{
			Interval:       getEnvDuration("NOTIFY_INTERVAL", 3*time.Minute),
			RadiusKm:       getEnvFloat("NOTIFY_RADIUS_KM", 1.0),
			EventWindow:    getEnvDuration("NOTIFY_EVENT_WINDOW", 5*time.Minute),
			LocationWindow: getEnvDuration("NOTIFY_LOCATION_WINDOW", 2*time.Minute),
			WorkerCount:    getEnvInt("NOTIFY_WORKER_COUNT", 2),
			WorkerBuffer:   getEnvInt("NOTIFY_WORKER_BUFFER", 20),
		},
		Pipeline: PipelineConfig{
			Interval: getEnvDuration("PIPELINE_INTERVAL", 5*time.Minute),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/fire-alerts.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Pipeline.Interval < time.Minute {
		return fmt.Errorf("pipeline interval must be at least 1 minute")
	}
	if c.Notify.Interval < time.Minute {
		return fmt.Errorf("notify interval must be at least 1 minute")
	}
	if c.Notify.RadiusKm <= 0 {
		return fmt.Errorf("notification radius must be positive: %f", c.Notify.RadiusKm)
	}
	if c.Firms.Days < 1 || c.Firms.Days > 10 {
		return fmt.Errorf("FIRMS lookback must be 1-10 days: %d", c.Firms.Days)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
