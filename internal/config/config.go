// Package config provides configuration structures and loading for the fuel
// price pipeline.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the fuel price pipeline.
type Config struct {
	// New Relic account the events are posted to
	NRAccountID string
	// New Relic Insights insert key
	NRInsertKey string
	// Insights collector base URL
	InsightsURL string
	// CRE municipality catalog endpoint
	CatalogURL string
	// CRE daily price report endpoint
	PricesURL string
	// User agent sent to the CRE APIs
	UserAgent string
	// Directory for date-rotated snapshots
	DataDir string
	// Delay between price requests
	RequestDelay time.Duration
	// Delay between event posts
	PostDelay time.Duration
	// Maximum events per post
	EventsPerPost int
	// Optional Postgres DSN for the price archive
	PostgresDSN string
	// Log level (debug, info, warn, error)
	LogLevel string
	// Log format (json, console)
	LogFormat string
	// HTTP server address for /metrics, /status
	HTTPAddr string
	// Hour of day (0-23) the daemon runs the pipeline
	RunHour int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		InsightsURL:   "https://insights-collector.newrelic.com",
		CatalogURL:    "http://api-catalogo.cre.gob.mx/api/utiles/municipios",
		PricesURL:     "http://api-reportediario.cre.gob.mx/api/EstacionServicio/Petroliferos",
		UserAgent:     "DataNerdsMX Gasolinazo 1.0",
		DataDir:       "data",
		RequestDelay:  300 * time.Millisecond,
		PostDelay:     time.Second,
		EventsPerPost: 1000,
		LogLevel:      "info",
		LogFormat:     "json",
		HTTPAddr:      ":8080",
		RunHour:       6,
	}
}

// LoadFromEnv loads configuration from environment variables, reading a .env
// file first when one exists.
func (c *Config) LoadFromEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("NR_ACCOUNT_ID"); v != "" {
		c.NRAccountID = v
	}
	if v := os.Getenv("NR_INSIGHTS_INSERT_KEY"); v != "" {
		c.NRInsertKey = v
	}
	if v := os.Getenv("INSIGHTS_URL"); v != "" {
		c.InsightsURL = v
	}
	if v := os.Getenv("CATALOG_URL"); v != "" {
		c.CatalogURL = v
	}
	if v := os.Getenv("PRICES_URL"); v != "" {
		c.PricesURL = v
	}
	if v := os.Getenv("USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.RequestDelay = d
		}
	}
	if v := os.Getenv("POST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.PostDelay = d
		}
	}
	if v := os.Getenv("EVENTS_PER_POST"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			c.EventsPerPost = i
		}
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("RUN_HOUR"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 && i <= 23 {
			c.RunHour = i
		}
	}
}

// Validate checks that required credentials are present. It runs before any
// collaborator is constructed so a misconfigured process fails before it
// touches the network.
func (c *Config) Validate() error {
	if c.NRAccountID == "" {
		return errors.New("NR_ACCOUNT_ID is required")
	}
	if c.NRInsertKey == "" {
		return errors.New("NR_INSIGHTS_INSERT_KEY is required")
	}
	return nil
}
