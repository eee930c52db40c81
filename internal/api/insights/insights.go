// Package insights provides a client for the New Relic Insights event
// ingestion API.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EventType is the event name used for every exported price sample.
const EventType = "FuelPriceSample"

// Event is the externally shaped record posted to the ingestion API.
type Event struct {
	EventType string  `json:"eventType"`
	Location  string  `json:"location"`
	State     string  `json:"state"`
	Brand     string  `json:"brand"`
	Station   string  `json:"station"`
	Type      string  `json:"type"`
	Product   string  `json:"product"`
	Price     float64 `json:"price"`
	AppliedAt int64   `json:"applied_at"`
}

// Client posts event batches to the Insights collector for one account.
type Client struct {
	url       string
	insertKey string
	client    *http.Client
	logger    zerolog.Logger
}

// New creates an Insights client for the given account.
func New(baseURL, accountID, insertKey string, logger zerolog.Logger) *Client {
	return &Client{
		url:       fmt.Sprintf("%s/v1/accounts/%s/events", strings.TrimRight(baseURL, "/"), accountID),
		insertKey: insertKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With().Str("component", "insights").Logger(),
	}
}

// PostEvents posts one batch of events. It returns false when the collector
// answered with a non-200 status; the rejected body is logged. Transport
// failures are returned as errors.
func (c *Client) PostEvents(ctx context.Context, events []Event) (bool, error) {
	payload, err := json.Marshal(events)
	if err != nil {
		return false, fmt.Errorf("encoding events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Insert-Key", c.insertKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("executing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Int("events", len(events)).
			Str("body", string(body)).
			Msg("event batch rejected")
		return false, nil
	}
	return true, nil
}
