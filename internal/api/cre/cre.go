// Package cre provides a client for the CRE public fuel price APIs: the
// municipality catalog and the daily station price report.
package cre

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/models"
)

// flexID accepts both quoted and bare numeric identifiers, which the CRE
// APIs mix freely.
type flexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	*f = flexID(data)
	return nil
}

// CatalogRecord is one entry of the municipality catalog response. Field
// names mirror the upstream API.
type CatalogRecord struct {
	MunicipioID         flexID `json:"MunicipioId"`
	EntidadFederativaID flexID `json:"EntidadFederativaId"`
	Nombre              string `json:"Nombre"`
	EntidadFederativa   struct {
		Nombre string `json:"Nombre"`
	} `json:"EntidadFederativa"`
}

// Key derives the zero-padded composite key for this catalog entry.
func (r CatalogRecord) Key() models.LocationKey {
	return models.NewLocationKey(string(r.EntidadFederativaID), string(r.MunicipioID))
}

// PriceObservation is one station/product price row from the daily report.
type PriceObservation struct {
	EntidadFederativaID flexID  `json:"EntidadFederativaId"`
	MunicipioID         flexID  `json:"MunicipioId"`
	Marca               string  `json:"Marca"`
	Nombre              string  `json:"Nombre"`
	Producto            string  `json:"Producto"`
	SubProducto         string  `json:"SubProducto"`
	PrecioVigente       float64 `json:"PrecioVigente"`
	FechaAplicacion     string  `json:"FechaAplicacion"`
}

// Key derives the composite key from the observation's own identifiers. The
// report occasionally returns rows for a municipality other than the one that
// was queried, so record construction must key off the row itself.
func (o PriceObservation) Key() models.LocationKey {
	return models.NewLocationKey(string(o.EntidadFederativaID), string(o.MunicipioID))
}

// Client calls the CRE catalog and daily price report endpoints.
type Client struct {
	catalogURL string
	pricesURL  string
	userAgent  string
	client     *http.Client
	clock      clockwork.Clock
	logger     zerolog.Logger
}

// New creates a CRE API client.
func New(catalogURL, pricesURL, userAgent string, clock clockwork.Clock, logger zerolog.Logger) *Client {
	return &Client{
		catalogURL: catalogURL,
		pricesURL:  pricesURL,
		userAgent:  userAgent,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		clock:  clock,
		logger: logger.With().Str("component", "cre").Logger(),
	}
}

// FetchLocations retrieves the full municipality catalog. The catalog is not
// paginated; a single response is complete.
func (c *Client) FetchLocations(ctx context.Context) ([]CatalogRecord, error) {
	var records []CatalogRecord
	if err := c.get(ctx, c.catalogURL, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchPrices retrieves current price observations for one municipality. The
// current Unix time is appended as a query value to defeat intermediary
// caching. An empty array is a valid response.
func (c *Client) FetchPrices(ctx context.Context, key models.LocationKey) ([]PriceObservation, error) {
	u, err := url.Parse(c.pricesURL)
	if err != nil {
		return nil, fmt.Errorf("parsing prices URL: %w", err)
	}
	q := u.Query()
	q.Set("entidadId", key.StateID)
	q.Set("municipioId", key.LocationID)
	q.Set("_", strconv.FormatInt(c.clock.Now().Unix(), 10))
	u.RawQuery = q.Encode()

	var observations []PriceObservation
	if err := c.get(ctx, u.String(), &observations); err != nil {
		return nil, err
	}
	return observations, nil
}

func (c *Client) get(ctx context.Context, apiURL string, out any) error {
	c.logger.Debug().Str("url", apiURL).Msg("fetching")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}
