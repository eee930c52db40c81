// Package models provides shared data types for the fuel price pipeline.
package models

// FuelType is the normalized fuel category of a price observation.
type FuelType string

const (
	// FuelTypeGasoline covers the upstream "Gasolinas" category.
	FuelTypeGasoline FuelType = "gasoline"
	// FuelTypeDiesel covers every other upstream category.
	FuelTypeDiesel FuelType = "diesel"
)

// LocationKey uniquely identifies a municipality within a state. StateID is
// zero-padded to width 2 and LocationID to width 3, so keys derived from
// padded and unpadded upstream identifiers compare equal.
type LocationKey struct {
	StateID    string
	LocationID string
}

// NewLocationKey builds a LocationKey from raw catalog identifiers.
// Padding is idempotent: pre-padded values pass through unchanged.
func NewLocationKey(stateID, locationID string) LocationKey {
	return LocationKey{
		StateID:    pad(stateID, 2),
		LocationID: pad(locationID, 3),
	}
}

func pad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// String renders the key for logs and error messages.
func (k LocationKey) String() string {
	return k.StateID + "-" + k.LocationID
}

// Location is one entry of the CRE municipality catalog. Immutable once
// constructed.
type Location struct {
	Key   LocationKey
	State string // human-readable state name
	Name  string // human-readable municipality name
}

// Catalog maps a composite key to its Location.
type Catalog map[LocationKey]Location

// PriceRecord is a single normalized price observation for one
// station/product pair. Immutable once constructed.
type PriceRecord struct {
	Location  Location
	Brand     string
	Station   string
	Type      FuelType
	Product   string
	Price     float64
	AppliedAt int64 // Unix seconds
}

// RunTotals accumulates counters for a single price import run.
type RunTotals struct {
	LocationsMissingData int
	LocationsProcessed   int
	StationsProcessed    int
}
