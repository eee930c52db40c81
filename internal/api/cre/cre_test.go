package cre

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/models"
)

const testUserAgent = "DataNerdsMX Gasolinazo 1.0"

func TestFetchLocations_ParsesCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		// The catalog mixes bare and quoted numeric identifiers.
		_, _ = w.Write([]byte(`[
			{"MunicipioId": 12, "EntidadFederativaId": 2, "Nombre": "Mexicali", "EntidadFederativa": {"Nombre": "Baja California"}},
			{"MunicipioId": "103", "EntidadFederativaId": "40", "Nombre": "Benito Juárez", "EntidadFederativa": {"Nombre": "Quintana Roo"}}
		]`))
	}))
	defer server.Close()

	client := New(server.URL, server.URL, testUserAgent, clockwork.NewRealClock(), zerolog.Nop())

	records, err := client.FetchLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.NewLocationKey("02", "012"), records[0].Key())
	assert.Equal(t, "Mexicali", records[0].Nombre)
	assert.Equal(t, "Baja California", records[0].EntidadFederativa.Nombre)

	assert.Equal(t, models.NewLocationKey("40", "103"), records[1].Key())
}

func TestFetchPrices_SetsQueryParameters(t *testing.T) {
	fixedNow := time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(fixedNow)

	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"entidadId":   r.URL.Query().Get("entidadId"),
			"municipioId": r.URL.Query().Get("municipioId"),
			"_":           r.URL.Query().Get("_"),
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := New(server.URL, server.URL, testUserAgent, clock, zerolog.Nop())

	observations, err := client.FetchPrices(context.Background(), models.NewLocationKey("2", "12"))
	require.NoError(t, err)
	assert.Empty(t, observations)

	assert.Equal(t, "02", gotQuery["entidadId"])
	assert.Equal(t, "012", gotQuery["municipioId"])
	assert.Equal(t, "1709289000", gotQuery["_"])
}

func TestFetchPrices_ParsesObservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{
				"EntidadFederativaId": 2,
				"MunicipioId": 12,
				"Marca": "Pemex",
				"Nombre": "Estación Centro",
				"Producto": "Gasolinas",
				"SubProducto": "Regular (con contenido menor a 92 octanos)",
				"PrecioVigente": 22.49,
				"FechaAplicacion": "2024-03-01T08:00:00"
			}
		]`))
	}))
	defer server.Close()

	client := New(server.URL, server.URL, testUserAgent, clockwork.NewRealClock(), zerolog.Nop())

	observations, err := client.FetchPrices(context.Background(), models.NewLocationKey("2", "12"))
	require.NoError(t, err)
	require.Len(t, observations, 1)

	o := observations[0]
	assert.Equal(t, models.NewLocationKey("02", "012"), o.Key())
	assert.Equal(t, "Pemex", o.Marca)
	assert.Equal(t, "Estación Centro", o.Nombre)
	assert.Equal(t, "Gasolinas", o.Producto)
	assert.Equal(t, 22.49, o.PrecioVigente)
	assert.Equal(t, "2024-03-01T08:00:00", o.FechaAplicacion)
}

func TestFetchLocations_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, server.URL, testUserAgent, clockwork.NewRealClock(), zerolog.Nop())

	_, err := client.FetchLocations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code 502")
}

func TestFetchLocations_MalformedJSONIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"`))
	}))
	defer server.Close()

	client := New(server.URL, server.URL, testUserAgent, clockwork.NewRealClock(), zerolog.Nop())

	_, err := client.FetchLocations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing response JSON")
}
