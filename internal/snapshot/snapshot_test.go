package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/models"
)

func newTestStore(t *testing.T, clock clockwork.Clock) *Store {
	t.Helper()
	return New(t.TempDir(), clock, zerolog.Nop())
}

func TestRotatedPath_InsertsDateBeforeExtension(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	store := New("data", clock, zerolog.Nop())

	assert.Equal(t, "foo.bar/baz.2024-03-01.pickle", store.RotatedPath("foo.bar/baz.pickle"))
	assert.Equal(t, "foo.bar/foo.bar.2024-03-01.pickle", store.RotatedPath("foo.bar/foo.bar.pickle"))
}

func TestRotatedPath_UsesTodaysDate(t *testing.T) {
	store := New("data", clockwork.NewRealClock(), zerolog.Nop())
	today := time.Now().Format("2006-01-02")

	assert.Equal(t, "data/prices."+today+".gob", store.RotatedPath("data/prices.gob"))
}

func TestSaveAndRead_RoundTrip(t *testing.T) {
	store := newTestStore(t, clockwork.NewRealClock())

	key := models.NewLocationKey("2", "12")
	catalog := models.Catalog{
		key: {Key: key, State: "Baja California", Name: "Mexicali"},
	}
	require.NoError(t, store.Save("locations", catalog))

	var got models.Catalog
	ok, err := store.Read("locations", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, catalog, got)
}

func TestRead_MissingSnapshotReturnsAbsent(t *testing.T) {
	store := newTestStore(t, clockwork.NewRealClock())

	var got models.Catalog
	ok, err := store.Read("locations", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRead_NeverFallsBackToOlderDate(t *testing.T) {
	dir := t.TempDir()
	yesterday := clockwork.NewFakeClockAt(time.Date(2024, time.February, 29, 23, 0, 0, 0, time.UTC))
	today := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 1, 0, 0, 0, time.UTC))

	old := New(dir, yesterday, zerolog.Nop())
	require.NoError(t, old.Save("prices", []models.PriceRecord{{Brand: "stale"}}))

	current := New(dir, today, zerolog.Nop())
	var got []models.PriceRecord
	ok, err := current.Read("prices", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_CacheHitSkipsCompute(t *testing.T) {
	store := newTestStore(t, clockwork.NewRealClock())

	key := models.NewLocationKey("9", "5")
	cached := models.Catalog{key: {Key: key, State: "CDMX", Name: "Tlalpan"}}
	require.NoError(t, store.Save("locations", cached))

	computed := false
	got, err := Resolve(store, "locations", func() (models.Catalog, error) {
		computed = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, computed)
	assert.Equal(t, cached, got)
}

func TestResolve_CacheMissInvokesCompute(t *testing.T) {
	store := newTestStore(t, clockwork.NewRealClock())

	records := []models.PriceRecord{{Brand: "Pemex", Station: "Estación Uno", Price: 21.49}}
	got, err := Resolve(store, "prices", func() ([]models.PriceRecord, error) {
		// Mirror the import stages: compute saves its own result.
		if err := store.Save("prices", records); err != nil {
			return nil, err
		}
		return records, nil
	})
	require.NoError(t, err)
	assert.Equal(t, records, got)

	// The computed value is now cached for the rest of the day.
	var cached []models.PriceRecord
	ok, err := store.Read("prices", &cached)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, records, cached)
}

func TestSave_CreatesDataDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store := New(dir, clockwork.NewRealClock(), zerolog.Nop())

	require.NoError(t, store.Save("locations", models.Catalog{}))
}
