package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/exporter"
)

type stubRuns struct {
	last *exporter.LastRun
}

func (s *stubRuns) LastRun() *exporter.LastRun { return s.last }

type stubSchedule struct {
	running bool
	next    time.Time
	last    *time.Time
}

func (s *stubSchedule) IsRunning() bool       { return s.running }
func (s *stubSchedule) NextRunAt() time.Time  { return s.next }
func (s *stubSchedule) LastRunAt() *time.Time { return s.last }

type stubArchive struct {
	pingErr error
	count   int64
}

func (s *stubArchive) Ping() error                                { return s.pingErr }
func (s *stubArchive) CountPrices(context.Context) (int64, error) { return s.count, nil }

func getStatus(t *testing.T, handler *StatusHandler) StatusResponse {
	t.Helper()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var response StatusResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func TestStatusHandler_ReportsLastRun(t *testing.T) {
	finished := time.Date(2024, time.March, 1, 6, 4, 0, 0, time.UTC)
	next := time.Date(2024, time.March, 2, 6, 0, 0, 0, time.UTC)

	handler := NewStatusHandler(
		&stubRuns{last: &exporter.LastRun{
			FinishedAt: finished,
			Batches:    2,
			Totals:     exporter.Totals{Inserted: 1000, NotInserted: 500},
		}},
		&stubSchedule{running: true, next: next},
		&stubArchive{count: 1500},
	)

	response := getStatus(t, handler)

	assert.Equal(t, "healthy", response.Status)
	assert.True(t, response.SchedulerRunning)
	require.NotNil(t, response.NextRunAt)
	assert.True(t, response.NextRunAt.Equal(next))

	require.NotNil(t, response.LastRun)
	assert.True(t, response.LastRun.FinishedAt.Equal(finished))
	assert.Equal(t, 2, response.LastRun.Batches)
	assert.Equal(t, 1000, response.LastRun.Inserted)
	assert.Equal(t, 500, response.LastRun.NotInserted)

	assert.True(t, response.Archive.Enabled)
	assert.True(t, response.Archive.Connected)
	assert.Equal(t, int64(1500), response.Archive.TotalPrices)
}

func TestStatusHandler_NoRunsYet(t *testing.T) {
	handler := NewStatusHandler(&stubRuns{}, &stubSchedule{}, nil)

	response := getStatus(t, handler)

	assert.Nil(t, response.LastRun)
	assert.Nil(t, response.NextRunAt)
	assert.False(t, response.SchedulerRunning)
	assert.False(t, response.Archive.Enabled)
}

func TestStatusHandler_UnreachableArchive(t *testing.T) {
	handler := NewStatusHandler(&stubRuns{}, &stubSchedule{}, &stubArchive{pingErr: errors.New("down")})

	response := getStatus(t, handler)

	assert.True(t, response.Archive.Enabled)
	assert.False(t, response.Archive.Connected)
	assert.Zero(t, response.Archive.TotalPrices)
}
