package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/exporter"
)

// RunInfo exposes the outcome of the most recent export run.
type RunInfo interface {
	LastRun() *exporter.LastRun
}

// Schedule exposes the daily scheduler state.
type Schedule interface {
	IsRunning() bool
	NextRunAt() time.Time
	LastRunAt() *time.Time
}

// Archive exposes the optional price archive for the status endpoint.
type Archive interface {
	Ping() error
	CountPrices(ctx context.Context) (int64, error)
}

// RunStatus is the last-run section of the status response.
type RunStatus struct {
	FinishedAt  time.Time `json:"finished_at"`
	Batches     int       `json:"batches"`
	Inserted    int       `json:"events_inserted"`
	NotInserted int       `json:"events_not_inserted"`
}

// ArchiveStatus is the archive section of the status response.
type ArchiveStatus struct {
	Enabled     bool  `json:"enabled"`
	Connected   bool  `json:"connected"`
	TotalPrices int64 `json:"total_prices_stored"`
}

// StatusResponse is the response for the /status endpoint.
type StatusResponse struct {
	Status           string        `json:"status"`
	UptimeSeconds    int64         `json:"uptime_seconds"`
	SchedulerRunning bool          `json:"scheduler_running"`
	NextRunAt        *time.Time    `json:"next_run_at,omitempty"`
	LastTriggeredAt  *time.Time    `json:"last_triggered_at,omitempty"`
	LastRun          *RunStatus    `json:"last_run,omitempty"`
	Archive          ArchiveStatus `json:"archive"`
}

// StatusHandler handles the /status endpoint.
type StatusHandler struct {
	runs      RunInfo
	scheduler Schedule
	archive   Archive
	startTime time.Time
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(runs RunInfo, sched Schedule, archive Archive) *StatusHandler {
	return &StatusHandler{
		runs:      runs,
		scheduler: sched,
		archive:   archive,
		startTime: time.Now(),
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	if h.scheduler != nil {
		response.SchedulerRunning = h.scheduler.IsRunning()
		response.LastTriggeredAt = h.scheduler.LastRunAt()
		nextRun := h.scheduler.NextRunAt()
		if !nextRun.IsZero() {
			response.NextRunAt = &nextRun
		}
	}

	if h.runs != nil {
		if last := h.runs.LastRun(); last != nil {
			response.LastRun = &RunStatus{
				FinishedAt:  last.FinishedAt,
				Batches:     last.Batches,
				Inserted:    last.Totals.Inserted,
				NotInserted: last.Totals.NotInserted,
			}
		}
	}

	response.Archive = h.getArchiveStatus(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *StatusHandler) getArchiveStatus(ctx context.Context) ArchiveStatus {
	status := ArchiveStatus{}

	if h.archive == nil {
		return status
	}
	status.Enabled = true

	if err := h.archive.Ping(); err != nil {
		return status
	}
	status.Connected = true

	if count, err := h.archive.CountPrices(ctx); err == nil {
		status.TotalPrices = count
	}
	return status
}
