package handler

import (
	"net/http"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/poller"
)

// StatusHandler serves a human-readable JSON snapshot of the poll loop and
// the status-retry ledger. Raw Prometheus metrics are available at /metrics
// via promhttp and are separate from this endpoint.
type StatusHandler struct {
	poller     *poller.Poller
	ledgerSize func() int
}

func NewStatusHandler(p *poller.Poller, ledgerSize func() int) *StatusHandler {
	return &StatusHandler{poller: p, ledgerSize: ledgerSize}
}

// Status handles GET /api/v1/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.poller.State()
	respondJSON(w, http.StatusOK, map[string]any{
		"poll": map[string]any{
			"interval_seconds": st.Interval.Seconds(),
			"backoff_attempts": st.BackoffAttempts,
			"cycle_in_flight":  st.InFlight,
		},
		"status_retries_pending": h.ledgerSize(),
	})
}
