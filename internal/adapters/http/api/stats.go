package api

import (
	"net/http"
	"time"
)

// StatsProvider reports the pipeline counters of a running scoreboard.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the scoreboard pipeline counters.
type StatsHandler struct {
	provider StatsProvider
	now      func() time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, now: time.Now}
}

type statsResponse struct {
	Status      string                 `json:"status"`
	GeneratedAt time.Time              `json:"generated_at"`
	Stats       map[string]interface{} `json:"stats"`
}

// HandleStats handles GET /stats requests. The status is "running" once the
// ingest pipeline has started and "stopped" otherwise.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.provider.GetStats()
	if stats == nil {
		stats = map[string]interface{}{}
	}
	status := "stopped"
	if started, _ := stats["started"].(bool); started {
		status = "running"
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, statsResponse{
		Status:      status,
		GeneratedAt: h.now().UTC(),
		Stats:       stats,
	})
}
