package api

import (
	"context"
	"net/http"

	"github.com/okian/judgeboard/internal/domain/types"
	"github.com/okian/judgeboard/pkg/logger"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// LeaderboardStatsProvider computes dashboard statistics.
type LeaderboardStatsProvider interface {
	Stats(ctx context.Context) (types.Stats, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	leaderboard   LeaderboardStatsProvider
	statsProvider StatsProvider
	logger        logger.Logger
}

type statsResponse struct {
	Leaderboard types.Stats    `json:"leaderboard"`
	Service     map[string]any `json:"service"`
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(leaderboard LeaderboardStatsProvider, statsProvider StatsProvider, l logger.Logger) *StatsHandler {
	return &StatsHandler{leaderboard: leaderboard, statsProvider: statsProvider, logger: l}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	st, err := h.leaderboard.Stats(r.Context())
	if err != nil {
		writeInternal(r.Context(), w, h.logger, op, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, statsResponse{Leaderboard: st, Service: h.statsProvider.GetStats()})
}
