package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"advisory-ai/internal/contextutil"
	"advisory-ai/internal/indexer"
)

// StatsProvider reports index statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) (*indexer.Stats, error)
}

// StatsHandler handles HTTP requests for index statistics.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// ServeHTTP handles GET /api/stats.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := h.provider.GetStats(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get index stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get index stats")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
