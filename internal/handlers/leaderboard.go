package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"arena-ledger/internal/ledger"
)

type LeaderboardHandler struct {
	ledger *ledger.Ledger
}

func NewLeaderboardHandler(l *ledger.Ledger) *LeaderboardHandler {
	return &LeaderboardHandler{ledger: l}
}

type LeaderboardResponse struct {
	Entries []ledger.LeaderboardEntry `json:"entries"`
	Limit   int                       `json:"limit"`
}

// GetLeaderboard returns the top agents by rating.
// GET /api/leaderboard?limit=N
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit := ledger.DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid_argument", "limit must be a positive integer")
			return
		}
		limit = min(n, ledger.MaxLeaderboardLimit)
	}

	entries, err := h.ledger.Leaderboard(ctx, limit)
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	if entries == nil {
		entries = []ledger.LeaderboardEntry{}
	}
	respondWithJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries, Limit: limit})
}
