package handlers

import (
	"context"
	"net/http"
	"time"

	"arena-ledger/internal/ledger"
	"arena-ledger/internal/middleware"
)

type RegistryHandler struct {
	ledger *ledger.Ledger
}

func NewRegistryHandler(l *ledger.Ledger) *RegistryHandler {
	return &RegistryHandler{ledger: l}
}

// InitializeRegistry creates the arena registry with the caller as administrator.
// POST /api/registry
func (h *RegistryHandler) InitializeRegistry(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	registry, err := h.ledger.InitializeRegistry(ctx, caller)
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, registry)
}

// GetStats returns registry counters and battle breakdowns.
// GET /api/registry
func (h *RegistryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.ledger.Stats(ctx)
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
