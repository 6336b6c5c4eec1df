package handlers

import (
	"context"
	"net/http"
	"time"

	"arena-ledger/internal/keys"
	"arena-ledger/internal/ledger"
	"arena-ledger/internal/middleware"
	"arena-ledger/internal/models"

	"github.com/gorilla/mux"
)

type BetHandler struct {
	ledger *ledger.Ledger
}

func NewBetHandler(l *ledger.Ledger) *BetHandler {
	return &BetHandler{ledger: l}
}

// PlaceBetRequest backs an agent, given by external id or hex location.
type PlaceBetRequest struct {
	PredictedWinner string `json:"predictedWinner" validate:"required,max=64"`
	Amount          uint64 `json:"amount" validate:"required,gt=0"`
}

// PlaceBet records the caller's wager on a battle.
// POST /api/battles/{battleId}/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req PlaceBetRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	predicted := models.Identity(keys.AgentRef(req.PredictedWinner))
	bet, err := h.ledger.PlaceBet(ctx, caller, mux.Vars(r)["battleId"], predicted, req.Amount)
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, bet)
}

// GetBattleBets lists every bet on a battle.
// GET /api/battles/{battleId}/bets
func (h *BetHandler) GetBattleBets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	bets, err := h.ledger.BetsForBattle(ctx, mux.Vars(r)["battleId"])
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, bets)
}

// GetOdds quotes current odds for a battle.
// GET /api/battles/{battleId}/odds
func (h *BetHandler) GetOdds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	odds, err := h.ledger.Odds(ctx, mux.Vars(r)["battleId"])
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, odds)
}

// GetMyBets returns the caller's betting history.
// GET /api/bets/me
func (h *BetHandler) GetMyBets(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	history, err := h.ledger.BetsByBettor(ctx, caller)
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}
