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

type BattleHandler struct {
	ledger *ledger.Ledger
}

func NewBattleHandler(l *ledger.Ledger) *BattleHandler {
	return &BattleHandler{ledger: l}
}

// RecordBattleRequest names agents by external id or hex location.
type RecordBattleRequest struct {
	BattleID        string `json:"battleId" validate:"required,max=64"`
	BattleType      string `json:"battleType" validate:"required,oneof=reasoning debate speed strategy"`
	WinnerSide      string `json:"winnerSide" validate:"required,oneof=challenger defender draw"`
	ChallengerScore uint32 `json:"challengerScore"`
	DefenderScore   uint32 `json:"defenderScore"`
	Rounds          uint8  `json:"rounds"`
	Challenger      string `json:"challenger" validate:"required,max=64"`
	Defender        string `json:"defender" validate:"required,max=64"`
}

// RecordBattle applies a finished battle to both agents.
// POST /api/battles
func (h *BattleHandler) RecordBattle(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req RecordBattleRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := h.ledger.RecordBattle(ctx, caller, ledger.BattleParams{
		BattleID:        req.BattleID,
		BattleType:      models.BattleType(req.BattleType),
		WinnerSide:      models.WinnerSide(req.WinnerSide),
		ChallengerScore: req.ChallengerScore,
		DefenderScore:   req.DefenderScore,
		Rounds:          req.Rounds,
		Challenger:      keys.AgentRef(req.Challenger),
		Defender:        keys.AgentRef(req.Defender),
	})
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// GetBattle returns a recorded battle.
// GET /api/battles/{battleId}
func (h *BattleHandler) GetBattle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	battle, err := h.ledger.GetBattle(ctx, mux.Vars(r)["battleId"])
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, battle)
}
