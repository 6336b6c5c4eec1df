package handlers

import (
	"context"
	"net/http"
	"time"

	"arena-ledger/internal/ledger"
	"arena-ledger/internal/middleware"

	"github.com/gorilla/mux"
)

type AgentHandler struct {
	ledger *ledger.Ledger
}

func NewAgentHandler(l *ledger.Ledger) *AgentHandler {
	return &AgentHandler{ledger: l}
}

// Name length is checked by the ledger so its error kinds reach the client.
type RegisterAgentRequest struct {
	Name       string `json:"name"`
	ExternalID string `json:"externalId" validate:"required,max=64"`
}

// RegisterAgent registers an agent owned by the caller.
// POST /api/agents
func (h *AgentHandler) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req RegisterAgentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	agent, err := h.ledger.RegisterAgent(ctx, caller, req.Name, req.ExternalID)
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, agent)
}

// GetAgent returns one agent by external id.
// GET /api/agents/{externalId}
func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	agent, err := h.ledger.GetAgentByExternalID(ctx, mux.Vars(r)["externalId"])
	if err != nil {
		respondWithLedgerError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, agent)
}
