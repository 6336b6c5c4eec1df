package handlers

import (
	"net/http"

	"arena-ledger/internal/ledger"
	"arena-ledger/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires the ledger API onto a mux.Router.
type Router struct {
	Ledger      *ledger.Ledger
	Auth        *middleware.AuthMiddleware
	RateLimiter *middleware.RateLimiter
	WebSocket   *WebSocketHandler
}

func (rt Router) Build() *mux.Router {
	registryHandler := NewRegistryHandler(rt.Ledger)
	agentHandler := NewAgentHandler(rt.Ledger)
	battleHandler := NewBattleHandler(rt.Ledger)
	betHandler := NewBetHandler(rt.Ledger)
	leaderboardHandler := NewLeaderboardHandler(rt.Ledger)

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecurityHeaders)

	// WebSocket routes
	if rt.WebSocket != nil {
		router.HandleFunc("/ws/feed", rt.WebSocket.HandleFeed)
		router.HandleFunc("/ws/battles/{battleId}", rt.WebSocket.HandleBattle)
	}

	// API routes
	api := router.PathPrefix("/api").Subrouter()

	// Public reads
	api.HandleFunc("/registry", registryHandler.GetStats).Methods("GET")
	api.HandleFunc("/agents/{externalId}", agentHandler.GetAgent).Methods("GET")
	api.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/battles/{battleId}", battleHandler.GetBattle).Methods("GET")
	api.HandleFunc("/battles/{battleId}/bets", betHandler.GetBattleBets).Methods("GET")
	api.HandleFunc("/battles/{battleId}/odds", betHandler.GetOdds).Methods("GET")

	// Writes need an identity and are rate limited per caller
	write := func(h http.HandlerFunc) http.Handler {
		var handler http.Handler = h
		if rt.RateLimiter != nil {
			handler = rt.RateLimiter.RateLimitMiddleware(middleware.IdentityOrIP)(handler)
		}
		return rt.Auth.RequireIdentity(handler)
	}
	api.Handle("/registry", write(registryHandler.InitializeRegistry)).Methods("POST")
	api.Handle("/agents", write(agentHandler.RegisterAgent)).Methods("POST")
	api.Handle("/battles", write(battleHandler.RecordBattle)).Methods("POST")
	api.Handle("/battles/{battleId}/bets", write(betHandler.PlaceBet)).Methods("POST")
	api.Handle("/bets/me", rt.Auth.RequireIdentity(http.HandlerFunc(betHandler.GetMyBets))).Methods("GET")

	// API Documentation
	router.HandleFunc("/docs", ServeAPIDocs).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
