package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"arena-ledger/internal/audit"
	"arena-ledger/internal/auth"
	"arena-ledger/internal/config"
	"arena-ledger/internal/db"
	"arena-ledger/internal/eventbus"
	"arena-ledger/internal/handlers"
	"arena-ledger/internal/ledger"
	"arena-ledger/internal/middleware"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting arena ledger in %s mode (store=%s)", cfg.Environment, cfg.Store.Driver)

	st, mongodb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}()

	// Event fan-out: local websocket hub, plus cross-instance delivery via
	// MongoDB change streams when running on MongoDB
	wsHandler := handlers.NewWebSocketHandler()
	defer wsHandler.GetHub().Stop()

	auditLogger := audit.NewLogger(nil)
	var bus *eventbus.EventBus
	if mongodb != nil {
		auditLogger = audit.NewLogger(mongodb.AuditLog())
		bus = eventbus.New(mongodb.WSEvents(), wsHandler.GetHub().Deliver)
	} else {
		bus = eventbus.New(nil, wsHandler.GetHub().Deliver)
	}
	bus.Start()
	defer bus.Stop()

	arena := ledger.New(st,
		ledger.WithPublisher(bus),
		ledger.WithAuditLogger(auditLogger),
	)

	// Create middleware
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.TTL)*time.Minute)
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		PerMinute: cfg.RateLimit.WritesPerMinute,
		Burst:     cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	router := handlers.Router{
		Ledger:      arena,
		Auth:        middleware.NewAuthMiddleware(jwtService),
		RateLimiter: rateLimiter,
		WebSocket:   wsHandler,
	}.Build()

	// CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped with error: %v", err)
		return
	}
	log.Println("Server stopped")
}
