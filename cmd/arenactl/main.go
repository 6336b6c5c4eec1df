// Command arenactl operates on the configured arena store directly: it can
// initialize the registry, register agents, record battles, place bets and
// mint identity tokens for the HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"arena-ledger/internal/audit"
	"arena-ledger/internal/config"
	"arena-ledger/internal/db"
	"arena-ledger/internal/ledger"
)

func main() {
	if err := newRootCmd(openConfiguredLedger).Execute(); err != nil {
		os.Exit(1)
	}
}

// openConfiguredLedger opens the store named by the environment's config
// file, the same one the server uses.
func openConfiguredLedger(env string) (*ledger.Ledger, *config.Config, func(), error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, nil, err
	}
	st, mongodb, err := db.Open(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	opts := []ledger.Option{}
	if mongodb != nil {
		opts = append(opts, ledger.WithAuditLogger(audit.NewLogger(mongodb.AuditLog())))
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}
	return ledger.New(st, opts...), cfg, closeFn, nil
}
