package ledger

import (
	"context"
	"fmt"
	"time"

	"arena-ledger/internal/audit"
	"arena-ledger/internal/eventbus"
	"arena-ledger/internal/keys"
	"arena-ledger/internal/models"
	"arena-ledger/internal/store"
)

// InitializeRegistry creates the singleton registry with caller as
// administrator. It fails with ErrDuplicateKey if the registry exists.
func (l *Ledger) InitializeRegistry(ctx context.Context, caller models.Identity) (*models.Registry, error) {
	started := time.Now()
	now := l.timestamp()
	registry := &models.Registry{
		Key:           keys.Registry(),
		Administrator: caller,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Create(ctx, store.KindRegistry, registry.Key, registry)
	})
	l.observe(audit.OpInitializeRegistry, started, err)
	if err != nil {
		return nil, fmt.Errorf("initialize registry: %w", err)
	}

	l.emit(audit.OpInitializeRegistry, caller, registry.Key,
		"Arena registry initialized", eventbus.EventRegistryInitialized, "", registry)
	return registry, nil
}

// GetRegistry returns the registry or ErrNotFound before initialization.
func (l *Ledger) GetRegistry(ctx context.Context) (*models.Registry, error) {
	var registry models.Registry
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Get(ctx, store.KindRegistry, keys.Registry(), &registry)
	})
	if err != nil {
		return nil, err
	}
	return &registry, nil
}

// Stats summarises the ledger for dashboards.
type Stats struct {
	TotalAgents   uint64                       `json:"totalAgents"`
	TotalBattles  uint64                       `json:"totalBattles"`
	BattlesByType map[models.BattleType]uint64 `json:"battlesByType"`
	Draws         uint64                       `json:"draws"`
	TopRatedAgent *LeaderboardEntry            `json:"topRatedAgent,omitempty"`
}

func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	registry, err := l.GetRegistry(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalAgents:   registry.TotalAgents,
		TotalBattles:  registry.TotalBattles,
		BattlesByType: make(map[models.BattleType]uint64, len(models.BattleTypes)),
	}
	for _, t := range models.BattleTypes {
		stats.BattlesByType[t] = 0
	}

	err = l.store.Scan(ctx, store.KindBattle, func(_ keys.Location, decode store.DecodeFunc) error {
		var battle models.Battle
		if err := decode(&battle); err != nil {
			return err
		}
		stats.BattlesByType[battle.BattleType]++
		if battle.WinnerSide == models.WinnerDraw {
			stats.Draws++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan battles: %w", err)
	}

	top, err := l.Leaderboard(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(top) > 0 {
		stats.TopRatedAgent = &top[0]
	}
	return stats, nil
}
