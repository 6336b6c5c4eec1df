package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"arena-ledger/internal/audit"
	"arena-ledger/internal/elo"
	"arena-ledger/internal/eventbus"
	"arena-ledger/internal/keys"
	"arena-ledger/internal/models"
	"arena-ledger/internal/store"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// RegisterAgent creates an agent at keys.Agent(externalID) with the initial
// rating and increments the registry's agent count.
func (l *Ledger) RegisterAgent(ctx context.Context, caller models.Identity, name, externalID string) (*models.Agent, error) {
	started := time.Now()
	agent, err := l.registerAgent(ctx, caller, name, externalID)
	l.observe(audit.OpRegisterAgent, started, err)
	if err != nil {
		return nil, err
	}

	l.emit(audit.OpRegisterAgent, caller, agent.Key,
		fmt.Sprintf("Agent registered: %s", agent.Name), eventbus.EventAgentRegistered, "", agent)
	return agent, nil
}

func (l *Ledger) registerAgent(ctx context.Context, caller models.Identity, name, externalID string) (*models.Agent, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateSeed("external_id", externalID, models.MaxExternalIDLen); err != nil {
		return nil, err
	}

	now := l.timestamp()
	agent := &models.Agent{
		Key:          keys.Agent(externalID),
		Owner:        caller,
		Name:         name,
		ExternalID:   externalID,
		Rating:       elo.InitialRating,
		RegisteredAt: now,
		UpdatedAt:    now,
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		var registry models.Registry
		if err := tx.Get(ctx, store.KindRegistry, keys.Registry(), &registry); err != nil {
			return fmt.Errorf("registry: %w", err)
		}
		if err := tx.Create(ctx, store.KindAgent, agent.Key, agent); err != nil {
			return fmt.Errorf("agent %q: %w", externalID, err)
		}
		registry.TotalAgents = elo.SaturatingInc64(registry.TotalAgents)
		registry.UpdatedAt = now
		return tx.Put(ctx, store.KindRegistry, registry.Key, &registry)
	})
	if err != nil {
		return nil, fmt.Errorf("register agent: %w", err)
	}
	return agent, nil
}

func (l *Ledger) GetAgent(ctx context.Context, key keys.Location) (*models.Agent, error) {
	var agent models.Agent
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Get(ctx, store.KindAgent, key, &agent)
	})
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (l *Ledger) GetAgentByExternalID(ctx context.Context, externalID string) (*models.Agent, error) {
	return l.GetAgent(ctx, keys.Agent(externalID))
}

type LeaderboardEntry struct {
	Rank         int           `json:"rank"`
	Key          keys.Location `json:"key"`
	Name         string        `json:"name"`
	ExternalID   string        `json:"externalId"`
	Rating       uint32        `json:"rating"`
	Wins         uint32        `json:"wins"`
	Losses       uint32        `json:"losses"`
	TotalBattles uint32        `json:"totalBattles"`
	WinRate      int           `json:"winRate"`
}

// Leaderboard returns agents by rating, highest first. Ties are broken by
// wins, then external id. limit is clamped to [1, MaxLeaderboardLimit].
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	var agents []models.Agent
	err := l.store.Scan(ctx, store.KindAgent, func(_ keys.Location, decode store.DecodeFunc) error {
		var a models.Agent
		if err := decode(&a); err != nil {
			return err
		}
		agents = append(agents, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan agents: %w", err)
	}

	sort.Slice(agents, func(i, j int) bool {
		if agents[i].Rating != agents[j].Rating {
			return agents[i].Rating > agents[j].Rating
		}
		if agents[i].Wins != agents[j].Wins {
			return agents[i].Wins > agents[j].Wins
		}
		return agents[i].ExternalID < agents[j].ExternalID
	})
	if len(agents) > limit {
		agents = agents[:limit]
	}

	entries := make([]LeaderboardEntry, len(agents))
	for i := range agents {
		a := &agents[i]
		entries[i] = LeaderboardEntry{
			Rank:         i + 1,
			Key:          a.Key,
			Name:         a.Name,
			ExternalID:   a.ExternalID,
			Rating:       a.Rating,
			Wins:         a.Wins,
			Losses:       a.Losses,
			TotalBattles: a.TotalBattles,
			WinRate:      a.WinRate(),
		}
	}
	return entries, nil
}
