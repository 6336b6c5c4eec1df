package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"arena-ledger/internal/audit"
	"arena-ledger/internal/eventbus"
	"arena-ledger/internal/keys"
	"arena-ledger/internal/models"
	"arena-ledger/internal/store"
)

// PlaceBet records a pending wager by caller on battleID. The battle id is
// not checked against recorded battles; one bet per (battle, bettor).
func (l *Ledger) PlaceBet(ctx context.Context, caller models.Identity, battleID string, predictedWinner models.Identity, amount uint64) (*models.Bet, error) {
	started := time.Now()
	bet, err := l.placeBet(ctx, caller, battleID, predictedWinner, amount)
	l.observe(audit.OpPlaceBet, started, err)
	if err != nil {
		return nil, err
	}

	l.emit(audit.OpPlaceBet, caller, bet.Key,
		fmt.Sprintf("Bet placed: %d on %s", bet.Amount, bet.PredictedWinner),
		eventbus.EventBetPlaced, bet.BattleID, bet)
	return bet, nil
}

func (l *Ledger) placeBet(ctx context.Context, caller models.Identity, battleID string, predictedWinner models.Identity, amount uint64) (*models.Bet, error) {
	if err := validateSeed("battle_id", battleID, models.MaxBattleIDLen); err != nil {
		return nil, err
	}
	if caller == "" {
		return nil, fmt.Errorf("%w: bettor identity is required", ErrInvalidArgument)
	}

	bet := &models.Bet{
		Key:             keys.Bet(battleID, string(caller)),
		Bettor:          caller,
		BattleID:        battleID,
		PredictedWinner: predictedWinner,
		Amount:          amount,
		Status:          models.BetStatusPending,
		PlacedAt:        l.timestamp(),
	}

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Create(ctx, store.KindBet, bet.Key, bet)
	})
	if err != nil {
		return nil, fmt.Errorf("place bet on %q: %w", battleID, err)
	}
	return bet, nil
}

func (l *Ledger) GetBet(ctx context.Context, battleID string, bettor models.Identity) (*models.Bet, error) {
	var bet models.Bet
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Get(ctx, store.KindBet, keys.Bet(battleID, string(bettor)), &bet)
	})
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// BetsForBattle returns every bet on battleID, oldest first.
func (l *Ledger) BetsForBattle(ctx context.Context, battleID string) ([]models.Bet, error) {
	bets, err := l.scanBets(ctx, func(b *models.Bet) bool { return b.BattleID == battleID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(bets, func(i, j int) bool { return bets[i].PlacedAt.Before(bets[j].PlacedAt) })
	return bets, nil
}

// BetHistory is a bettor's wagers with per-status counts.
type BetHistory struct {
	Bets    []models.Bet `json:"bets"`
	Total   int          `json:"total"`
	Pending int          `json:"pending"`
	Won     int          `json:"won"`
	Lost    int          `json:"lost"`
}

// BetsByBettor returns bettor's wagers, newest first.
func (l *Ledger) BetsByBettor(ctx context.Context, bettor models.Identity) (*BetHistory, error) {
	bets, err := l.scanBets(ctx, func(b *models.Bet) bool { return b.Bettor == bettor })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(bets, func(i, j int) bool { return bets[i].PlacedAt.After(bets[j].PlacedAt) })

	history := &BetHistory{Bets: bets, Total: len(bets)}
	for i := range bets {
		switch bets[i].Status {
		case models.BetStatusPending:
			history.Pending++
		case models.BetStatusWon:
			history.Won++
		case models.BetStatusLost:
			history.Lost++
		}
	}
	return history, nil
}

func (l *Ledger) scanBets(ctx context.Context, keep func(*models.Bet) bool) ([]models.Bet, error) {
	bets := []models.Bet{}
	err := l.store.Scan(ctx, store.KindBet, func(_ keys.Location, decode store.DecodeFunc) error {
		var b models.Bet
		if err := decode(&b); err != nil {
			return err
		}
		if keep(&b) {
			bets = append(bets, b)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan bets: %w", err)
	}
	return bets, nil
}
