package ledger

import (
	"context"
	"fmt"
	"time"

	"arena-ledger/internal/audit"
	"arena-ledger/internal/elo"
	"arena-ledger/internal/eventbus"
	"arena-ledger/internal/keys"
	"arena-ledger/internal/metrics"
	"arena-ledger/internal/models"
	"arena-ledger/internal/store"
)

// BattleParams describes a finished battle between two registered agents.
// Scores and rounds are recorded as given.
type BattleParams struct {
	BattleID        string
	BattleType      models.BattleType
	WinnerSide      models.WinnerSide
	ChallengerScore uint32
	DefenderScore   uint32
	Rounds          uint8
	Challenger      keys.Location
	Defender        keys.Location
}

// BattleResult holds the records as they stand after the battle committed.
type BattleResult struct {
	Battle     *models.Battle `json:"battle"`
	Challenger *models.Agent  `json:"challenger"`
	Defender   *models.Agent  `json:"defender"`
	EloChange  uint32         `json:"eloChange"`
}

// RecordBattle writes the immutable battle record, updates both agents'
// counters and ratings, and increments the registry's battle count, all in
// one transaction.
//
// The caller is not checked against either agent's owner, and challenger
// may equal defender; in that case the defender's copy of the agent is the
// one persisted.
func (l *Ledger) RecordBattle(ctx context.Context, caller models.Identity, p BattleParams) (*BattleResult, error) {
	started := time.Now()
	result, err := l.recordBattle(ctx, caller, p)
	l.observe(audit.OpRecordBattle, started, err)
	if err != nil {
		return nil, err
	}

	if result.Battle.WinnerSide != models.WinnerDraw {
		metrics.ObserveEloChange(result.EloChange)
	}
	l.emit(audit.OpRecordBattle, caller, result.Battle.Key,
		fmt.Sprintf("Battle recorded: %s vs %s | Winner: %s",
			result.Challenger.Name, result.Defender.Name, result.Battle.WinnerSide),
		eventbus.EventBattleRecorded, result.Battle.BattleID, result)
	return result, nil
}

func (l *Ledger) recordBattle(ctx context.Context, caller models.Identity, p BattleParams) (*BattleResult, error) {
	if err := validateSeed("battle_id", p.BattleID, models.MaxBattleIDLen); err != nil {
		return nil, err
	}
	if _, err := models.ParseBattleType(string(p.BattleType)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if _, err := models.ParseWinnerSide(string(p.WinnerSide)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	now := l.timestamp()
	var result *BattleResult

	err := l.store.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		var registry models.Registry
		if err := tx.Get(ctx, store.KindRegistry, keys.Registry(), &registry); err != nil {
			return fmt.Errorf("registry: %w", err)
		}
		var challenger, defender models.Agent
		if err := tx.Get(ctx, store.KindAgent, p.Challenger, &challenger); err != nil {
			return fmt.Errorf("challenger: %w", err)
		}
		if err := tx.Get(ctx, store.KindAgent, p.Defender, &defender); err != nil {
			return fmt.Errorf("defender: %w", err)
		}

		battle := &models.Battle{
			Key:             keys.Battle(p.BattleID),
			BattleID:        p.BattleID,
			Challenger:      p.Challenger,
			Defender:        p.Defender,
			BattleType:      p.BattleType,
			WinnerSide:      p.WinnerSide,
			ChallengerScore: p.ChallengerScore,
			DefenderScore:   p.DefenderScore,
			Rounds:          p.Rounds,
			RecordedBy:      caller,
			Timestamp:       now,
		}
		battle.EloChange = l.applyOutcome(battle, &challenger, &defender)
		challenger.UpdatedAt = now
		defender.UpdatedAt = now

		if err := tx.Create(ctx, store.KindBattle, battle.Key, battle); err != nil {
			return fmt.Errorf("battle %q: %w", p.BattleID, err)
		}
		if err := tx.Put(ctx, store.KindAgent, p.Challenger, &challenger); err != nil {
			return fmt.Errorf("challenger: %w", err)
		}
		if err := tx.Put(ctx, store.KindAgent, p.Defender, &defender); err != nil {
			return fmt.Errorf("defender: %w", err)
		}

		registry.TotalBattles = elo.SaturatingInc64(registry.TotalBattles)
		registry.UpdatedAt = now
		if err := tx.Put(ctx, store.KindRegistry, registry.Key, &registry); err != nil {
			return fmt.Errorf("registry: %w", err)
		}

		result = &BattleResult{
			Battle:     battle,
			Challenger: &challenger,
			Defender:   &defender,
			EloChange:  battle.EloChange,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record battle: %w", err)
	}
	return result, nil
}

// applyOutcome updates both agents for the battle's winner side and sets the
// battle's winner. The rating delta is computed from pre-battle ratings with
// the actual winner in the winner's seat; draws move no rating points.
func (l *Ledger) applyOutcome(battle *models.Battle, challenger, defender *models.Agent) uint32 {
	var change uint32

	switch battle.WinnerSide {
	case models.WinnerChallenger:
		change = l.calculator.RatingChange(challenger.Rating, defender.Rating)
		challenger.Rating, defender.Rating = l.calculator.Apply(challenger.Rating, defender.Rating, change)
		winner := battle.Challenger
		battle.Winner = &winner
	case models.WinnerDefender:
		change = l.calculator.RatingChange(defender.Rating, challenger.Rating)
		defender.Rating, challenger.Rating = l.calculator.Apply(defender.Rating, challenger.Rating, change)
		winner := battle.Defender
		battle.Winner = &winner
	default:
		battle.Winner = nil
	}

	challengerResult, defenderResult := elo.GetGameResultsFromWinner(string(battle.WinnerSide))
	applyResult(challenger, challengerResult)
	applyResult(defender, defenderResult)
	return change
}

func applyResult(agent *models.Agent, result elo.GameResult) {
	agent.TotalBattles = elo.SaturatingInc(agent.TotalBattles)
	switch result {
	case elo.Win:
		agent.Wins = elo.SaturatingInc(agent.Wins)
	case elo.Loss:
		agent.Losses = elo.SaturatingInc(agent.Losses)
	}
}

func (l *Ledger) GetBattle(ctx context.Context, battleID string) (*models.Battle, error) {
	var battle models.Battle
	err := l.store.View(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Get(ctx, store.KindBattle, keys.Battle(battleID), &battle)
	})
	if err != nil {
		return nil, err
	}
	return &battle, nil
}
