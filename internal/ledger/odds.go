package ledger

import (
	"context"
	"errors"
	"math/big"
	"sort"

	"arena-ledger/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// HouseCut is the share of the pool returned to winning bettors.
	HouseCut = decimal.RequireFromString("0.95")
	// EmptySideOdds is quoted for a side nobody has backed yet.
	EmptySideOdds = decimal.NewFromInt(2)
)

type SideOdds struct {
	PredictedWinner models.Identity `json:"predictedWinner"`
	Pool            decimal.Decimal `json:"pool"`
	Bets            int             `json:"bets"`
	Odds            decimal.Decimal `json:"odds"`
}

// BattleOdds is an informational quote; nothing is settled from it.
type BattleOdds struct {
	BattleID  string          `json:"battleId"`
	TotalPool decimal.Decimal `json:"totalPool"`
	Sides     []SideOdds      `json:"sides"`
}

// Odds quotes payout multipliers for each predicted winner on battleID as
// totalPool * HouseCut / sidePool, rounded to two places. When the battle has
// been recorded both of its agents are quoted even if nobody backed them.
func (l *Ledger) Odds(ctx context.Context, battleID string) (*BattleOdds, error) {
	bets, err := l.BetsForBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}

	var order []models.Identity
	pools := make(map[models.Identity]*SideOdds)
	side := func(id models.Identity) *SideOdds {
		if s, ok := pools[id]; ok {
			return s
		}
		s := &SideOdds{PredictedWinner: id, Pool: decimal.Zero}
		pools[id] = s
		order = append(order, id)
		return s
	}

	battle, err := l.GetBattle(ctx, battleID)
	switch {
	case err == nil:
		side(models.Identity(battle.Challenger))
		side(models.Identity(battle.Defender))
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	fixed := len(order)

	total := decimal.Zero
	for i := range bets {
		amount := amountDecimal(bets[i].Amount)
		s := side(bets[i].PredictedWinner)
		s.Pool = s.Pool.Add(amount)
		s.Bets++
		total = total.Add(amount)
	}

	rest := order[fixed:]
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })

	odds := &BattleOdds{BattleID: battleID, TotalPool: total, Sides: make([]SideOdds, 0, len(order))}
	for _, id := range order {
		s := pools[id]
		s.Odds = quote(total, s.Pool)
		odds.Sides = append(odds.Sides, *s)
	}
	return odds, nil
}

func quote(total, sidePool decimal.Decimal) decimal.Decimal {
	if sidePool.IsZero() {
		return EmptySideOdds.Round(2)
	}
	return total.Mul(HouseCut).Div(sidePool).Round(2)
}

// amountDecimal keeps the full uint64 range, which int64 constructors would not.
func amountDecimal(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
}
