package models

import (
	"time"

	"arena-ledger/internal/keys"
)

type BetStatus string

// Only BetStatusPending is ever written; settlement lives outside the ledger.
const (
	BetStatusPending  BetStatus = "pending"
	BetStatusWon      BetStatus = "won"
	BetStatusLost     BetStatus = "lost"
	BetStatusRefunded BetStatus = "refunded"
)

// Bet records a wager intent, keyed by keys.Bet(BattleID, Bettor).
// BattleID is free text and is not checked against recorded battles.
type Bet struct {
	Key             keys.Location `json:"key" bson:"_id"`
	Bettor          Identity      `json:"bettor" bson:"bettor"`
	BattleID        string        `json:"battleId" bson:"battleId"`
	PredictedWinner Identity      `json:"predictedWinner" bson:"predictedWinner"`
	Amount          uint64        `json:"amount" bson:"amount"` // smallest currency unit
	Status          BetStatus     `json:"status" bson:"status"`
	PlacedAt        time.Time     `json:"placedAt" bson:"placedAt"`
}
