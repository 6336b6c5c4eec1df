package elo

import (
	"math"
)

type GameResult int

const (
	Loss GameResult = 0
	Draw GameResult = 1
	Win  GameResult = 2
)

const (
	// Fixed K-factor applied to every battle
	KFactor = 32

	// Initial rating for newly registered agents
	InitialRating = 1000
)

type Calculator struct {
	kFactor float64
}

func NewCalculator() *Calculator {
	return &Calculator{kFactor: KFactor}
}

// RatingChange returns the points the winner gains and the loser gives up.
// winnerRating, loserRating: pre-battle ratings
// The result is always in [0, K].
func (c *Calculator) RatingChange(winnerRating, loserRating uint32) uint32 {
	expected := c.calculateExpectedScore(winnerRating, loserRating)

	// ΔR = K × (1 - E)
	change := math.Round(c.kFactor * (1.0 - expected))
	if change < 0 {
		return 0
	}
	if change > c.kFactor {
		return uint32(c.kFactor)
	}
	return uint32(change)
}

// Apply transfers change points from loser to winner, saturating at the
// uint32 bounds. Returns (winnerNew, loserNew).
func (c *Calculator) Apply(winnerRating, loserRating, change uint32) (uint32, uint32) {
	return SaturatingAdd(winnerRating, change), SaturatingSub(loserRating, change)
}

// calculateExpectedScore calculates the expected score using the Elo formula
// E = 1 / (1 + 10^((OpponentRating - PlayerRating) / 400))
func (c *Calculator) calculateExpectedScore(playerRating, opponentRating uint32) float64 {
	exponent := (float64(opponentRating) - float64(playerRating)) / 400.0
	return 1.0 / (1.0 + math.Pow(10, exponent))
}

// SaturatingAdd returns a+b clamped to math.MaxUint32.
func SaturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// SaturatingSub returns a-b floored at zero.
func SaturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingInc adds one to a counter without wrapping.
func SaturatingInc(n uint32) uint32 {
	return SaturatingAdd(n, 1)
}

// SaturatingInc64 is SaturatingInc for the registry's 64-bit counters.
func SaturatingInc64(n uint64) uint64 {
	if n == math.MaxUint64 {
		return n
	}
	return n + 1
}

// GetGameResultsFromWinner converts a winner side to results for both agents.
// Returns (challengerResult, defenderResult)
func GetGameResultsFromWinner(winnerSide string) (GameResult, GameResult) {
	switch winnerSide {
	case "challenger":
		return Win, Loss
	case "defender":
		return Loss, Win
	default: // draw
		return Draw, Draw
	}
}
