package elo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingChange(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name   string
		winner uint32
		loser  uint32
		want   uint32
	}{
		{"equal ratings", 1000, 1000, 16},
		{"underdog wins", 1000, 1200, 24},
		{"favourite wins", 1200, 1000, 8},
		{"huge upset", 100, 2400, 32},
		{"expected stomp", 2400, 100, 0},
		{"zero ratings", 0, 0, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.RatingChange(tt.winner, tt.loser))
		})
	}
}

// TestRatingChangeBounds sweeps rating pairs and checks the delta stays in [0, K].
func TestRatingChangeBounds(t *testing.T) {
	c := NewCalculator()
	for w := uint32(0); w <= 3000; w += 250 {
		for l := uint32(0); l <= 3000; l += 250 {
			change := c.RatingChange(w, l)
			assert.LessOrEqual(t, change, uint32(KFactor), "winner=%d loser=%d", w, l)
		}
	}
	assert.LessOrEqual(t, c.RatingChange(math.MaxUint32, 0), uint32(KFactor))
	assert.LessOrEqual(t, c.RatingChange(0, math.MaxUint32), uint32(KFactor))
}

func TestApply(t *testing.T) {
	c := NewCalculator()

	w, l := c.Apply(1000, 1000, 16)
	assert.Equal(t, uint32(1016), w)
	assert.Equal(t, uint32(984), l)

	w, l = c.Apply(1000, 10, 16)
	assert.Equal(t, uint32(1016), w)
	assert.Equal(t, uint32(0), l)

	w, _ = c.Apply(math.MaxUint32-1, 1000, 16)
	assert.Equal(t, uint32(math.MaxUint32), w)
}

func TestExpectedScore(t *testing.T) {
	c := NewCalculator()
	assert.InDelta(t, 0.5, c.calculateExpectedScore(1000, 1000), 1e-9)
	assert.InDelta(t, 0.2403, c.calculateExpectedScore(1000, 1200), 1e-4)
	assert.InDelta(t, 1.0, c.calculateExpectedScore(1000, 1200)+c.calculateExpectedScore(1200, 1000), 1e-9)
}

func TestSaturatingCounters(t *testing.T) {
	assert.Equal(t, uint32(1), SaturatingInc(0))
	assert.Equal(t, uint32(math.MaxUint32), SaturatingInc(math.MaxUint32))
	assert.Equal(t, uint64(math.MaxUint64), SaturatingInc64(math.MaxUint64))
	assert.Equal(t, uint32(0), SaturatingSub(3, 5))
	assert.Equal(t, uint32(math.MaxUint32), SaturatingAdd(math.MaxUint32, 1))
}

func TestGetGameResultsFromWinner(t *testing.T) {
	c, d := GetGameResultsFromWinner("challenger")
	assert.Equal(t, Win, c)
	assert.Equal(t, Loss, d)

	c, d = GetGameResultsFromWinner("defender")
	assert.Equal(t, Loss, c)
	assert.Equal(t, Win, d)

	c, d = GetGameResultsFromWinner("draw")
	assert.Equal(t, Draw, c)
	assert.Equal(t, Draw, d)
}
