package models

import (
	"fmt"
	"time"

	"arena-ledger/internal/keys"
)

type BattleType string

const (
	BattleTypeReasoning BattleType = "reasoning"
	BattleTypeDebate    BattleType = "debate"
	BattleTypeSpeed     BattleType = "speed"
	BattleTypeStrategy  BattleType = "strategy"
)

// BattleTypes lists every battle type in display order.
var BattleTypes = []BattleType{BattleTypeReasoning, BattleTypeDebate, BattleTypeSpeed, BattleTypeStrategy}

func ParseBattleType(s string) (BattleType, error) {
	for _, t := range BattleTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown battle type %q", s)
}

type WinnerSide string

const (
	WinnerChallenger WinnerSide = "challenger"
	WinnerDefender   WinnerSide = "defender"
	WinnerDraw       WinnerSide = "draw"
)

func ParseWinnerSide(s string) (WinnerSide, error) {
	switch WinnerSide(s) {
	case WinnerChallenger, WinnerDefender, WinnerDraw:
		return WinnerSide(s), nil
	}
	return "", fmt.Errorf("unknown winner side %q", s)
}

const MaxBattleIDLen = 64

// Battle is written once per battle id and never updated.
type Battle struct {
	Key             keys.Location  `json:"key" bson:"_id"`
	BattleID        string         `json:"battleId" bson:"battleId"`
	Challenger      keys.Location  `json:"challenger" bson:"challenger"`
	Defender        keys.Location  `json:"defender" bson:"defender"`
	BattleType      BattleType     `json:"battleType" bson:"battleType"`
	WinnerSide      WinnerSide     `json:"winnerSide" bson:"winnerSide"`
	Winner          *keys.Location `json:"winner,omitempty" bson:"winner,omitempty"` // nil on a draw
	ChallengerScore uint32         `json:"challengerScore" bson:"challengerScore"`
	DefenderScore   uint32         `json:"defenderScore" bson:"defenderScore"`
	Rounds          uint8          `json:"rounds" bson:"rounds"`
	EloChange       uint32         `json:"eloChange" bson:"eloChange"`
	RecordedBy      Identity       `json:"recordedBy" bson:"recordedBy"`
	Timestamp       time.Time      `json:"timestamp" bson:"timestamp"`
}
