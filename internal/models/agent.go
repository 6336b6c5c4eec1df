package models

import (
	"time"

	"arena-ledger/internal/keys"
)

// Agent stores rating and win/loss stats for a competitor, keyed by
// keys.Agent(ExternalID).
type Agent struct {
	Key          keys.Location `json:"key" bson:"_id"`
	Owner        Identity      `json:"owner" bson:"owner"`
	Name         string        `json:"name" bson:"name"`
	ExternalID   string        `json:"externalId" bson:"externalId"`
	Rating       uint32        `json:"rating" bson:"rating"`
	Wins         uint32        `json:"wins" bson:"wins"`
	Losses       uint32        `json:"losses" bson:"losses"`
	TotalBattles uint32        `json:"totalBattles" bson:"totalBattles"`
	RegisteredAt time.Time     `json:"registeredAt" bson:"registeredAt"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Default values
const (
	MinNameLength    = 2
	MaxNameLength    = 50
	MaxExternalIDLen = 64
)

// WinRate is the share of decided battles won, as a rounded percentage.
// Draws are not counted.
func (a *Agent) WinRate() int {
	decided := uint64(a.Wins) + uint64(a.Losses)
	if decided == 0 {
		return 0
	}
	return int((uint64(a.Wins)*100 + decided/2) / decided)
}
