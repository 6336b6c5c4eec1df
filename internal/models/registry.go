package models

import (
	"time"

	"arena-ledger/internal/keys"
)

// Identity is an authenticated caller. The ledger only compares identities
// for equality and uses their bytes as key seeds.
type Identity string

// Registry holds the global counters. Exactly one exists per deployment,
// stored at keys.Registry().
type Registry struct {
	Key           keys.Location `json:"key" bson:"_id"`
	Administrator Identity      `json:"administrator" bson:"administrator"`
	TotalBattles  uint64        `json:"totalBattles" bson:"totalBattles"`
	TotalAgents   uint64        `json:"totalAgents" bson:"totalAgents"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}
