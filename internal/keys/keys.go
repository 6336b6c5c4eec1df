// Package keys derives the storage location of every ledger record.
//
// A location is a pure function of a namespace tag and seed bytes, so no
// central index is needed: creating a record at an already populated
// location is how uniqueness violations are detected.
package keys

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Namespaces for each record type.
const (
	NamespaceRegistry = "arena"
	NamespaceAgent    = "agent"
	NamespaceBattle   = "battle"
	NamespaceBet      = "bet"
)

// Location is the hex encoded blake2b-256 digest of a namespace and its seeds.
type Location string

// Derive hashes the namespace and seeds into a Location. Every part is
// length-prefixed so that different splits of the same bytes never collide.
func Derive(namespace string, seeds ...[]byte) Location {
	h, _ := blake2b.New256(nil)
	var prefix [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(prefix[:], uint64(len(namespace)))
	h.Write(prefix[:n])
	h.Write([]byte(namespace))

	for _, seed := range seeds {
		n = binary.PutUvarint(prefix[:], uint64(len(seed)))
		h.Write(prefix[:n])
		h.Write(seed)
	}
	return Location(hex.EncodeToString(h.Sum(nil)))
}

// Registry returns the fixed location of the singleton registry.
func Registry() Location {
	return Derive(NamespaceRegistry)
}

func Agent(externalID string) Location {
	return Derive(NamespaceAgent, []byte(externalID))
}

func Battle(battleID string) Location {
	return Derive(NamespaceBattle, []byte(battleID))
}

// Bet is keyed by the (battle, bettor) pair.
func Bet(battleID string, bettor string) Location {
	return Derive(NamespaceBet, []byte(battleID), []byte(bettor))
}

// Parse validates a hex location received from outside the process.
func Parse(s string) (Location, error) {
	if len(s) != blake2b.Size256*2 {
		return "", fmt.Errorf("invalid location length %d", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid location: %w", err)
	}
	return Location(strings.ToLower(s)), nil
}

// AgentRef resolves a client supplied agent reference: a 64 character hex
// location is used as is, anything else is treated as an external id.
func AgentRef(ref string) Location {
	if loc, err := Parse(ref); err == nil {
		return loc
	}
	return Agent(ref)
}

func (l Location) String() string {
	return string(l)
}

// Short returns an abbreviated form for log lines.
func (l Location) Short() string {
	if len(l) <= 12 {
		return string(l)
	}
	return string(l[:12])
}
