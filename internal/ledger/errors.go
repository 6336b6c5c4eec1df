package ledger

import (
	"errors"

	"arena-ledger/internal/store"
)

// Every ledger error is terminal for the event that triggered it; no state
// changes once any of these is returned.
var (
	// ErrDuplicateKey means a create targeted an already populated location.
	ErrDuplicateKey = store.ErrDuplicateKey
	// ErrNotFound means a referenced record (registry, agent, battle) is absent.
	ErrNotFound = store.ErrNotFound

	ErrNameTooLong     = errors.New("name must be at most 50 bytes")
	ErrNameTooShort    = errors.New("name must be at least 2 bytes")
	ErrInvalidArgument = errors.New("invalid argument")

	// Declared for callers that enforce these rules; no ledger operation
	// returns them.
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBattleCompleted    = errors.New("battle already completed")
	ErrInvalidBattleState = errors.New("invalid battle state")
)

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNameTooLong):
		return "name_too_long"
	case errors.Is(err, ErrNameTooShort):
		return "name_too_short"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrBattleCompleted):
		return "battle_completed"
	case errors.Is(err, ErrInvalidBattleState):
		return "invalid_battle_state"
	default:
		return "internal"
	}
}
