// Package store defines the storage contract the ledger is written against.
//
// Records are addressed by keys.Location within a Kind. Backends provide an
// insert-if-absent primitive (Tx.Create) and all-or-nothing transactions
// (Store.Update); the ledger relies on nothing else.
package store

import (
	"context"
	"errors"

	"arena-ledger/internal/keys"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("derived location already in use")
)

type Kind string

const (
	KindRegistry Kind = "registry"
	KindAgent    Kind = "agents"
	KindBattle   Kind = "battles"
	KindBet      Kind = "bets"
)

// Kinds lists every record kind.
var Kinds = []Kind{KindRegistry, KindAgent, KindBattle, KindBet}

// Tx is the view of the store inside one transaction.
type Tx interface {
	// Get decodes the record at loc into out, or returns ErrNotFound.
	Get(ctx context.Context, kind Kind, loc keys.Location, out any) error
	// Create writes doc at loc only if loc is empty, else ErrDuplicateKey.
	Create(ctx context.Context, kind Kind, loc keys.Location, doc any) error
	// Put overwrites the existing record at loc, or returns ErrNotFound.
	Put(ctx context.Context, kind Kind, loc keys.Location, doc any) error
}

// DecodeFunc decodes the current record during a Scan.
type DecodeFunc func(out any) error

type Store interface {
	// Update runs fn atomically. If fn or the commit fails nothing persists.
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Scan calls fn for every record of kind, in unspecified order.
	Scan(ctx context.Context, kind Kind, fn func(loc keys.Location, decode DecodeFunc) error) error
	Close(ctx context.Context) error
}

// ErrStopScan can be returned from a Scan callback to end iteration early.
var ErrStopScan = errors.New("stop scan")
