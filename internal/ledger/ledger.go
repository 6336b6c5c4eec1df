// Package ledger applies registration, battle and bet events to the store.
//
// Each operation validates its inputs, then performs all reads and writes in
// a single store transaction: either every record it touches is updated or
// none is. Uniqueness comes from creating records at derived locations
// (package keys); a populated location fails the whole event with
// ErrDuplicateKey.
package ledger

import (
	"fmt"
	"log"
	"time"

	"arena-ledger/internal/audit"
	"arena-ledger/internal/elo"
	"arena-ledger/internal/eventbus"
	"arena-ledger/internal/keys"
	"arena-ledger/internal/metrics"
	"arena-ledger/internal/models"
	"arena-ledger/internal/store"
)

// Publisher receives an event after its transaction has committed.
type Publisher interface {
	Publish(event eventbus.Event)
}

type Ledger struct {
	store      store.Store
	calculator *elo.Calculator
	audit      *audit.Logger
	publisher  Publisher
	now        func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithAuditLogger(a *audit.Logger) Option {
	return func(l *Ledger) { l.audit = a }
}

func New(st store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:      st,
		calculator: elo.NewCalculator(),
		audit:      audit.NewLogger(nil),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// timestamp truncates to milliseconds so every backend round-trips it exactly.
func (l *Ledger) timestamp() time.Time {
	return l.now().UTC().Truncate(time.Millisecond)
}

func (l *Ledger) observe(operation string, started time.Time, err error) {
	metrics.ObserveOperation(operation, Code(err), started)
}

// emit writes the diagnostic line and publishes the event. Neither affects
// the outcome of the operation.
func (l *Ledger) emit(operation string, caller models.Identity, key keys.Location, message, eventType, battleID string, payload any) {
	l.audit.Record(operation, caller, key, message)
	if l.publisher == nil {
		return
	}
	event, err := eventbus.NewEvent(eventType, battleID, key, payload)
	if err != nil {
		log.Printf("[Ledger] Failed to build %s event: %v", eventType, err)
		return
	}
	l.publisher.Publish(event)
}

// validateName bounds the name's length in bytes, the same unit used for
// key seeds.
func validateName(name string) error {
	n := len(name)
	if n > models.MaxNameLength {
		return ErrNameTooLong
	}
	if n < models.MinNameLength {
		return ErrNameTooShort
	}
	return nil
}

// validateSeed checks an identifier used as a key seed.
func validateSeed(field, value string, max int) error {
	if value == "" || len(value) > max {
		return fmt.Errorf("%w: %s must be 1-%d bytes, got %d", ErrInvalidArgument, field, max, len(value))
	}
	return nil
}
