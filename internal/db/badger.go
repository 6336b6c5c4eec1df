package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"arena-ledger/internal/keys"
	"arena-ledger/internal/store"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig holds configuration for an embedded BadgerDB store.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Used by tests.
	InMemory bool

	SyncWrites bool

	// GCInterval is how often to run value log garbage collection.
	// Zero disables GC.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// BadgerStore implements store.Store on BadgerDB. Keys are "<kind>/<location>"
// and values are JSON documents. Writers are serialised: every registration
// and battle updates the registry record, so optimistic transactions would
// otherwise conflict on it under load.
type BadgerStore struct {
	db      *badger.DB
	writeMu sync.Mutex
	stopGC chan struct{}
	gcDone chan struct{}
}

// badgerLogger routes BadgerDB warnings and errors to the standard logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[Badger] ERROR "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Printf("[Badger] WARN "+format, args...)
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &BadgerStore{db: bdb}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// OpenBadgerInMemory opens a throwaway store. Data is lost when closed.
func OpenBadgerInMemory() (*BadgerStore, error) {
	return OpenBadger(BadgerConfig{InMemory: true})
}

func (s *BadgerStore) runGC(interval time.Duration, ratio float64) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			// RunValueLogGC returns ErrNoRewrite when there is nothing to collect
			for s.db.RunValueLogGC(ratio) == nil {
			}
		}
	}
}

func (s *BadgerStore) Close(ctx context.Context) error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.gcDone
	}
	return s.db.Close()
}

func badgerKey(kind store.Kind, loc keys.Location) []byte {
	return []byte(string(kind) + "/" + string(loc))
}

// Update runs fn in a read-write transaction. Only one Update runs at a
// time, so commits do not race each other; an ErrConflict still re-runs fn
// until ctx ends.
func (s *BadgerStore) Update(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			return fn(ctx, badgerTx{txn: txn})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

func (s *BadgerStore) View(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(ctx, badgerTx{txn: txn})
	})
}

func (s *BadgerStore) Scan(ctx context.Context, kind store.Kind, fn func(loc keys.Location, decode store.DecodeFunc) error) error {
	prefix := []byte(string(kind) + "/")
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			loc := keys.Location(item.Key()[len(prefix):])
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s %s: %w", kind, loc.Short(), err)
			}
			err = fn(loc, func(out any) error {
				return json.Unmarshal(val, out)
			})
			if errors.Is(err, store.ErrStopScan) {
				return nil
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

type badgerTx struct {
	txn *badger.Txn
}

func (t badgerTx) Get(_ context.Context, kind store.Kind, loc keys.Location, out any) error {
	item, err := t.txn.Get(badgerKey(kind, loc))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func (t badgerTx) exists(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (t badgerTx) Create(_ context.Context, kind store.Kind, loc keys.Location, doc any) error {
	key := badgerKey(kind, loc)
	found, err := t.exists(key)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrDuplicateKey)
	}
	return t.set(key, doc)
}

func (t badgerTx) Put(_ context.Context, kind store.Kind, loc keys.Location, doc any) error {
	key := badgerKey(kind, loc)
	found, err := t.exists(key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrNotFound)
	}
	return t.set(key, doc)
}

func (t badgerTx) set(key []byte, doc any) error {
	val, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return t.txn.Set(key, val)
}
