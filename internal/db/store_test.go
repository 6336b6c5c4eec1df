package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"arena-ledger/internal/keys"
	"arena-ledger/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Key   keys.Location `json:"key" bson:"_id"`
	Name  string        `json:"name" bson:"name"`
	Count int           `json:"count" bson:"count"`
}

// openStores returns every backend available in this environment. MongoDB is
// included only when ARENA_TEST_MONGO_URI points at a replica set.
func openStores(t *testing.T) map[string]store.Store {
	stores := map[string]store.Store{}

	b, err := OpenBadgerInMemory()
	require.NoError(t, err)
	stores["badger"] = b

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	stores["sqlite"] = s

	if uri := os.Getenv("ARENA_TEST_MONGO_URI"); uri != "" {
		m, err := NewMongoDB(uri, "arena_test_"+keys.Derive("test", []byte(t.Name())).Short())
		require.NoError(t, err)
		t.Cleanup(func() { _ = m.Database.Drop(context.Background()) })
		stores["mongodb"] = m
	}

	for _, st := range stores {
		st := st
		t.Cleanup(func() { _ = st.Close(context.Background()) })
	}
	return stores
}

// TestStoreContract runs the same expectations against each backend.
func TestStoreContract(t *testing.T) {
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			loc := keys.Agent("contract")

			t.Run("get missing", func(t *testing.T) {
				err := st.View(ctx, func(ctx context.Context, tx store.Tx) error {
					var d doc
					return tx.Get(ctx, store.KindAgent, loc, &d)
				})
				assert.ErrorIs(t, err, store.ErrNotFound)
			})

			t.Run("put missing", func(t *testing.T) {
				err := st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
					return tx.Put(ctx, store.KindAgent, loc, &doc{Key: loc})
				})
				assert.ErrorIs(t, err, store.ErrNotFound)
			})

			t.Run("create then duplicate", func(t *testing.T) {
				err := st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
					return tx.Create(ctx, store.KindAgent, loc, &doc{Key: loc, Name: "first"})
				})
				require.NoError(t, err)

				err = st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
					return tx.Create(ctx, store.KindAgent, loc, &doc{Key: loc, Name: "second"})
				})
				assert.ErrorIs(t, err, store.ErrDuplicateKey)

				var d doc
				require.NoError(t, st.View(ctx, func(ctx context.Context, tx store.Tx) error {
					return tx.Get(ctx, store.KindAgent, loc, &d)
				}))
				assert.Equal(t, "first", d.Name)
			})

			t.Run("kinds are separate", func(t *testing.T) {
				err := st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
					return tx.Create(ctx, store.KindBattle, loc, &doc{Key: loc, Name: "battle"})
				})
				require.NoError(t, err)
			})

			t.Run("rollback on error", func(t *testing.T) {
				other := keys.Agent("rolled-back")
				boom := errors.New("boom")
				err := st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
					if err := tx.Create(ctx, store.KindAgent, other, &doc{Key: other}); err != nil {
						return err
					}
					if err := tx.Put(ctx, store.KindAgent, loc, &doc{Key: loc, Name: "changed"}); err != nil {
						return err
					}
					return boom
				})
				assert.ErrorIs(t, err, boom)

				err = st.View(ctx, func(ctx context.Context, tx store.Tx) error {
					var d doc
					if err := tx.Get(ctx, store.KindAgent, loc, &d); err != nil {
						return err
					}
					assert.Equal(t, "first", d.Name)
					return tx.Get(ctx, store.KindAgent, other, &d)
				})
				assert.ErrorIs(t, err, store.ErrNotFound)
			})

			t.Run("scan", func(t *testing.T) {
				extra := keys.Agent("scan-extra")
				require.NoError(t, st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
					return tx.Create(ctx, store.KindAgent, extra, &doc{Key: extra, Name: "extra"})
				}))

				var names []string
				err := st.Scan(ctx, store.KindAgent, func(l keys.Location, decode store.DecodeFunc) error {
					var d doc
					if err := decode(&d); err != nil {
						return err
					}
					assert.Equal(t, l, d.Key)
					names = append(names, d.Name)
					return nil
				})
				require.NoError(t, err)
				sort.Strings(names)
				assert.Equal(t, []string{"extra", "first"}, names)

				seen := 0
				err = st.Scan(ctx, store.KindAgent, func(keys.Location, store.DecodeFunc) error {
					seen++
					return store.ErrStopScan
				})
				require.NoError(t, err)
				assert.Equal(t, 1, seen)
			})

			t.Run("concurrent increments", func(t *testing.T) {
				counter := keys.Registry()
				require.NoError(t, st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
					return tx.Create(ctx, store.KindRegistry, counter, &doc{Key: counter})
				}))

				const workers = 64
				var wg sync.WaitGroup
				for i := 0; i < workers; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						err := st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
							var d doc
							if err := tx.Get(ctx, store.KindRegistry, counter, &d); err != nil {
								return err
							}
							d.Count++
							return tx.Put(ctx, store.KindRegistry, counter, &d)
						})
						assert.NoError(t, err)
					}()
				}
				wg.Wait()

				var d doc
				require.NoError(t, st.View(ctx, func(ctx context.Context, tx store.Tx) error {
					return tx.Get(ctx, store.KindRegistry, counter, &d)
				}))
				assert.Equal(t, workers, d.Count)
			})
		})
	}
}

// TestBadgerPersists verifies data survives a reopen on disk.
func TestBadgerPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	loc := keys.Battle("persisted")

	cfg := DefaultBadgerConfig(dir)
	cfg.GCInterval = 0
	st, err := OpenBadger(cfg)
	require.NoError(t, err)
	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Create(ctx, store.KindBattle, loc, &doc{Key: loc, Name: "kept"})
	}))
	require.NoError(t, st.Close(ctx))

	st, err = OpenBadger(cfg)
	require.NoError(t, err)
	defer st.Close(ctx)

	var d doc
	require.NoError(t, st.View(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Get(ctx, store.KindBattle, loc, &d)
	}))
	assert.Equal(t, "kept", d.Name)
}
