package db

import (
	"fmt"

	"arena-ledger/internal/config"
	"arena-ledger/internal/store"
)

// Open connects the store selected by cfg.Store.Driver. The *MongoDB is
// non-nil only for the mongodb driver, whose extra collections back the
// event bus and audit log.
func Open(cfg *config.Config) (store.Store, *MongoDB, error) {
	switch cfg.Store.Driver {
	case config.StoreMongoDB:
		mongodb, err := NewMongoDB(cfg.Store.URI, cfg.Store.Database)
		if err != nil {
			return nil, nil, err
		}
		return mongodb, mongodb, nil
	case config.StoreBadger:
		s, err := OpenBadger(DefaultBadgerConfig(cfg.Store.Path))
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.StoreSQLite:
		s, err := OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
