package config

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// OpenBadger opens the embedded attempt database.
func OpenBadger(cfg BadgerConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}
