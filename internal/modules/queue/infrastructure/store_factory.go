package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"queueWatch/internal/modules/queue/application/port"
)

const (
	StoreDriverBadger   = "badger"
	StoreDriverPostgres = "postgres"
)

// StoreOptions selects and configures a durable snapshot store.
type StoreOptions struct {
	Driver      string
	BadgerDir   string
	PostgresDSN string
}

// OpenSnapshotStore opens the store named by opts.Driver. Badger is the default.
func OpenSnapshotStore(ctx context.Context, opts StoreOptions) (port.SnapshotStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", StoreDriverBadger:
		store, err := OpenBadgerStore(opts.BadgerDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoreDriverPostgres:
		store, err := OpenPostgresStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
