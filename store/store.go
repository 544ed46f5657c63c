// Package store defines the aggregate persistence interface. The maintenance
// and alertlog packages each define their own store interface and the
// composite Store composes them. Backends: Memory, MongoDB, Postgres, SQLite.
package store

import (
	"context"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
)

// Store is the aggregate persistence interface. A single backend implements
// all of it.
type Store interface {
	maintenance.Store
	alertlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
