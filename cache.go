package tracktruck

import (
	"context"

	"github.com/Taha-mlaiki/TrackTruck/asset"
)

// Cache holds asset snapshots between lookups.
type Cache interface {
	// Get returns a cached snapshot, if available and not expired.
	Get(ctx context.Context, kind asset.Kind, assetID string) (asset.Snapshot, bool)

	// Set stores a snapshot in the cache.
	Set(ctx context.Context, snap asset.Snapshot)

	// Invalidate removes the cached snapshot of one asset.
	Invalidate(ctx context.Context, kind asset.Kind, assetID string)

	// Purge removes every cached snapshot.
	Purge(ctx context.Context)
}
