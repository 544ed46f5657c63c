package asset

import (
	"context"
	"fmt"
)

// Lookup resolves assets by id. Implementations return an error wrapping
// ErrNotFound when the asset does not exist. Find also treats a nil asset
// with a nil error as not found.
type Lookup interface {
	FindTruck(ctx context.Context, truckID string) (*Truck, error)
	FindTrailer(ctx context.Context, trailerID string) (*Trailer, error)
	FindTire(ctx context.Context, tireID string) (*Tire, error)
}

// Find dispatches to the Lookup method for kind.
func Find(ctx context.Context, l Lookup, kind Kind, assetID string) (Snapshot, error) {
	switch kind {
	case KindTruck:
		t, err := l.FindTruck(ctx, assetID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, notFound(kind, assetID)
		}
		return t, nil
	case KindTrailer:
		t, err := l.FindTrailer(ctx, assetID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, notFound(kind, assetID)
		}
		return t, nil
	case KindTire:
		t, err := l.FindTire(ctx, assetID)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, notFound(kind, assetID)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func notFound(kind Kind, assetID string) error {
	return fmt.Errorf("%s %s: %w", kind, assetID, ErrNotFound)
}
