// Package memory provides an in-memory asset.Lookup for tests, demos and
// deployments that feed asset state from another process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Taha-mlaiki/TrackTruck/asset"
	"github.com/Taha-mlaiki/TrackTruck/id"
)

var _ asset.Lookup = (*Lookup)(nil)

// Lookup is a thread-safe in-memory asset registry.
type Lookup struct {
	mu       sync.RWMutex
	trucks   map[string]asset.Truck
	trailers map[string]asset.Trailer
	tires    map[string]asset.Tire
}

// New creates an empty registry.
func New() *Lookup {
	return &Lookup{
		trucks:   make(map[string]asset.Truck),
		trailers: make(map[string]asset.Trailer),
		tires:    make(map[string]asset.Tire),
	}
}

// PutTruck inserts or replaces a truck and returns its ID. A blank
// ID is replaced with a generated one.
func (l *Lookup) PutTruck(t asset.Truck) string {
	if t.ID == "" {
		t.ID = id.NewTruckID().String()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trucks[t.ID] = t
	return t.ID
}

// PutTrailer inserts or replaces a trailer and returns its ID. A blank
// ID is replaced with a generated one.
func (l *Lookup) PutTrailer(t asset.Trailer) string {
	if t.ID == "" {
		t.ID = id.NewTrailerID().String()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trailers[t.ID] = t
	return t.ID
}

// PutTire inserts or replaces a tire and returns its ID. A blank
// ID is replaced with a generated one.
func (l *Lookup) PutTire(t asset.Tire) string {
	if t.ID == "" {
		t.ID = id.NewTireID().String()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tires[t.ID] = t
	return t.ID
}

// Remove deletes an asset of any kind.
func (l *Lookup) Remove(kind asset.Kind, assetID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch kind {
	case asset.KindTruck:
		delete(l.trucks, assetID)
	case asset.KindTrailer:
		delete(l.trailers, assetID)
	case asset.KindTire:
		delete(l.tires, assetID)
	}
}

func (l *Lookup) FindTruck(_ context.Context, truckID string) (*asset.Truck, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.trucks[truckID]
	if !ok {
		return nil, fmt.Errorf("truck %s: %w", truckID, asset.ErrNotFound)
	}
	return &t, nil
}

func (l *Lookup) FindTrailer(_ context.Context, trailerID string) (*asset.Trailer, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.trailers[trailerID]
	if !ok {
		return nil, fmt.Errorf("trailer %s: %w", trailerID, asset.ErrNotFound)
	}
	return &t, nil
}

func (l *Lookup) FindTire(_ context.Context, tireID string) (*asset.Tire, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tires[tireID]
	if !ok {
		return nil, fmt.Errorf("tire %s: %w", tireID, asset.ErrNotFound)
	}
	return &t, nil
}
