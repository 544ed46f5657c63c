// Package postgres resolves assets from PostgreSQL tables through a pgx
// connection pool. It serves fleets whose asset registry lives in SQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Taha-mlaiki/TrackTruck/asset"
)

var _ asset.Lookup = (*Lookup)(nil)

// Querier is the subset of pgxpool.Pool used by Lookup.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Lookup reads asset snapshots from the trucks, trailers and tires tables.
type Lookup struct {
	q Querier
}

// New creates a Lookup over q.
func New(q Querier) *Lookup {
	return &Lookup{q: q}
}

// Connect creates a pool for connStr, pings it and returns a Lookup over it.
func Connect(ctx context.Context, connStr string) (*Lookup, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, nil, fmt.Errorf("tracktruck/asset/postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("tracktruck/asset/postgres: ping: %w", err)
	}
	return New(pool), pool, nil
}

const (
	selectTruck = `SELECT id, plate_number, model_name, make, year, odometer_km, fuel_capacity, is_active, updated_at
FROM trucks WHERE id = $1`
	selectTrailer = `SELECT id, plate_number, type, status, mileage, updated_at
FROM trailers WHERE id = $1`
	selectTire = `SELECT id, serial_number, wear_level, status, position, COALESCE(assigned_to, ''), COALESCE(assigned_type, ''), updated_at
FROM tires WHERE id = $1`
)

func (l *Lookup) FindTruck(ctx context.Context, truckID string) (*asset.Truck, error) {
	var t asset.Truck
	err := l.q.QueryRow(ctx, selectTruck, truckID).Scan(
		&t.ID, &t.PlateNumber, &t.ModelName, &t.Make, &t.Year,
		&t.OdometerKm, &t.FuelCapacity, &t.IsActive, &t.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("truck", truckID, err)
	}
	return &t, nil
}

func (l *Lookup) FindTrailer(ctx context.Context, trailerID string) (*asset.Trailer, error) {
	var t asset.Trailer
	var status string
	err := l.q.QueryRow(ctx, selectTrailer, trailerID).Scan(
		&t.ID, &t.PlateNumber, &t.Type, &status, &t.Mileage, &t.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("trailer", trailerID, err)
	}
	t.Status = asset.TrailerStatus(status)
	return &t, nil
}

func (l *Lookup) FindTire(ctx context.Context, tireID string) (*asset.Tire, error) {
	var t asset.Tire
	var status string
	err := l.q.QueryRow(ctx, selectTire, tireID).Scan(
		&t.ID, &t.SerialNumber, &t.WearLevel, &status, &t.Position,
		&t.AssignedTo, &t.AssignedType, &t.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("tire", tireID, err)
	}
	t.Status = asset.TireStatus(status)
	return &t, nil
}

// invalidTextRepresentation is raised when an id cannot be cast to the
// column type, e.g. a non-uuid string against a uuid key.
const invalidTextRepresentation = "22P02"

func wrapErr(kind, assetID string, err error) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) ||
		(errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation) {
		return fmt.Errorf("%s %s: %w", kind, assetID, asset.ErrNotFound)
	}
	return fmt.Errorf("tracktruck/asset/postgres: find %s: %w", kind, err)
}
