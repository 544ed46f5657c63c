// Package mongo resolves assets from the fleet MongoDB database, reading the
// trucks, trailers and tires collections in their camelCase document layout.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Taha-mlaiki/TrackTruck/asset"
)

// Collection name constants.
const (
	colTrucks   = "trucks"
	colTrailers = "trailers"
	colTires    = "tires"
)

var _ asset.Lookup = (*Lookup)(nil)

// Lookup reads asset snapshots from MongoDB.
type Lookup struct {
	db *mongod.Database
}

// New creates a Lookup over db.
func New(db *mongod.Database) *Lookup {
	return &Lookup{db: db}
}

// Connect opens a client for uri and returns a Lookup over database.
// Close the returned client when done.
func Connect(ctx context.Context, uri, database string) (*Lookup, *mongod.Client, error) {
	client, err := mongod.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("tracktruck/asset/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("tracktruck/asset/mongo: ping: %w", err)
	}
	return New(client.Database(database)), client, nil
}

type truckDoc struct {
	ID           bson.ObjectID `bson:"_id"`
	PlateNumber  string        `bson:"plateNumber"`
	ModelName    string        `bson:"modelName"`
	Make         string        `bson:"make"`
	Year         int           `bson:"year"`
	OdometerKm   float64       `bson:"odometerKm"`
	FuelCapacity float64       `bson:"fuelCapacity"`
	IsActive     bool          `bson:"isActive"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

type trailerDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	PlateNumber string        `bson:"plateNumber"`
	Type        string        `bson:"type"`
	Status      string        `bson:"status"`
	Mileage     float64       `bson:"mileage"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

type tireDoc struct {
	ID           bson.ObjectID  `bson:"_id"`
	SerialNumber string         `bson:"serialNumber"`
	WearLevel    float64        `bson:"wearLevel"`
	Status       string         `bson:"status"`
	Position     string         `bson:"position"`
	AssignedTo   *bson.ObjectID `bson:"assignedTo"`
	AssignedType string         `bson:"assignedType"`
	UpdatedAt    time.Time      `bson:"updatedAt"`
}

func (l *Lookup) FindTruck(ctx context.Context, truckID string) (*asset.Truck, error) {
	var d truckDoc
	if err := l.findOne(ctx, colTrucks, truckID, &d); err != nil {
		return nil, err
	}
	return &asset.Truck{
		ID:           d.ID.Hex(),
		PlateNumber:  d.PlateNumber,
		ModelName:    d.ModelName,
		Make:         d.Make,
		Year:         d.Year,
		OdometerKm:   d.OdometerKm,
		FuelCapacity: d.FuelCapacity,
		IsActive:     d.IsActive,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func (l *Lookup) FindTrailer(ctx context.Context, trailerID string) (*asset.Trailer, error) {
	var d trailerDoc
	if err := l.findOne(ctx, colTrailers, trailerID, &d); err != nil {
		return nil, err
	}
	return &asset.Trailer{
		ID:          d.ID.Hex(),
		PlateNumber: d.PlateNumber,
		Type:        d.Type,
		Status:      asset.TrailerStatus(d.Status),
		Mileage:     d.Mileage,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func (l *Lookup) FindTire(ctx context.Context, tireID string) (*asset.Tire, error) {
	var d tireDoc
	if err := l.findOne(ctx, colTires, tireID, &d); err != nil {
		return nil, err
	}
	t := &asset.Tire{
		ID:           d.ID.Hex(),
		SerialNumber: d.SerialNumber,
		WearLevel:    d.WearLevel,
		Status:       asset.TireStatus(d.Status),
		Position:     d.Position,
		AssignedType: d.AssignedType,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.AssignedTo != nil {
		t.AssignedTo = d.AssignedTo.Hex()
	}
	return t, nil
}

// findOne decodes the document with the given hex id. A malformed id cannot
// match any document, so it is reported as not found.
func (l *Lookup) findOne(ctx context.Context, col, hexID string, out any) error {
	oid, err := bson.ObjectIDFromHex(hexID)
	if err != nil {
		return fmt.Errorf("%s %q: %w", col, hexID, asset.ErrNotFound)
	}
	err = l.db.Collection(col).FindOne(ctx, bson.M{"_id": oid}).Decode(out)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return fmt.Errorf("%s %s: %w", col, hexID, asset.ErrNotFound)
		}
		return fmt.Errorf("tracktruck/asset/mongo: find %s: %w", col, err)
	}
	return nil
}
