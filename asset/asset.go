// Package asset defines read-only snapshots of trucks, trailers and tires and
// the Lookup capability the maintenance engine uses to resolve them.
//
// Snapshot is a closed set: only *Truck, *Trailer and *Tire implement it.
// Code that dispatches on a snapshot should switch over those three types.
package asset

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by lookups when no asset has the given id.
	ErrNotFound = errors.New("asset: not found")

	// ErrUnknownKind is returned by Find for a kind outside truck/trailer/tire.
	ErrUnknownKind = errors.New("asset: unknown kind")
)

// Kind identifies an asset collection.
type Kind string

const (
	KindTruck   Kind = "truck"
	KindTrailer Kind = "trailer"
	KindTire    Kind = "tire"
)

// Snapshot is the current state of one asset.
type Snapshot interface {
	Kind() Kind
	// AssetID is the id the asset is stored under.
	AssetID() string
	// Label is the plate number for trucks and trailers, the serial number for tires.
	Label() string
	// Measure is odometer km, trailer mileage or tire wear level.
	Measure() float64

	sealed()
}

// Truck is a truck snapshot.
type Truck struct {
	ID           string    `json:"id" bson:"_id"`
	PlateNumber  string    `json:"plateNumber" bson:"plateNumber"`
	ModelName    string    `json:"modelName,omitempty" bson:"modelName,omitempty"`
	Make         string    `json:"make,omitempty" bson:"make,omitempty"`
	Year         int       `json:"year,omitempty" bson:"year,omitempty"`
	OdometerKm   float64   `json:"odometerKm" bson:"odometerKm"`
	FuelCapacity float64   `json:"fuelCapacity,omitempty" bson:"fuelCapacity,omitempty"`
	IsActive     bool      `json:"isActive" bson:"isActive"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

func (t *Truck) Kind() Kind { return KindTruck }
func (t *Truck) AssetID() string { return t.ID }
func (t *Truck) Label() string { return t.PlateNumber }
func (t *Truck) Measure() float64 { return t.OdometerKm }
func (*Truck) sealed() {}

// TrailerStatus is the availability of a trailer.
type TrailerStatus string

const (
	TrailerAvailable   TrailerStatus = "available"
	TrailerInUse       TrailerStatus = "in_use"
	TrailerMaintenance TrailerStatus = "maintenance"
)

// Trailer is a trailer snapshot.
type Trailer struct {
	ID          string        `json:"id" bson:"_id"`
	PlateNumber string        `json:"plateNumber" bson:"plateNumber"`
	Type        string        `json:"type,omitempty" bson:"type,omitempty"`
	Status      TrailerStatus `json:"status,omitempty" bson:"status,omitempty"`
	Mileage     float64       `json:"mileage" bson:"mileage"`
	UpdatedAt   time.Time     `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

func (t *Trailer) Kind() Kind { return KindTrailer }
func (t *Trailer) AssetID() string { return t.ID }
func (t *Trailer) Label() string { return t.PlateNumber }
func (t *Trailer) Measure() float64 { return t.Mileage }
func (*Trailer) sealed() {}

// TireStatus is the lifecycle state of a tire.
type TireStatus string

const (
	TireNew     TireStatus = "new"
	TireInUse   TireStatus = "in_use"
	TireWornOut TireStatus = "worn_out"
)

// Tire is a tire snapshot. WearLevel is a percentage in [0, 100].
type Tire struct {
	ID           string     `json:"id" bson:"_id"`
	SerialNumber string     `json:"serialNumber" bson:"serialNumber"`
	WearLevel    float64    `json:"wearLevel" bson:"wearLevel"`
	Status       TireStatus `json:"status,omitempty" bson:"status,omitempty"`
	Position     string     `json:"position,omitempty" bson:"position,omitempty"`
	AssignedTo   string     `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	AssignedType string     `json:"assignedType,omitempty" bson:"assignedType,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

func (t *Tire) Kind() Kind { return KindTire }
func (t *Tire) AssetID() string { return t.ID }
func (t *Tire) Label() string { return t.SerialNumber }
func (t *Tire) Measure() float64 { return t.WearLevel }
func (*Tire) sealed() {}
