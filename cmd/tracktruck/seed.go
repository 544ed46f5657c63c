package main

import (
	"github.com/Taha-mlaiki/TrackTruck/asset"
	assetmem "github.com/Taha-mlaiki/TrackTruck/asset/memory"
)

// seedAssets loads a small demo fleet for the in-memory asset driver.
func seedAssets(l *assetmem.Lookup) {
	l.PutTruck(asset.Truck{ID: "truck-1", PlateNumber: "12345-A-6", Make: "Volvo", ModelName: "FH16", Year: 2019, OdometerKm: 182400, IsActive: true})
	l.PutTruck(asset.Truck{ID: "truck-2", PlateNumber: "67890-B-1", Make: "Scania", ModelName: "R450", Year: 2022, OdometerKm: 48150, IsActive: true})
	l.PutTrailer(asset.Trailer{ID: "trailer-1", PlateNumber: "T-4521", Type: "flatbed", Status: asset.TrailerAvailable, Mileage: 96300})
	l.PutTire(asset.Tire{ID: "tire-1", SerialNumber: "MCH-0001", WearLevel: 82, Status: asset.TireInUse, Position: "front-left", AssignedTo: "truck-1", AssignedType: "truck"})
	l.PutTire(asset.Tire{ID: "tire-2", SerialNumber: "MCH-0002", WearLevel: 15, Status: asset.TireNew})
}
