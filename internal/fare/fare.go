// Package fare computes journey price estimates from straight-line distance.
package fare

import (
	"errors"
	"fmt"
	"math"

	"ridehail/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// ErrUnknownVehicleType is returned for a vehicle type with no rate card.
var ErrUnknownVehicleType = errors.New("unknown vehicle type")

// Rate is the tariff of one vehicle type in rupees.
type Rate struct {
	Base  float64
	PerKm float64
}

var rates = map[domain.VehicleType]Rate{
	domain.VehicleTypeCar:             {Base: 50, PerKm: 12},
	domain.VehicleTypeBike:            {Base: 20, PerKm: 6},
	domain.VehicleTypeAuto:            {Base: 30, PerKm: 8},
	domain.VehicleTypeERickshaw:       {Base: 25, PerKm: 7},
	domain.VehicleTypeElectricScooter: {Base: 15, PerKm: 5},
}

// RateFor returns the tariff for a vehicle type.
func RateFor(v domain.VehicleType) (Rate, error) {
	r, ok := rates[v]
	if !ok {
		return Rate{}, fmt.Errorf("%w: %q", ErrUnknownVehicleType, v)
	}
	return r, nil
}

// Breakdown is an itemised fare.
type Breakdown struct {
	VehicleType  domain.VehicleType `json:"vehicleType"`
	DistanceKm   float64            `json:"distanceKm"`
	BaseFare     int                `json:"baseFare"`
	DistanceFare int                `json:"distanceFare"`
	Total        int                `json:"total"`
}

// Estimate returns round(base + perKm × haversine(pickup, dropoff)).
func Estimate(v domain.VehicleType, pickup, dropoff domain.Point) (int, error) {
	b, err := Quote(v, pickup, dropoff)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

// Quote returns the itemised estimate between two points.
func Quote(v domain.VehicleType, pickup, dropoff domain.Point) (Breakdown, error) {
	return ForDistance(v, HaversineKm(pickup, dropoff))
}

// ForDistance prices a known distance. The total is rounded once so the
// components may not add up exactly to it.
func ForDistance(v domain.VehicleType, distanceKm float64) (Breakdown, error) {
	r, err := RateFor(v)
	if err != nil {
		return Breakdown{}, err
	}
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		distanceKm = 0
	}
	return Breakdown{
		VehicleType:  v,
		DistanceKm:   math.Round(distanceKm*100) / 100,
		BaseFare:     int(math.Round(r.Base)),
		DistanceFare: int(math.Round(r.PerKm * distanceKm)),
		Total:        int(math.Round(r.Base + r.PerKm*distanceKm)),
	}, nil
}

// HaversineKm returns the great-circle distance in kilometres between two points.
func HaversineKm(p1, p2 domain.Point) float64 {
	dLat := degreesToRadians(p2.Lat - p1.Lat)
	dLng := degreesToRadians(p2.Lng - p1.Lng)

	rLat1 := degreesToRadians(p1.Lat)
	rLat2 := degreesToRadians(p2.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
