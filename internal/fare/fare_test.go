package fare

import (
	"errors"
	"math"
	"testing"

	"ridehail/internal/domain"
)

var (
	mumbaiCentral = domain.Point{Lng: 72.8777, Lat: 19.0760}
	bandraWest    = domain.Point{Lng: 72.8258, Lat: 19.0596}
)

func TestEstimate_SamePointIsBaseFare(t *testing.T) {
	t.Parallel()

	cases := map[domain.VehicleType]int{
		domain.VehicleTypeCar:             50,
		domain.VehicleTypeBike:            20,
		domain.VehicleTypeAuto:            30,
		domain.VehicleTypeERickshaw:       25,
		domain.VehicleTypeElectricScooter: 15,
	}
	for v, want := range cases {
		got, err := Estimate(v, mumbaiCentral, mumbaiCentral)
		if err != nil {
			t.Fatalf("Estimate(%s): %v", v, err)
		}
		if got != want {
			t.Errorf("Estimate(%s) = %d, want %d", v, got, want)
		}
	}
}

func TestHaversineKm_MumbaiCentralToBandra(t *testing.T) {
	t.Parallel()

	d := HaversineKm(mumbaiCentral, bandraWest)
	if math.Abs(d-5.75) > 0.05 {
		t.Errorf("expected ~5.75 km, got %.3f", d)
	}
	if back := HaversineKm(bandraWest, mumbaiCentral); math.Abs(back-d) > 1e-9 {
		t.Errorf("distance should be symmetric: %.6f vs %.6f", d, back)
	}
}

func TestEstimate_MumbaiCentralToBandra(t *testing.T) {
	t.Parallel()

	tests := []struct {
		vehicle domain.VehicleType
		want    int
	}{
		{domain.VehicleTypeCar, 119},
		{domain.VehicleTypeBike, 55},
		{domain.VehicleTypeAuto, 76},
		{domain.VehicleTypeERickshaw, 65},
		{domain.VehicleTypeElectricScooter, 44},
	}
	for _, tt := range tests {
		got, err := Estimate(tt.vehicle, mumbaiCentral, bandraWest)
		if err != nil {
			t.Fatalf("Estimate(%s): %v", tt.vehicle, err)
		}
		if got != tt.want {
			t.Errorf("Estimate(%s) = %d, want %d", tt.vehicle, got, tt.want)
		}
	}
}

func TestEstimate_UnknownVehicle(t *testing.T) {
	t.Parallel()

	_, err := Estimate("HELICOPTER", mumbaiCentral, bandraWest)
	if !errors.Is(err, ErrUnknownVehicleType) {
		t.Errorf("expected ErrUnknownVehicleType, got %v", err)
	}
}

func TestForDistance_Breakdown(t *testing.T) {
	t.Parallel()

	b, err := ForDistance(domain.VehicleTypeCar, 10)
	if err != nil {
		t.Fatal(err)
	}
	if b.BaseFare != 50 || b.DistanceFare != 120 || b.Total != 170 {
		t.Errorf("unexpected breakdown %+v", b)
	}

	b, err = ForDistance(domain.VehicleTypeBike, -3)
	if err != nil {
		t.Fatal(err)
	}
	if b.Total != 20 || b.DistanceKm != 0 {
		t.Errorf("negative distance should price as zero, got %+v", b)
	}
}
