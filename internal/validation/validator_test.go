package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Lng float64 `json:"lng" validate:"longitude"`
	Lat float64 `json:"lat" validate:"latitude"`
}

type request struct {
	VehicleType   string `json:"vehicleType" validate:"required,vehicle_type"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,payment_method"`
	Pickup        point  `json:"pickup"`
	Rating        int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

func TestStruct_Valid(t *testing.T) {
	errs := Struct(request{
		VehicleType:   "CAR",
		PaymentMethod: "UPI",
		Pickup:        point{Lng: 72.8777, Lat: 19.0760},
		Rating:        5,
	})
	assert.Nil(t, errs)
}

func TestStruct_ReportsEveryField(t *testing.T) {
	errs := Struct(request{
		VehicleType:   "SPACESHIP",
		PaymentMethod: "BITCOIN",
		Pickup:        point{Lng: 200, Lat: -91},
		Rating:        9,
	})
	require.Len(t, errs, 5)

	byField := map[string]FieldError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "vehicle_type", byField["vehicleType"].Rule)
	assert.Equal(t, "payment_method", byField["paymentMethod"].Rule)
	assert.Equal(t, "longitude", byField["pickup.lng"].Rule)
	assert.Equal(t, "latitude", byField["pickup.lat"].Rule)
	assert.Equal(t, "max", byField["rating"].Rule)
	assert.Contains(t, errs.Error(), "vehicleType: must be one of")
}

func TestStruct_Required(t *testing.T) {
	errs := Struct(request{})
	require.Len(t, errs, 1)
	assert.Equal(t, "vehicleType", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
}
