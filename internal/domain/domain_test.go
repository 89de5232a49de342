package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to JourneyStatus
		want     bool
	}{
		// forward path
		{JourneyStatusRequested, JourneyStatusAccepted, true},
		{JourneyStatusAccepted, JourneyStatusArrived, true},
		{JourneyStatusArrived, JourneyStatusStarted, true},
		{JourneyStatusStarted, JourneyStatusCompleted, true},
		// cancels
		{JourneyStatusRequested, JourneyStatusCancelled, true},
		{JourneyStatusAccepted, JourneyStatusCancelled, true},
		{JourneyStatusArrived, JourneyStatusCancelled, true},
		{JourneyStatusStarted, JourneyStatusCancelled, true},
		// skipping states
		{JourneyStatusRequested, JourneyStatusStarted, false},
		{JourneyStatusRequested, JourneyStatusArrived, false},
		{JourneyStatusAccepted, JourneyStatusCompleted, false},
		// backwards
		{JourneyStatusStarted, JourneyStatusArrived, false},
		// terminal
		{JourneyStatusCompleted, JourneyStatusCancelled, false},
		{JourneyStatusCancelled, JourneyStatusRequested, false},
		// unknown
		{JourneyStatus("LOST"), JourneyStatusAccepted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsCancellable(t *testing.T) {
	for _, s := range []JourneyStatus{JourneyStatusRequested, JourneyStatusAccepted, JourneyStatusArrived} {
		if !IsCancellable(s) {
			t.Errorf("expected %s to be cancellable", s)
		}
	}
	for _, s := range []JourneyStatus{JourneyStatusStarted, JourneyStatusCompleted, JourneyStatusCancelled} {
		if IsCancellable(s) {
			t.Errorf("expected %s not to be cancellable", s)
		}
	}
}

func TestCompletion_EmptyProfile(t *testing.T) {
	p := &DriverProfile{}
	pct, missing := p.Completion()
	if pct != 0 {
		t.Errorf("expected 0%%, got %d", pct)
	}
	if len(missing) != len(completionChecklist) {
		t.Errorf("expected %d missing fields, got %d", len(completionChecklist), len(missing))
	}
}

func TestCompletion_WeightsSumToHundred(t *testing.T) {
	sum := 0
	for _, f := range completionChecklist {
		sum += f.weight
	}
	if sum != 100 {
		t.Fatalf("checklist weights sum to %d", sum)
	}
}

func TestCompletion_PartialProfile(t *testing.T) {
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &DriverProfile{
		Personal:  PersonalInfo{FullName: "Ravi Kumar", DateOfBirth: &dob, NationalID: "XXXXXXXX1234", Address: "Andheri"},
		Documents: Documents{LicenseNumber: "MH01-2020"},
		Vehicle:   VehicleInfo{Type: VehicleTypeCar, PlateNumber: "MH01AB1234"},
	}
	pct, missing := p.Completion()
	// 10+5+10+5 + 15 + 10+10
	if pct != 65 {
		t.Errorf("expected 65%%, got %d", pct)
	}
	want := []string{"licenseExpiry", "insuranceNumber", "insuranceExpiry", "vehicle.make", "vehicle.model", "vehicle.color"}
	if len(missing) != len(want) {
		t.Fatalf("expected missing %v, got %v", want, missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %s, want %s", i, missing[i], want[i])
		}
	}

	p.IsVerified = true
	p.RecomputeCompletion()
	if p.CanGoOnline() {
		t.Error("65% profile should not be allowed online")
	}
	p.Vehicle.Make = "Maruti"
	p.RecomputeCompletion()
	if !p.CanGoOnline() {
		t.Errorf("70%% verified profile should be allowed online, got %d", p.CompletionPercentage)
	}
}

func TestMaskNationalID(t *testing.T) {
	cases := map[string]string{
		"123456789012": "XXXXXXXX9012",
		"ABCD":         "ABCD",
		"":             "",
		" 98765 ":      "X8765",
	}
	for in, want := range cases {
		if got := MaskNationalID(in); got != want {
			t.Errorf("MaskNationalID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDriverStats_AddRating(t *testing.T) {
	s := DriverStats{Rating: 4, RatingCount: 1}
	s.AddRating(5)
	if s.RatingCount != 2 || s.Rating != 4.5 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestPaymentMethod_IsPreAuthorized(t *testing.T) {
	if !PaymentMethodCard.IsPreAuthorized() || !PaymentMethodWallet.IsPreAuthorized() {
		t.Error("card and wallet are charged at completion")
	}
	if PaymentMethodCash.IsPreAuthorized() || PaymentMethodUPI.IsPreAuthorized() {
		t.Error("cash and upi settle on confirmation")
	}
}

func TestChargeableAmount(t *testing.T) {
	j := &Journey{EstimatedFare: 120}
	if j.ChargeableAmount() != 120 {
		t.Errorf("expected estimate, got %d", j.ChargeableAmount())
	}
	actual := 140
	j.ActualFare = &actual
	if j.ChargeableAmount() != 140 {
		t.Errorf("expected actual fare, got %d", j.ChargeableAmount())
	}
}
