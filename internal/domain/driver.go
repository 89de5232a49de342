package domain

import (
	"strings"
	"time"
)

// MinCompletionToGoOnline is the profile completion a driver needs before going online.
const MinCompletionToGoOnline = 70

// PersonalInfo holds the driver's identity details.
type PersonalInfo struct {
	FullName    string     `json:"fullName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	NationalID  string     `json:"nationalId"`
	Address     string     `json:"address"`
}

// Documents holds licence and insurance details.
type Documents struct {
	LicenseNumber   string     `json:"licenseNumber"`
	LicenseExpiry   *time.Time `json:"licenseExpiry,omitempty"`
	InsuranceNumber string     `json:"insuranceNumber"`
	InsuranceExpiry *time.Time `json:"insuranceExpiry,omitempty"`
}

// VehicleInfo describes the vehicle a driver operates.
type VehicleInfo struct {
	Type        VehicleType `json:"type"`
	Make        string      `json:"make"`
	Model       string      `json:"model"`
	Year        int         `json:"year,omitempty"`
	Color       string      `json:"color"`
	PlateNumber string      `json:"plateNumber"`
}

// DriverStats are running counters maintained outside the journey workflow.
type DriverStats struct {
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"ratingCount"`
	TotalRides  int     `json:"totalRides"`
}

// DriverProfile is the one-to-one extension of a DRIVER user.
type DriverProfile struct {
	UserID               string
	Personal             PersonalInfo
	Documents            Documents
	Vehicle              VehicleInfo
	IsVerified           bool
	IsOnline             bool
	CompletionPercentage int
	Stats                DriverStats
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CanGoOnline reports whether the driver satisfies the online eligibility rule.
func (p *DriverProfile) CanGoOnline() bool {
	return p.IsVerified && p.CompletionPercentage >= MinCompletionToGoOnline
}

type completionField struct {
	name   string
	weight int
	filled func(*DriverProfile) bool
}

var completionChecklist = []completionField{
	{"fullName", 10, func(p *DriverProfile) bool { return p.Personal.FullName != "" }},
	{"dateOfBirth", 5, func(p *DriverProfile) bool { return p.Personal.DateOfBirth != nil }},
	{"nationalId", 10, func(p *DriverProfile) bool { return p.Personal.NationalID != "" }},
	{"address", 5, func(p *DriverProfile) bool { return p.Personal.Address != "" }},
	{"licenseNumber", 15, func(p *DriverProfile) bool { return p.Documents.LicenseNumber != "" }},
	{"licenseExpiry", 5, func(p *DriverProfile) bool { return p.Documents.LicenseExpiry != nil }},
	{"insuranceNumber", 10, func(p *DriverProfile) bool { return p.Documents.InsuranceNumber != "" }},
	{"insuranceExpiry", 5, func(p *DriverProfile) bool { return p.Documents.InsuranceExpiry != nil }},
	{"vehicle.type", 10, func(p *DriverProfile) bool { return p.Vehicle.Type != "" }},
	{"vehicle.make", 5, func(p *DriverProfile) bool { return p.Vehicle.Make != "" }},
	{"vehicle.model", 5, func(p *DriverProfile) bool { return p.Vehicle.Model != "" }},
	{"vehicle.plateNumber", 10, func(p *DriverProfile) bool { return p.Vehicle.PlateNumber != "" }},
	{"vehicle.color", 5, func(p *DriverProfile) bool { return p.Vehicle.Color != "" }},
}

// Completion returns the weighted completion percentage and the names of
// the fields still missing, in checklist order.
func (p *DriverProfile) Completion() (int, []string) {
	total := 0
	missing := []string{}
	for _, f := range completionChecklist {
		if f.filled(p) {
			total += f.weight
		} else {
			missing = append(missing, f.name)
		}
	}
	return total, missing
}

// RecomputeCompletion refreshes CompletionPercentage from the checklist.
func (p *DriverProfile) RecomputeCompletion() {
	p.CompletionPercentage, _ = p.Completion()
}

// MaskNationalID keeps the last four characters and replaces the rest with X.
func MaskNationalID(id string) string {
	r := []rune(strings.TrimSpace(id))
	if len(r) <= 4 {
		return string(r)
	}
	return strings.Repeat("X", len(r)-4) + string(r[len(r)-4:])
}

// AddRating folds a new rating into the running average.
func (s *DriverStats) AddRating(rating int) {
	s.Rating = (s.Rating*float64(s.RatingCount) + float64(rating)) / float64(s.RatingCount+1)
	s.RatingCount++
}
