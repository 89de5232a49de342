package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// DriverHandler handles HTTP requests for driver profiles and availability.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// PersonalRequest holds identity details of a profile request.
type PersonalRequest struct {
	FullName    string     `json:"fullName" validate:"omitempty,min=2,max=100"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	NationalID  string     `json:"nationalId" validate:"omitempty,min=4,max=32"`
	Address     string     `json:"address" validate:"max=255"`
}

// DocumentsRequest holds licence and insurance details of a profile request.
type DocumentsRequest struct {
	LicenseNumber   string     `json:"licenseNumber" validate:"max=32"`
	LicenseExpiry   *time.Time `json:"licenseExpiry,omitempty"`
	InsuranceNumber string     `json:"insuranceNumber" validate:"max=32"`
	InsuranceExpiry *time.Time `json:"insuranceExpiry,omitempty"`
}

// VehicleRequest describes the vehicle of a profile request.
type VehicleRequest struct {
	Type        string `json:"type" validate:"omitempty,vehicle_type"`
	Make        string `json:"make" validate:"max=50"`
	Model       string `json:"model" validate:"max=50"`
	Year        int    `json:"year,omitempty" validate:"omitempty,gte=1990,lte=2100"`
	Color       string `json:"color" validate:"max=30"`
	PlateNumber string `json:"plateNumber" validate:"max=20"`
}

// CreateProfileRequest is the HTTP request body for creating a driver profile.
type CreateProfileRequest struct {
	Personal  PersonalRequest  `json:"personalInfo"`
	Documents DocumentsRequest `json:"documents"`
	Vehicle   VehicleRequest   `json:"vehicleInfo"`
}

// UpdateProfileRequest is the HTTP request body for a partial profile update.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	FullName    *string    `json:"fullName,omitempty" validate:"omitempty,min=2,max=100"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	NationalID  *string    `json:"nationalId,omitempty" validate:"omitempty,min=4,max=32"`
	Address     *string    `json:"address,omitempty" validate:"omitempty,max=255"`

	LicenseNumber   *string    `json:"licenseNumber,omitempty" validate:"omitempty,max=32"`
	LicenseExpiry   *time.Time `json:"licenseExpiry,omitempty"`
	InsuranceNumber *string    `json:"insuranceNumber,omitempty" validate:"omitempty,max=32"`
	InsuranceExpiry *time.Time `json:"insuranceExpiry,omitempty"`

	VehicleType  *string `json:"vehicleType,omitempty" validate:"omitempty,vehicle_type"`
	VehicleMake  *string `json:"vehicleMake,omitempty" validate:"omitempty,max=50"`
	VehicleModel *string `json:"vehicleModel,omitempty" validate:"omitempty,max=50"`
	VehicleYear  *int    `json:"vehicleYear,omitempty" validate:"omitempty,gte=1990,lte=2100"`
	VehicleColor *string `json:"vehicleColor,omitempty" validate:"omitempty,max=30"`
	PlateNumber  *string `json:"plateNumber,omitempty" validate:"omitempty,max=20"`
}

// DriverStatusRequest is the HTTP request body for toggling availability.
type DriverStatusRequest struct {
	IsOnline *bool `json:"isOnline" validate:"required"`
}

// UpdateLocationRequest is the HTTP request body for updating driver location.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// DriverProfileResponse is the HTTP response for driver profile data.
type DriverProfileResponse struct {
	UserID               string              `json:"userId"`
	Personal             domain.PersonalInfo `json:"personalInfo"`
	Documents            domain.Documents    `json:"documents"`
	Vehicle              domain.VehicleInfo  `json:"vehicleInfo"`
	IsVerified           bool                `json:"isVerified"`
	IsOnline             bool                `json:"isOnline"`
	CompletionPercentage int                 `json:"completionPercentage"`
	Stats                domain.DriverStats  `json:"stats"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
}

func toDriverProfileResponse(p *domain.DriverProfile) DriverProfileResponse {
	return DriverProfileResponse{
		UserID:               p.UserID,
		Personal:             p.Personal,
		Documents:            p.Documents,
		Vehicle:              p.Vehicle,
		IsVerified:           p.IsVerified,
		IsOnline:             p.IsOnline,
		CompletionPercentage: p.CompletionPercentage,
		Stats:                p.Stats,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (r *UpdateProfileRequest) toPatch() service.ProfilePatch {
	patch := service.ProfilePatch{
		FullName:        r.FullName,
		DateOfBirth:     r.DateOfBirth,
		NationalID:      r.NationalID,
		Address:         r.Address,
		LicenseNumber:   r.LicenseNumber,
		LicenseExpiry:   r.LicenseExpiry,
		InsuranceNumber: r.InsuranceNumber,
		InsuranceExpiry: r.InsuranceExpiry,
		VehicleMake:     r.VehicleMake,
		VehicleModel:    r.VehicleModel,
		VehicleYear:     r.VehicleYear,
		VehicleColor:    r.VehicleColor,
		PlateNumber:     r.PlateNumber,
	}
	if r.VehicleType != nil {
		v := domain.VehicleType(*r.VehicleType)
		patch.VehicleType = &v
	}
	return patch
}

// CreateProfile handles POST /v1/drivers/profile
func (h *DriverHandler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.driverService.CreateProfile(c.Request.Context(), middleware.UserID(c), service.ProfileInput{
		Personal: domain.PersonalInfo{
			FullName:    req.Personal.FullName,
			DateOfBirth: req.Personal.DateOfBirth,
			NationalID:  req.Personal.NationalID,
			Address:     req.Personal.Address,
		},
		Documents: domain.Documents{
			LicenseNumber:   req.Documents.LicenseNumber,
			LicenseExpiry:   req.Documents.LicenseExpiry,
			InsuranceNumber: req.Documents.InsuranceNumber,
			InsuranceExpiry: req.Documents.InsuranceExpiry,
		},
		Vehicle: domain.VehicleInfo{
			Type:        domain.VehicleType(req.Vehicle.Type),
			Make:        req.Vehicle.Make,
			Model:       req.Vehicle.Model,
			Year:        req.Vehicle.Year,
			Color:       req.Vehicle.Color,
			PlateNumber: req.Vehicle.PlateNumber,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverProfileResponse(profile))
}

// GetProfile handles GET /v1/drivers/profile
func (h *DriverHandler) GetProfile(c *gin.Context) {
	profile, err := h.driverService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverProfileResponse(profile))
}

// UpdateProfile handles PATCH /v1/drivers/profile
func (h *DriverHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.driverService.UpdateProfile(c.Request.Context(), middleware.UserID(c), req.toPatch())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverProfileResponse(profile))
}

// GetCompletion handles GET /v1/drivers/profile/completion
func (h *DriverHandler) GetCompletion(c *gin.Context) {
	completion, err := h.driverService.GetProfileCompletion(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, completion)
}

// UpdateStatus handles POST /v1/drivers/status
func (h *DriverHandler) UpdateStatus(c *gin.Context) {
	var req DriverStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.driverService.UpdateStatus(c.Request.Context(), middleware.UserID(c), *req.IsOnline)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"userId":   profile.UserID,
		"isOnline": profile.IsOnline,
	})
}

// UpdateLocation handles POST /v1/drivers/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.driverService.UpdateLocation(c.Request.Context(), middleware.UserID(c), domain.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"message": "location updated"})
}

// VerifyDriver handles POST /v1/admin/drivers/:id/verify
func (h *DriverHandler) VerifyDriver(c *gin.Context) {
	profile, err := h.driverService.VerifyDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverProfileResponse(profile))
}
