package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
	"ridehail/internal/validation"
)

// JourneyHandler handles HTTP requests for journeys.
type JourneyHandler struct {
	journeyService *service.JourneyService
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(journeyService *service.JourneyService) *JourneyHandler {
	return &JourneyHandler{journeyService: journeyService}
}

// PointRequest is a coordinate in a request body.
type PointRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// LocationRequest is an address with its coordinate.
type LocationRequest struct {
	Address string       `json:"address" validate:"required,max=255"`
	Point   PointRequest `json:"point"`
}

func (l LocationRequest) toDomain() domain.Location {
	return domain.Location{
		Address: l.Address,
		Point:   domain.Point{Lat: l.Point.Lat, Lng: l.Point.Lng},
	}
}

// CreateJourneyRequest is the HTTP request body for requesting a journey.
type CreateJourneyRequest struct {
	VehicleType   string          `json:"vehicleType" validate:"required,vehicle_type"`
	Pickup        LocationRequest `json:"pickup"`
	Dropoff       LocationRequest `json:"dropoff"`
	PaymentMethod string          `json:"paymentMethod,omitempty" validate:"omitempty,payment_method"`
}

// UpdateStatusRequest is the HTTP request body for a driver status update.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ARRIVED STARTED"`
}

// CompleteJourneyRequest is the HTTP request body for completing a journey.
type CompleteJourneyRequest struct {
	ActualFare int     `json:"actualFare" validate:"gte=0"`
	Distance   float64 `json:"distance" validate:"gte=0"`
	Duration   int     `json:"duration" validate:"gte=0"`
}

// CancelJourneyRequest is the HTTP request body for cancelling a journey.
type CancelJourneyRequest struct {
	Reason      string `json:"reason,omitempty" validate:"max=500"`
	CancelledBy string `json:"cancelledBy" validate:"required,oneof=RIDER DRIVER"`
}

// RateJourneyRequest is the HTTP request body for rating a journey.
type RateJourneyRequest struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback,omitempty" validate:"max=1000"`
}

// EstimateQuery is the query string of a fare quote.
type EstimateQuery struct {
	VehicleType string  `form:"vehicleType" json:"vehicleType" validate:"required,vehicle_type"`
	PickupLat   float64 `form:"pickupLat" json:"pickupLat" validate:"latitude"`
	PickupLng   float64 `form:"pickupLng" json:"pickupLng" validate:"longitude"`
	DropoffLat  float64 `form:"dropoffLat" json:"dropoffLat" validate:"latitude"`
	DropoffLng  float64 `form:"dropoffLng" json:"dropoffLng" validate:"longitude"`
}

// JourneyResponse is the HTTP response for journey data.
type JourneyResponse struct {
	ID                 string          `json:"id"`
	RiderID            string          `json:"riderId"`
	DriverID           string          `json:"driverId,omitempty"`
	Status             string          `json:"status"`
	VehicleType        string          `json:"vehicleType"`
	Pickup             domain.Location `json:"pickup"`
	Dropoff            domain.Location `json:"dropoff"`
	EstimatedFare      int             `json:"estimatedFare"`
	ActualFare         *int            `json:"actualFare,omitempty"`
	Distance           *float64        `json:"distance,omitempty"`
	Duration           *int            `json:"duration,omitempty"`
	PaymentMethod      string          `json:"paymentMethod"`
	PaymentStatus      string          `json:"paymentStatus"`
	RequestedAt        *time.Time      `json:"requestedAt,omitempty"`
	AcceptedAt         *time.Time      `json:"acceptedAt,omitempty"`
	ArrivedAt          *time.Time      `json:"arrivedAt,omitempty"`
	StartedAt          *time.Time      `json:"startedAt,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	CancelledBy        string          `json:"cancelledBy,omitempty"`
	Rating             *int            `json:"rating,omitempty"`
	Feedback           string          `json:"feedback,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// JourneyDetailsResponse is a journey with its rider and driver attached.
type JourneyDetailsResponse struct {
	JourneyResponse
	Rider  *domain.PartySummary `json:"rider,omitempty"`
	Driver *domain.PartySummary `json:"driver,omitempty"`
}

func toJourneyResponse(j *domain.Journey) JourneyResponse {
	return JourneyResponse{
		ID:                 j.ID,
		RiderID:            j.RiderID,
		DriverID:           j.DriverID,
		Status:             string(j.Status),
		VehicleType:        string(j.VehicleType),
		Pickup:             j.Pickup,
		Dropoff:            j.Dropoff,
		EstimatedFare:      j.EstimatedFare,
		ActualFare:         j.ActualFare,
		Distance:           j.Distance,
		Duration:           j.Duration,
		PaymentMethod:      string(j.PaymentMethod),
		PaymentStatus:      string(j.PaymentStatus),
		RequestedAt:        j.RequestedAt,
		AcceptedAt:         j.AcceptedAt,
		ArrivedAt:          j.ArrivedAt,
		StartedAt:          j.StartedAt,
		CompletedAt:        j.CompletedAt,
		CancelledAt:        j.CancelledAt,
		CancellationReason: j.CancellationReason,
		CancelledBy:        string(j.CancelledBy),
		Rating:             j.Rating,
		Feedback:           j.Feedback,
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}

func toJourneyList(journeys []*domain.Journey) []JourneyResponse {
	out := make([]JourneyResponse, 0, len(journeys))
	for _, j := range journeys {
		out = append(out, toJourneyResponse(j))
	}
	return out
}

// CreateJourney handles POST /v1/journeys
func (h *JourneyHandler) CreateJourney(c *gin.Context) {
	var req CreateJourneyRequest
	if !bindJSON(c, &req) {
		return
	}

	journey, err := h.journeyService.CreateJourney(c.Request.Context(), middleware.UserID(c), service.CreateJourneyInput{
		VehicleType:   domain.VehicleType(req.VehicleType),
		Pickup:        req.Pickup.toDomain(),
		Dropoff:       req.Dropoff.toDomain(),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toJourneyResponse(journey))
}

// EstimateFare handles GET /v1/journeys/estimate
func (h *JourneyHandler) EstimateFare(c *gin.Context) {
	var q EstimateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameters"})
		return
	}
	if fields := validation.Struct(&q); fields != nil {
		respondValidation(c, fields)
		return
	}

	quote, err := h.journeyService.EstimateFare(
		domain.VehicleType(q.VehicleType),
		domain.Point{Lat: q.PickupLat, Lng: q.PickupLng},
		domain.Point{Lat: q.DropoffLat, Lng: q.DropoffLng},
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, quote)
}

// ListRiderJourneys handles GET /v1/journeys/rider
func (h *JourneyHandler) ListRiderJourneys(c *gin.Context) {
	journeys, err := h.journeyService.ListByRider(c.Request.Context(), middleware.UserID(c), domain.JourneyStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"journeys": toJourneyList(journeys), "count": len(journeys)})
}

// ListDriverJourneys handles GET /v1/journeys/driver
func (h *JourneyHandler) ListDriverJourneys(c *gin.Context) {
	journeys, err := h.journeyService.ListByDriver(c.Request.Context(), middleware.UserID(c), domain.JourneyStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"journeys": toJourneyList(journeys), "count": len(journeys)})
}

// GetJourney handles GET /v1/journeys/:id
func (h *JourneyHandler) GetJourney(c *gin.Context) {
	details, err := h.journeyService.GetJourneyByID(c.Request.Context(), c.Param("id"), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, JourneyDetailsResponse{
		JourneyResponse: toJourneyResponse(details.Journey),
		Rider:           details.Rider,
		Driver:          details.Driver,
	})
}

// AcceptJourney handles POST /v1/journeys/:id/accept
func (h *JourneyHandler) AcceptJourney(c *gin.Context) {
	journey, err := h.journeyService.AcceptJourney(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toJourneyResponse(journey))
}

// UpdateStatus handles POST /v1/journeys/:id/status
func (h *JourneyHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	journey, err := h.journeyService.UpdateStatus(c.Request.Context(), c.Param("id"), middleware.UserID(c), domain.JourneyStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toJourneyResponse(journey))
}

// CompleteJourney handles POST /v1/journeys/:id/complete
func (h *JourneyHandler) CompleteJourney(c *gin.Context) {
	var req CompleteJourneyRequest
	if !bindJSON(c, &req) {
		return
	}

	journey, err := h.journeyService.CompleteJourney(c.Request.Context(), c.Param("id"), middleware.UserID(c), service.CompletionInput{
		ActualFare: req.ActualFare,
		Distance:   req.Distance,
		Duration:   req.Duration,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toJourneyResponse(journey))
}

// CancelJourney handles POST /v1/journeys/:id/cancel
func (h *JourneyHandler) CancelJourney(c *gin.Context) {
	var req CancelJourneyRequest
	if !bindJSON(c, &req) {
		return
	}

	journey, err := h.journeyService.CancelJourney(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Reason, domain.CancelledBy(req.CancelledBy))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toJourneyResponse(journey))
}

// PaymentQR handles GET /v1/journeys/:id/payment-qr
func (h *JourneyHandler) PaymentQR(c *gin.Context) {
	qr, err := h.journeyService.GeneratePaymentQR(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, qr)
}

// ConfirmPayment handles POST /v1/journeys/:id/confirm-payment
func (h *JourneyHandler) ConfirmPayment(c *gin.Context) {
	confirmation, err := h.journeyService.ConfirmPayment(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, confirmation)
}

// RateJourney handles POST /v1/journeys/:id/rate
func (h *JourneyHandler) RateJourney(c *gin.Context) {
	var req RateJourneyRequest
	if !bindJSON(c, &req) {
		return
	}

	journey, err := h.journeyService.RateJourney(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Rating, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toJourneyResponse(journey))
}

// Receipt handles GET /v1/journeys/:id/receipt. ?format=text returns the
// printable receipt.
func (h *JourneyHandler) Receipt(c *gin.Context) {
	receipt, err := h.journeyService.GetReceipt(c.Request.Context(), c.Param("id"), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.Header("Content-Disposition", `inline; filename="receipt-`+receipt.JourneyID+`.txt"`)
		c.String(http.StatusOK, h.journeyService.FormatReceipt(receipt))
		return
	}

	respondJSON(c, http.StatusOK, receipt)
}
