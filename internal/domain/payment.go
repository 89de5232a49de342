package domain

// PaymentMethod represents the payment method for a journey.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodUPI    PaymentMethod = "UPI"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodWallet, PaymentMethodUPI:
		return true
	}
	return false
}

// IsPreAuthorized reports whether the method is charged when the journey
// completes. CASH and UPI settle only when the rider confirms payment.
func (m PaymentMethod) IsPreAuthorized() bool {
	return m == PaymentMethodCard || m == PaymentMethodWallet
}

// PaymentStatus represents the settlement state of a journey's fare.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PaymentQR is the payload returned to a rider for scan-to-pay.
type PaymentQR struct {
	JourneyID     string        `json:"journeyId"`
	Amount        int           `json:"amount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	QRImage       string        `json:"qrImage"`
}

// PaymentConfirmation is the outcome of confirming a journey's payment.
type PaymentConfirmation struct {
	AlreadyPaid   bool          `json:"alreadyPaid"`
	Amount        int           `json:"amount,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
}

// Receipt is the fare breakdown of a completed journey.
type Receipt struct {
	JourneyID      string        `json:"journeyId"`
	VehicleType    VehicleType   `json:"vehicleType"`
	BaseFare       int           `json:"baseFare"`
	DistanceFare   int           `json:"distanceFare"`
	EstimatedFare  int           `json:"estimatedFare"`
	TotalFare      int           `json:"totalFare"`
	DistanceKm     float64       `json:"distanceKm"`
	DurationMin    int           `json:"durationMin"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	PickupAddress  string        `json:"pickupAddress"`
	DropoffAddress string        `json:"dropoffAddress"`
}
