package service

import (
	"errors"
	"fmt"

	"ridehail/internal/repository"
)

// Error kinds. Every error returned by the services wraps exactly one of
// these, so callers classify with errors.Is.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = repository.ErrNotFound

	// ErrForbidden is returned when the actor is not a party to the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is returned when credentials are missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPreconditionFailed is returned when a business rule blocks the operation.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidTransition is returned when the journey state machine forbids a move.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an entity already exists.
	ErrConflict = errors.New("conflict")
)

var (
	ErrJourneyNotFound = fmt.Errorf("%w: journey not found", ErrNotFound)
	ErrRiderNotFound   = fmt.Errorf("%w: rider not found", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrDriverNotFound  = fmt.Errorf("%w: driver profile not found", ErrNotFound)

	ErrNotJourneyParty  = fmt.Errorf("%w: not a party to this journey", ErrForbidden)
	ErrNotJourneyRider  = fmt.Errorf("%w: not the rider of this journey", ErrForbidden)
	ErrNotJourneyDriver = fmt.Errorf("%w: not the driver of this journey", ErrForbidden)
	ErrNotADriver       = fmt.Errorf("%w: user is not a driver", ErrForbidden)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)

	ErrDriverOffline         = fmt.Errorf("%w: driver is offline", ErrPreconditionFailed)
	ErrDriverUnverified      = fmt.Errorf("%w: driver is not verified", ErrPreconditionFailed)
	ErrProfileIncomplete     = fmt.Errorf("%w: profile completion below required minimum", ErrPreconditionFailed)
	ErrVehicleMismatch       = fmt.Errorf("%w: vehicle type does not match journey", ErrPreconditionFailed)
	ErrJourneyUnavailable    = fmt.Errorf("%w: journey is no longer available", ErrPreconditionFailed)
	ErrJourneyNotCancellable = fmt.Errorf("%w: journey can no longer be cancelled", ErrPreconditionFailed)
	ErrJourneyNotCompleted   = fmt.Errorf("%w: journey is not completed", ErrPreconditionFailed)
	ErrAlreadyPaid           = fmt.Errorf("%w: journey is already paid", ErrPreconditionFailed)
	ErrPaymentDeclined       = fmt.Errorf("%w: payment was declined", ErrPreconditionFailed)
	ErrPaymentInProgress     = fmt.Errorf("%w: payment confirmation already in progress", ErrPreconditionFailed)
	ErrAlreadyRated          = fmt.Errorf("%w: journey is already rated", ErrPreconditionFailed)

	ErrInvalidStatusUpdate = fmt.Errorf("%w: status must be ARRIVED or STARTED", ErrValidation)
	ErrInvalidVehicleType  = fmt.Errorf("%w: unknown vehicle type", ErrValidation)
	ErrInvalidPayment      = fmt.Errorf("%w: unknown payment method", ErrValidation)
	ErrInvalidCancelledBy  = fmt.Errorf("%w: cancelledBy must be RIDER or DRIVER", ErrValidation)
	ErrInvalidRating       = fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	ErrInvalidLocation     = fmt.Errorf("%w: invalid location", ErrValidation)
	ErrInvalidStatusFilter = fmt.Errorf("%w: unknown journey status", ErrValidation)
	ErrInvalidCompletion   = fmt.Errorf("%w: measured values must not be negative", ErrValidation)
	ErrInvalidRole         = fmt.Errorf("%w: role must be RIDER or DRIVER", ErrValidation)

	ErrProfileExists = fmt.Errorf("%w: driver profile already exists", ErrConflict)
	ErrEmailTaken    = fmt.Errorf("%w: email or phone already registered", ErrConflict)
)
