package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the services return either is one of these or
// unwraps to one of them; the HTTP layer only looks at the kind.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrTransitionRejected = errors.New("transition rejected")
)

var (
	ErrFlightNotFound      = newKindError(ErrNotFound, "flight not found")
	ErrBookingNotFound     = newKindError(ErrNotFound, "booking not found")
	ErrPilotNotFound       = newKindError(ErrNotFound, "pilot stats not found")
	ErrRankRequestNotFound = newKindError(ErrNotFound, "rank up request not found")

	ErrSeatAlreadyHeld       = newKindError(ErrConflict, "seat is already held")
	ErrSeatAlreadyBooked     = newKindError(ErrConflict, "seat is already booked")
	ErrHoldNotFoundOrExpired = newKindError(ErrConflict, "seat not held or hold expired")
	ErrFlightNotBookable     = newKindError(ErrConflict, "flight is not open for booking")
	ErrDuplicateFlightNumber = newKindError(ErrConflict, "flight number already exists")
	ErrBookingNotActive      = newKindError(ErrConflict, "booking is not active")
	ErrTopRank               = newKindError(ErrConflict, "pilot already holds the highest rank")
	ErrRankRequestDecided    = newKindError(ErrConflict, "rank up request already decided")
	ErrRankRequestPending    = newKindError(ErrConflict, "a rank up request is already pending")
	ErrRankRequestStale      = newKindError(ErrConflict, "rank up request no longer matches the pilot's rank")

	ErrEntitlementRequired = newKindError(ErrForbidden, "business class gamepass required")
	ErrNotOwner            = newKindError(ErrForbidden, "not the owner of this resource")

	ErrInvalidStatusTransition  = newKindError(ErrTransitionRejected, "invalid status transition")
	ErrInvalidClearanceSequence = newKindError(ErrTransitionRejected, "invalid clearance sequence")
	ErrCancellationWindowClosed = newKindError(ErrTransitionRejected, "bookings cannot be cancelled within 24 hours of departure")
	ErrInsufficientRankProgress = newKindError(ErrTransitionRejected, "rank up requirements not met")
)

type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Validation returns an error of kind ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return newKindError(ErrValidation, fmt.Sprintf(format, args...))
}

// Kind reports which of the error kinds err belongs to, or nil for
// unexpected errors.
func Kind(err error) error {
	for _, kind := range []error{
		ErrValidation,
		ErrUnauthenticated,
		ErrForbidden,
		ErrNotFound,
		ErrConflict,
		ErrTransitionRejected,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
