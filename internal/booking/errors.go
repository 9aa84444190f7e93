package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input: missing IDs, empty or repeated seats.
	ErrValidation = errors.New("validation error")
	// ErrShowNotFound is returned when the referenced show does not exist.
	ErrShowNotFound = errors.New("show not found")
	// ErrSeatConflict is returned when requested seats are already sold to
	// someone else or the show has no room left.
	ErrSeatConflict = errors.New("seat conflict")
	// ErrForbidden is returned when the caller may not see a resource.
	ErrForbidden = errors.New("forbidden")
	// ErrServer wraps unexpected storage failures.
	ErrServer = errors.New("server error")
)

// SeatConflictError names the seats that blocked a reservation.
type SeatConflictError struct {
	Seats  []string
	Reason string
}

func (e *SeatConflictError) Error() string {
	if e.Reason != "" {
		return "seat conflict: " + e.Reason
	}
	return "seats already booked: " + strings.Join(e.Seats, ", ")
}

func (e *SeatConflictError) Unwrap() error { return ErrSeatConflict }

// Kind is the stable, caller-facing error classification.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindNotFound     Kind = "not_found"
	KindSeatConflict Kind = "seat_conflict"
	KindForbidden    Kind = "forbidden"
	KindServer       Kind = "server_error"
)

// KindOf classifies err.  Anything unrecognised is a server error.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrShowNotFound):
		return KindNotFound
	case errors.Is(err, ErrSeatConflict):
		return KindSeatConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindServer
	}
}

// ConflictSeats returns the seats carried by a *SeatConflictError in err's chain.
func ConflictSeats(err error) []string {
	var ce *SeatConflictError
	if errors.As(err, &ce) {
		return ce.Seats
	}
	return nil
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// serverErr keeps classified errors as they are and wraps everything else
// in ErrServer.
func serverErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindServer || errors.Is(err, ErrServer) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrServer, op, err)
}
