// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the reservation service to distinguish between failure
// scenarios without inspecting strings. SeatsUnavailableError carries
// the exact conflicting seat labels so clients can refresh their view.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShowNotFound indicates that a show was not located in the store.
var ErrShowNotFound = errors.New("show not found")

// ErrMovieNotFound indicates that a movie is not cached locally.
var ErrMovieNotFound = errors.New("movie not found")

// ErrBookingNotFound indicates that a booking id is unknown. Callers
// must not retry settlements for unknown bookings indefinitely.
var ErrBookingNotFound = errors.New("booking not found")

// SeatsUnavailableError is returned by a reservation attempt when one
// or more of the requested seats is already held by a live booking.
// Seats lists exactly the conflicting subset of the request.
type SeatsUnavailableError struct {
	Seats []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}
