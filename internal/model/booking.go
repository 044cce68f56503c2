package model

import "time"

// Booking status values.  A booking starts PENDING when its seats are
// claimed, moves to PAID once the payment provider confirms the
// charge, or to EXPIRED when the hold window lapses without a
// settlement.  PAID and EXPIRED are terminal.
const (
	BookingPending = "PENDING"
	BookingPaid    = "PAID"
	BookingExpired = "EXPIRED"
)

// Booking records one checkout attempt by a user for a show.  It is
// the audit and settlement record; the seats it claims live in the
// booked_seats table, which is the canonical occupancy of the show.
//
// Fields:
//  ID          – opaque identifier (UUID).
//  UserID      – identity-provider user who made the booking.
//  ShowID      – show being booked.
//  Seats       – seat labels claimed, unique within the booking.
//  AmountCents – total charge, price × seat count.
//  Status      – PENDING, PAID or EXPIRED.
//  SessionRef  – payment-session reference from the provider.
//  CreatedAt   – creation timestamp; expiry is measured from here.
//  UpdatedAt   – last update timestamp.
type Booking struct {
	ID          string    // bookings.id
	UserID      string    // bookings.user_id
	ShowID      uint64    // bookings.show_id
	Seats       []string  // booked_seats.seat_label rows
	AmountCents uint32    // bookings.amount_cents
	Status      string    // bookings.status
	SessionRef  string    // bookings.session_ref
	CreatedAt   time.Time // bookings.created_at
	UpdatedAt   time.Time // bookings.updated_at
}
