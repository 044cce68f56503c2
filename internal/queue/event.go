// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingPaidEvent is published exactly once when a booking settles as
// PAID. Downstream consumers use it to send confirmation emails or
// feed analytics without querying the primary database.
type BookingPaidEvent struct {
	BookingID   string   `json:"booking_id"`
	UserID      string   `json:"user_id"`
	ShowID      uint64   `json:"show_id"`
	Seats       []string `json:"seats"`
	AmountCents uint32   `json:"amount_cents"`
	PaidAt      string   `json:"paid_at"`
}

// ShowAddedEvent is published when an admin schedules new shows for a
// movie.
type ShowAddedEvent struct {
	MovieID    int64  `json:"movie_id"`
	MovieTitle string `json:"movie_title"`
	ShowCount  int    `json:"show_count"`
	AddedAt    string `json:"added_at"`
}

// Queue names used on the broker.
const (
	BookingPaidQueue = "booking.paid"
	ShowAddedQueue   = "show.added"
)
