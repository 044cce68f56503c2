// Package reservation implements the seat reservation core: the
// availability query, the atomic reservation attempt, settlement of
// payment outcomes and expiry of abandoned holds. The service owns
// validation and event emission; the atomicity discipline lives in the
// Store implementations.
package reservation

import (
	"context"
	"errors"
	"log"
	"regexp"
	"time"

	"github.com/quickshow/quickshow/internal/model"
	"github.com/quickshow/quickshow/internal/monitoring"
	"github.com/quickshow/quickshow/internal/repository"
)

// MaxSeatsPerBooking caps the number of seats one booking may claim.
const MaxSeatsPerBooking = 10

// Store is the persistence contract the service runs on. BookingRepo
// implements it on MySQL, MemoryStore in memory. Every method that
// mutates occupancy must apply its conflict check and write as one
// indivisible unit; the service never issues read-then-write pairs.
type Store interface {
	OccupiedSeats(ctx context.Context, showID uint64) (map[string]string, error)
	Reserve(ctx context.Context, showID uint64, userID string, seats []string) (*model.Booking, error)
	AttachSession(ctx context.Context, bookingID, sessionRef string) error
	SettlePaid(ctx context.Context, bookingID string) (bool, error)
	SettleCanceled(ctx context.Context, bookingID string) (bool, error)
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
}

// Notifier receives the downstream event for a freshly settled
// booking. The service emits it exactly once per booking because the
// store reports whether the PAID transition actually applied.
type Notifier interface {
	BookingPaid(ctx context.Context, b *model.Booking) error
}

// Outcome is the result of an external payment session.
type Outcome string

// Settlement outcomes delivered by the payment provider boundary.
const (
	OutcomePaid     Outcome = "PAID"
	OutcomeCanceled Outcome = "CANCELED"
)

// ErrInvalidSeats is returned when a reservation request carries no
// seats, too many seats, or a malformed seat label.
var ErrInvalidSeats = errors.New("invalid seat selection")

// seatLabel matches labels like "A1" or "J14": one row letter followed
// by a one- or two-digit seat number.
var seatLabel = regexp.MustCompile(`^[A-Z][0-9]{1,2}$`)

// Service wires the reservation store with expiry policy and the
// downstream notifier. Construct one per process with New; all
// collaborators are passed in explicitly so tests can substitute
// doubles.
type Service struct {
	store      Store
	notifier   Notifier
	holdWindow time.Duration
	sweepBatch int
}

// New returns a Service. notifier may be nil when no downstream
// consumer is configured.
func New(store Store, notifier Notifier, holdWindow time.Duration) *Service {
	if store == nil {
		panic("nil store passed to reservation.New")
	}
	if holdWindow <= 0 {
		holdWindow = 15 * time.Minute
	}
	return &Service{
		store:      store,
		notifier:   notifier,
		holdWindow: holdWindow,
		sweepBatch: 100,
	}
}

// HoldWindow reports how long a PENDING booking keeps its seats.
func (s *Service) HoldWindow() time.Duration { return s.holdWindow }

// Availability returns the current seat→holder map for a show. Expired
// holds never appear because releasing a booking deletes its seat
// claims.
func (s *Service) Availability(ctx context.Context, showID uint64) (map[string]string, error) {
	return s.store.OccupiedSeats(ctx, showID)
}

// Reserve validates the requested seat set and attempts to claim it
// for the user. On success the returned booking is PENDING and holds
// every requested seat; the caller attaches the payment session
// afterwards via AttachSession.
func (s *Service) Reserve(ctx context.Context, showID uint64, userID string, seats []string) (*model.Booking, error) {
	unique := normalizeSeats(seats)
	if len(unique) == 0 || len(unique) > MaxSeatsPerBooking {
		return nil, ErrInvalidSeats
	}
	for _, seat := range unique {
		if !seatLabel.MatchString(seat) {
			return nil, ErrInvalidSeats
		}
	}
	booking, err := s.store.Reserve(ctx, showID, userID, unique)
	if err != nil {
		var conflict *repository.SeatsUnavailableError
		switch {
		case errors.As(err, &conflict):
			monitoring.ReservationAttempt("conflict")
		case errors.Is(err, repository.ErrShowNotFound):
			monitoring.ReservationAttempt("not_found")
		default:
			monitoring.ReservationAttempt("error")
		}
		return nil, err
	}
	monitoring.ReservationAttempt("ok")
	return booking, nil
}

// AttachSession stores the payment-session reference on a booking.
func (s *Service) AttachSession(ctx context.Context, bookingID, sessionRef string) error {
	return s.store.AttachSession(ctx, bookingID, sessionRef)
}

// Settle applies a payment outcome to a booking. It is safe under
// at-least-once and out-of-order delivery: the store's conditional
// transition dedupes on (booking, target state), so a replay changes
// nothing and emits no second downstream event. Unknown bookings
// surface repository.ErrBookingNotFound.
func (s *Service) Settle(ctx context.Context, bookingID string, outcome Outcome) error {
	var (
		applied bool
		err     error
	)
	switch outcome {
	case OutcomePaid:
		applied, err = s.store.SettlePaid(ctx, bookingID)
	case OutcomeCanceled:
		applied, err = s.store.SettleCanceled(ctx, bookingID)
	default:
		return errors.New("unknown settlement outcome")
	}
	if err != nil {
		return err
	}
	monitoring.Settlement(string(outcome), applied)
	if !applied {
		log.Printf("reservation: settlement %s for booking %s was a no-op", outcome, bookingID)
		return nil
	}
	if outcome == OutcomePaid && s.notifier != nil {
		booking, err := s.store.GetByID(ctx, bookingID)
		if err != nil {
			log.Printf("reservation: load booking %s for notification: %v", bookingID, err)
			return nil
		}
		// Notification failures must not fail the settlement; the
		// booking is already PAID.
		if err := s.notifier.BookingPaid(ctx, booking); err != nil {
			log.Printf("reservation: notify booking %s paid: %v", bookingID, err)
		}
	}
	return nil
}

// ExpireStale expires PENDING bookings older than the hold window as
// of now and releases their seats. It returns how many bookings were
// transitioned.
func (s *Service) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.holdWindow)
	n, err := s.store.ExpireStale(ctx, cutoff, s.sweepBatch)
	if n > 0 {
		monitoring.BookingsExpired(n)
	}
	return n, err
}

// normalizeSeats trims the request to unique, non-empty labels while
// preserving the order of first occurrence.
func normalizeSeats(seats []string) []string {
	unique := make([]string, 0, len(seats))
	seen := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		if seat == "" {
			continue
		}
		if _, ok := seen[seat]; !ok {
			seen[seat] = struct{}{}
			unique = append(unique, seat)
		}
	}
	return unique
}
