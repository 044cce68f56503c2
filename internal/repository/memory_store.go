package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickshow/quickshow/internal/model"
)

// MemoryStore is an in-memory reservation store with the same contract
// as BookingRepo. It backs the concurrency tests and local development
// without a database. A single mutex spans the conflict check and the
// write of every operation, which gives the same indivisibility the
// SQL store gets from its transaction and unique key.
type MemoryStore struct {
	mu       sync.Mutex
	shows    map[uint64]*model.Show
	bookings map[string]*model.Booking
	// seats[showID][seatLabel] = booking id holding the seat
	seats  map[uint64]map[string]string
	nextID uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shows:    make(map[uint64]*model.Show),
		bookings: make(map[string]*model.Booking),
		seats:    make(map[uint64]map[string]string),
	}
}

// AddShow registers a show and returns its generated id.
func (s *MemoryStore) AddShow(movieID int64, startsAt time.Time, priceCents uint32) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	now := time.Now().UTC()
	s.shows[id] = &model.Show{
		ID: id, MovieID: movieID, StartsAt: startsAt, PriceCents: priceCents,
		CreatedAt: now, UpdatedAt: now,
	}
	s.seats[id] = make(map[string]string)
	return id
}

// OccupiedSeats returns the seat→holder map for a show.
func (s *MemoryStore) OccupiedSeats(ctx context.Context, showID uint64) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shows[showID]; !ok {
		return nil, ErrShowNotFound
	}
	occupied := make(map[string]string, len(s.seats[showID]))
	for seat, bookingID := range s.seats[showID] {
		occupied[seat] = s.bookings[bookingID].UserID
	}
	return occupied, nil
}

// Reserve claims seats and creates a PENDING booking while holding the
// store lock, so overlapping attempts serialize and at most one wins
// any seat.
func (s *MemoryStore) Reserve(ctx context.Context, showID uint64, userID string, seats []string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	show, ok := s.shows[showID]
	if !ok {
		return nil, ErrShowNotFound
	}
	var conflicts []string
	for _, seat := range seats {
		if _, taken := s.seats[showID][seat]; taken {
			conflicts = append(conflicts, seat)
		}
	}
	if len(conflicts) > 0 {
		return nil, &SeatsUnavailableError{Seats: conflicts}
	}
	now := time.Now().UTC()
	booking := &model.Booking{
		ID:          uuid.NewString(),
		UserID:      userID,
		ShowID:      showID,
		Seats:       append([]string(nil), seats...),
		AmountCents: show.PriceCents * uint32(len(seats)),
		Status:      model.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, seat := range seats {
		s.seats[showID][seat] = booking.ID
	}
	s.bookings[booking.ID] = booking
	return cloneBooking(booking), nil
}

// Backdate rewrites a booking's creation time. Tests use it to age a
// hold past the expiry cutoff without sleeping.
func (s *MemoryStore) Backdate(bookingID string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[bookingID]; ok {
		b.CreatedAt = createdAt
	}
}

// AttachSession records the payment-session reference.
func (s *MemoryStore) AttachSession(ctx context.Context, bookingID, sessionRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return ErrBookingNotFound
	}
	b.SessionRef = sessionRef
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// SettlePaid marks a PENDING booking PAID. Replays return
// applied=false with no error, matching the SQL store.
func (s *MemoryStore) SettlePaid(ctx context.Context, bookingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return false, ErrBookingNotFound
	}
	if b.Status != model.BookingPending {
		return false, nil
	}
	b.Status = model.BookingPaid
	b.SessionRef = ""
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

// SettleCanceled expires a PENDING booking and releases its seats.
func (s *MemoryStore) SettleCanceled(ctx context.Context, bookingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(bookingID)
}

func (s *MemoryStore) cancelLocked(bookingID string) (bool, error) {
	b, ok := s.bookings[bookingID]
	if !ok {
		return false, ErrBookingNotFound
	}
	if b.Status != model.BookingPending {
		return false, nil
	}
	b.Status = model.BookingExpired
	b.SessionRef = ""
	b.UpdatedAt = time.Now().UTC()
	for seat, holder := range s.seats[b.ShowID] {
		if holder == b.ID {
			delete(s.seats[b.ShowID], seat)
		}
	}
	return true, nil
}

// ExpireStale expires every PENDING booking created before cutoff and
// returns how many were transitioned.
func (s *MemoryStore) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for id, b := range s.bookings {
		if expired >= limit {
			break
		}
		if b.Status == model.BookingPending && !b.CreatedAt.After(cutoff) {
			if applied, _ := s.cancelLocked(id); applied {
				expired++
			}
		}
	}
	return expired, nil
}

// GetByID returns a copy of the booking or ErrBookingNotFound.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func cloneBooking(b *model.Booking) *model.Booking {
	c := *b
	c.Seats = append([]string(nil), b.Seats...)
	return &c
}
