package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/quickshow/quickshow/internal/model"
)

// BookingRepo is the MySQL implementation of the reservation store.
// The occupancy of a show is the set of booked_seats rows referencing
// it, protected by UNIQUE(show_id, seat_label). Every state change
// runs inside one transaction: the conflict check, the seat rows and
// the booking row commit or roll back as a unit, so no reader ever
// observes a half-applied reservation.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// OccupiedSeats returns the seat→holder map for a show. Seats released
// by expiry or cancellation have their rows deleted, so the map never
// contains stale holds. Returns ErrShowNotFound for unknown shows.
func (r *BookingRepo) OccupiedSeats(ctx context.Context, showID uint64) (map[string]string, error) {
	var exists uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM shows WHERE id = ?`, showID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_label, user_id FROM booked_seats WHERE show_id = ?`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	occupied := make(map[string]string)
	for rows.Next() {
		var seat, user string
		if err := rows.Scan(&seat, &user); err != nil {
			return nil, err
		}
		occupied[seat] = user
	}
	return occupied, rows.Err()
}

// Reserve claims the given seats for userID on a show and creates the
// PENDING booking, all in one transaction. Seat labels must already be
// validated and deduplicated by the caller.
//
// Conflicts are detected twice: a locking read inside the transaction
// reports the exact conflicting subset, and the unique key on
// (show_id, seat_label) closes the window where two transactions pass
// the read before either commits. When the insert trips the unique
// key, the transaction rolls back and the conflicts are re-read so the
// caller still receives the precise seat list. At most one concurrent
// attempt can win any seat.
func (r *BookingRepo) Reserve(ctx context.Context, showID uint64, userID string, seats []string) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var priceCents uint32
	err = tx.QueryRowContext(ctx, `SELECT price_cents FROM shows WHERE id = ?`, showID).Scan(&priceCents)
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}

	conflicts, err := conflictingSeatsTx(ctx, tx, showID, seats)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &SeatsUnavailableError{Seats: conflicts}
	}

	booking := &model.Booking{
		ID:          uuid.NewString(),
		UserID:      userID,
		ShowID:      showID,
		Seats:       seats,
		AmountCents: priceCents * uint32(len(seats)),
		Status:      model.BookingPending,
	}
	const insBooking = `INSERT INTO bookings (id, user_id, show_id, status, amount_cents)
	                    VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insBooking,
		booking.ID, booking.UserID, booking.ShowID, booking.Status, booking.AmountCents); err != nil {
		return nil, err
	}

	insSeats := `INSERT INTO booked_seats (show_id, seat_label, booking_id, user_id) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, seat := range seats {
		if i > 0 {
			insSeats += ","
		}
		insSeats += "(?, ?, ?, ?)"
		args = append(args, showID, seat, booking.ID, userID)
	}
	if _, err := tx.ExecContext(ctx, insSeats, args...); err != nil {
		if isDuplicateKey(err) {
			// A concurrent reservation committed between our locking
			// read and the insert. Drop the transaction and re-read the
			// conflicts so the caller gets the live set.
			_ = tx.Rollback()
			return nil, r.conflictAfterRace(ctx, showID, seats)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	// The reservation exists from here on. Reading back the generated
	// timestamps is best effort: a failure must not turn a committed
	// booking into an error response that leaves the client retrying
	// seats it already holds.
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	if err := r.db.QueryRowContext(ctx, sel, booking.ID).Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		now := time.Now().UTC()
		booking.CreatedAt, booking.UpdatedAt = now, now
	}
	return booking, nil
}

// conflictAfterRace builds the SeatsUnavailableError after a duplicate
// key abort. The re-read can come up empty when the racing winner was
// cancelled or expired in between; the unique key still fired, so the
// attempt lost a race either way and the requested seats are reported
// as the conflict. The client's retry then sees the live state.
func (r *BookingRepo) conflictAfterRace(ctx context.Context, showID uint64, seats []string) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seats)), ",")
	q := `SELECT seat_label FROM booked_seats WHERE show_id = ? AND seat_label IN (` + placeholders + `)`
	args := make([]interface{}, 0, len(seats)+1)
	args = append(args, showID)
	for _, s := range seats {
		args = append(args, s)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	var conflicts []string
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return err
		}
		conflicts = append(conflicts, seat)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(conflicts) == 0 {
		conflicts = seats
	}
	return &SeatsUnavailableError{Seats: conflicts}
}

// conflictingSeatsTx reads, with row locks, the subset of the requested
// seats that is already occupied. The locks serialize overlapping
// attempts that target existing rows; attempts racing on absent rows
// are caught by the unique key instead.
func conflictingSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, seats []string) ([]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seats)), ",")
	q := `SELECT seat_label FROM booked_seats
	      WHERE show_id = ? AND seat_label IN (` + placeholders + `) FOR UPDATE`
	args := make([]interface{}, 0, len(seats)+1)
	args = append(args, showID)
	for _, s := range seats {
		args = append(args, s)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var conflicts []string
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, seat)
	}
	return conflicts, rows.Err()
}

// isDuplicateKey reports whether err is a MySQL 1062 duplicate entry
// error, which Reserve treats as a lost race on a seat.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// AttachSession records the payment-session reference on a booking
// after the provider created the session.
func (r *BookingRepo) AttachSession(ctx context.Context, bookingID, sessionRef string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET session_ref = ? WHERE id = ?`, sessionRef, bookingID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// SettlePaid transitions a booking to PAID. The conditional UPDATE on
// status is the dedupe: the first delivery flips the row and returns
// applied=true, every duplicate or out-of-order redelivery matches
// zero rows and returns applied=false with no error. The seats remain
// held permanently. Unknown ids return ErrBookingNotFound.
func (r *BookingRepo) SettlePaid(ctx context.Context, bookingID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, session_ref = '' WHERE id = ? AND status = ?`,
		model.BookingPaid, bookingID, model.BookingPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	// Nothing changed: distinguish an idempotent replay from an
	// unknown booking.
	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, ErrBookingNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// SettleCanceled expires a PENDING booking and releases its seats in
// one transaction. Replays and settlements of already-terminal
// bookings are no-ops. Unknown ids return ErrBookingNotFound.
func (r *BookingRepo) SettleCanceled(ctx context.Context, bookingID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, session_ref = '' WHERE id = ? AND status = ?`,
		model.BookingExpired, bookingID, model.BookingPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		var status string
		err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&status)
		if err == sql.ErrNoRows {
			return false, ErrBookingNotFound
		}
		if err != nil {
			return false, err
		}
		if err := tx.Commit(); err != nil {
			return false, err
		}
		committed = true
		return false, nil
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM booked_seats WHERE booking_id = ?`, bookingID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// ExpireStale transitions every PENDING booking created before cutoff
// to EXPIRED and releases its seats. Each booking is settled with the
// same conditional-update discipline as SettleCanceled, so a payment
// settlement landing between the scan and the transition wins and the
// seats stay held. Returns the number of bookings expired.
func (r *BookingRepo) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM bookings WHERE status = ? AND created_at <= ? LIMIT ?`,
		model.BookingPending, cutoff.UTC().Format("2006-01-02 15:04:05"), limit)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return 0, scanErr
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		applied, err := r.SettleCanceled(ctx, id)
		if err != nil {
			return expired, err
		}
		if applied {
			expired++
		}
	}
	return expired, nil
}

// GetByID returns a booking with its seat labels, or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT id, user_id, show_id, status, amount_cents, session_ref, created_at, updated_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.ShowID, &b.Status, &b.AmountCents, &b.SessionRef, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	seats, err := r.seatsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Seats = seats
	return &b, nil
}

func (r *BookingRepo) seatsOf(ctx context.Context, bookingID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_label FROM booked_seats WHERE booking_id = ? ORDER BY seat_label`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []string
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

// BookingDetail joins a paid booking with its show and movie for the
// "my bookings" page.
type BookingDetail struct {
	Booking model.Booking
	Show    model.Show
	Movie   model.Movie
}

// ListPaidByUser returns the user's PAID bookings, newest first, with
// show and movie details attached.
func (r *BookingRepo) ListPaidByUser(ctx context.Context, userID string) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.user_id, b.show_id, b.status, b.amount_cents, b.session_ref, b.created_at, b.updated_at,
	                  s.id, s.movie_id, s.starts_at, s.price_cents, s.created_at, s.updated_at,
	                  m.id, m.title, m.overview, m.poster_path, m.backdrop_path, m.release_date,
	                  m.original_language, m.genres, m.casts, m.vote_average, m.runtime, m.created_at
	           FROM bookings b
	           JOIN shows s ON s.id = b.show_id
	           JOIN movies m ON m.id = s.movie_id
	           WHERE b.user_id = ? AND b.status = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, model.BookingPaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var details []BookingDetail
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(
			&d.Booking.ID, &d.Booking.UserID, &d.Booking.ShowID, &d.Booking.Status,
			&d.Booking.AmountCents, &d.Booking.SessionRef, &d.Booking.CreatedAt, &d.Booking.UpdatedAt,
			&d.Show.ID, &d.Show.MovieID, &d.Show.StartsAt, &d.Show.PriceCents, &d.Show.CreatedAt, &d.Show.UpdatedAt,
			&d.Movie.ID, &d.Movie.Title, &d.Movie.Overview, &d.Movie.PosterPath, &d.Movie.BackdropPath, &d.Movie.ReleaseDate,
			&d.Movie.OriginalLanguage, &d.Movie.Genres, &d.Movie.Casts, &d.Movie.VoteAverage, &d.Movie.Runtime, &d.Movie.CreatedAt,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range details {
		seats, err := r.seatsOf(ctx, details[i].Booking.ID)
		if err != nil {
			return nil, err
		}
		details[i].Booking.Seats = seats
	}
	return details, nil
}
