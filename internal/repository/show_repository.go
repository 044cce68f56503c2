// Package repository contains data access for the show catalog. A Show
// is one screening of a movie; browsing endpoints read shows joined
// with their cached movie metadata, while the booking flow reads a
// show only for its price inside the reservation transaction.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/quickshow/quickshow/internal/model"
)

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo given a DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// GetByID returns a single show or ErrShowNotFound.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT id, movie_id, starts_at, price_cents, created_at, updated_at
	           FROM shows WHERE id = ?`
	var s model.Show
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.MovieID, &s.StartsAt, &s.PriceCents, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateBulk inserts multiple shows in one statement. The IDs of the
// passed structs are not populated; callers list shows afterwards when
// they need the generated identifiers.
func (r *ShowRepo) CreateBulk(ctx context.Context, shows []model.Show) error {
	if len(shows) == 0 {
		return nil
	}
	query := `INSERT INTO shows (movie_id, starts_at, price_cents) VALUES `
	args := make([]interface{}, 0, len(shows)*3)
	for i, s := range shows {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, s.MovieID, s.StartsAt.UTC().Format("2006-01-02 15:04:05"), s.PriceCents)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ShowListing pairs a show with the cached metadata of its movie for
// browse responses.
type ShowListing struct {
	Show  model.Show
	Movie model.Movie
}

// ListUpcoming returns all shows starting at or after now, ordered by
// start time, each joined with its movie. Browsing pages collapse the
// result to one entry per movie; that is presentation logic and stays
// in the handler.
func (r *ShowRepo) ListUpcoming(ctx context.Context, now time.Time) ([]ShowListing, error) {
	const q = `SELECT s.id, s.movie_id, s.starts_at, s.price_cents, s.created_at, s.updated_at,
	                  m.id, m.title, m.overview, m.poster_path, m.backdrop_path, m.release_date,
	                  m.original_language, m.genres, m.casts, m.vote_average, m.runtime, m.created_at
	           FROM shows s
	           JOIN movies m ON m.id = s.movie_id
	           WHERE s.starts_at >= ?
	           ORDER BY s.starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var listings []ShowListing
	for rows.Next() {
		var l ShowListing
		if err := rows.Scan(
			&l.Show.ID, &l.Show.MovieID, &l.Show.StartsAt, &l.Show.PriceCents, &l.Show.CreatedAt, &l.Show.UpdatedAt,
			&l.Movie.ID, &l.Movie.Title, &l.Movie.Overview, &l.Movie.PosterPath, &l.Movie.BackdropPath, &l.Movie.ReleaseDate,
			&l.Movie.OriginalLanguage, &l.Movie.Genres, &l.Movie.Casts, &l.Movie.VoteAverage, &l.Movie.Runtime, &l.Movie.CreatedAt,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ListUpcomingByMovie returns the upcoming shows for one movie ordered
// by start time. It is used by the showtime picker.
func (r *ShowRepo) ListUpcomingByMovie(ctx context.Context, movieID int64, now time.Time) ([]model.Show, error) {
	const q = `SELECT id, movie_id, starts_at, price_cents, created_at, updated_at
	           FROM shows WHERE movie_id = ? AND starts_at >= ?
	           ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, movieID, now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var shows []model.Show
	for rows.Next() {
		var s model.Show
		if err := rows.Scan(&s.ID, &s.MovieID, &s.StartsAt, &s.PriceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}
