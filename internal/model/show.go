package model

import "time"

// Show represents a scheduled screening of a movie.  Every seat of a
// show sells at the same price.  The canonical occupancy of a show is
// the set of booked_seats rows that reference it; a seat label absent
// from that set is available.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – catalog identifier of the movie being screened.
//  StartsAt   – when the show begins (UTC).
//  PriceCents – per-seat price in cents.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Show struct {
	ID         uint64    // shows.id
	MovieID    int64     // shows.movie_id
	StartsAt   time.Time // shows.starts_at
	PriceCents uint32    // shows.price_cents
	CreatedAt  time.Time // shows.created_at
	UpdatedAt  time.Time // shows.updated_at
}
