package model

import "time"

// Movie is a locally cached copy of a title fetched from the external
// catalog provider.  The catalog remains the source of truth; rows in
// the movies table exist so shows and favorites can be rendered
// without a round trip to the provider.
//
// Fields:
//  ID               – catalog identifier (shared with the provider).
//  Title            – display title.
//  Overview         – short synopsis.
//  PosterPath       – relative poster image path on the provider CDN.
//  BackdropPath     – relative backdrop image path.
//  ReleaseDate      – release date string as supplied by the provider.
//  OriginalLanguage – ISO language code.
//  Genres           – raw JSON array of genre objects.
//  Casts            – raw JSON array of cast members.
//  VoteAverage      – provider rating.
//  Runtime          – runtime in minutes.
//  CreatedAt        – when the row was cached locally.
type Movie struct {
	ID               int64     // movies.id (catalog id)
	Title            string    // movies.title
	Overview         string    // movies.overview
	PosterPath       string    // movies.poster_path
	BackdropPath     string    // movies.backdrop_path
	ReleaseDate      string    // movies.release_date
	OriginalLanguage string    // movies.original_language
	Genres           []byte    // movies.genres (JSON)
	Casts            []byte    // movies.casts (JSON)
	VoteAverage      float64   // movies.vote_average
	Runtime          uint32    // movies.runtime
	CreatedAt        time.Time // movies.created_at
}
