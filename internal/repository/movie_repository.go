package repository // repository for cached movie metadata

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quickshow/quickshow/internal/model"
)

// MovieRepo manages the local cache of catalog movies. Rows are written
// once when an admin schedules shows for a movie and read whenever a
// show or favorite needs its metadata.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo given a DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `id, title, overview, poster_path, backdrop_path, release_date,
	original_language, genres, casts, vote_average, runtime, created_at`

// GetByID returns a cached movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id int64) (*model.Movie, error) {
	const q = `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.Title, &m.Overview, &m.PosterPath, &m.BackdropPath, &m.ReleaseDate,
		&m.OriginalLanguage, &m.Genres, &m.Casts, &m.VoteAverage, &m.Runtime, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert inserts a movie or refreshes its metadata when the row already
// exists. The catalog id is the primary key, so repeated scheduling of
// the same movie is idempotent.
func (r *MovieRepo) Upsert(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies
		(id, title, overview, poster_path, backdrop_path, release_date,
		 original_language, genres, casts, vote_average, runtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		 title = VALUES(title), overview = VALUES(overview),
		 poster_path = VALUES(poster_path), backdrop_path = VALUES(backdrop_path),
		 release_date = VALUES(release_date), original_language = VALUES(original_language),
		 genres = VALUES(genres), casts = VALUES(casts),
		 vote_average = VALUES(vote_average), runtime = VALUES(runtime)`
	_, err := r.db.ExecContext(ctx, q,
		m.ID, m.Title, m.Overview, m.PosterPath, m.BackdropPath, m.ReleaseDate,
		m.OriginalLanguage, m.Genres, m.Casts, m.VoteAverage, m.Runtime,
	)
	return err
}

// ListByIDs returns the cached movies matching the given catalog ids.
// Missing ids are simply absent from the result; callers decide whether
// that matters. An empty input returns an empty slice.
func (r *MovieRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Movie, error) {
	if len(ids) == 0 {
		return []model.Movie{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := `SELECT ` + movieColumns + ` FROM movies WHERE id IN (` + placeholders + `)`
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0, len(ids))
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Overview, &m.PosterPath, &m.BackdropPath, &m.ReleaseDate,
			&m.OriginalLanguage, &m.Genres, &m.Casts, &m.VoteAverage, &m.Runtime, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}
