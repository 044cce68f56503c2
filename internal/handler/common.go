package handler

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/quickshow/quickshow/internal/model"
)

// getUserID extracts the authenticated user id stored by the auth
// middleware. An empty or missing value means the middleware did not
// run or rejected the token, so the handler must respond 401.
func getUserID(c echo.Context) (string, error) {
	v, ok := c.Get("user_id").(string)
	if !ok || v == "" {
		return "", errors.New("no authenticated user in context")
	}
	return v, nil
}

// movieJSON is the wire shape of a cached movie. Genres and casts are
// passed through as the raw JSON arrays cached from the catalog.
type movieJSON struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Overview         string          `json:"overview"`
	PosterPath       string          `json:"poster_path"`
	BackdropPath     string          `json:"backdrop_path"`
	ReleaseDate      string          `json:"release_date"`
	OriginalLanguage string          `json:"original_language"`
	Genres           json.RawMessage `json:"genres,omitempty"`
	Casts            json.RawMessage `json:"casts,omitempty"`
	VoteAverage      float64         `json:"vote_average"`
	Runtime          uint32          `json:"runtime"`
}

func toMovieJSON(m *model.Movie) movieJSON {
	return movieJSON{
		ID:               m.ID,
		Title:            m.Title,
		Overview:         m.Overview,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		ReleaseDate:      m.ReleaseDate,
		OriginalLanguage: m.OriginalLanguage,
		Genres:           json.RawMessage(m.Genres),
		Casts:            json.RawMessage(m.Casts),
		VoteAverage:      m.VoteAverage,
		Runtime:          m.Runtime,
	}
}
