package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshow/quickshow/internal/favorites"
)

func toggleFavorite(t *testing.T, h *FavoritesHandler, userID, movieID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/favorites/"+movieID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("movieId")
	c.SetParamValues(movieID)
	if userID != "" {
		c.Set("user_id", userID)
	}
	require.NoError(t, h.Toggle(c))
	return rec
}

func TestToggleFavorite(t *testing.T) {
	h := NewFavoritesHandler(favorites.NewMemoryStore(), nil)

	var resp struct {
		MovieID  int64 `json:"movie_id"`
		Favorite bool  `json:"favorite"`
	}

	rec := toggleFavorite(t, h, "u1", "603")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Favorite, "first toggle adds")

	rec = toggleFavorite(t, h, "u1", "603")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Favorite, "second toggle removes")
}

func TestToggleFavoriteBadID(t *testing.T) {
	h := NewFavoritesHandler(favorites.NewMemoryStore(), nil)
	rec := toggleFavorite(t, h, "u1", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFavoritesRequireAuth(t *testing.T) {
	h := NewFavoritesHandler(favorites.NewMemoryStore(), nil)

	rec := toggleFavorite(t, h, "", "603")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/favorites", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, h.List(e.NewContext(req, rr)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListFavoritesEmpty(t *testing.T) {
	h := NewFavoritesHandler(favorites.NewMemoryStore(), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/favorites", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "u1")
	require.NoError(t, h.List(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Movies []json.RawMessage `json:"movies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Movies)
}
