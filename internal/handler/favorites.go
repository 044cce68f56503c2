package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quickshow/quickshow/internal/favorites"
	"github.com/quickshow/quickshow/internal/repository"
)

// FavoritesHandler manages the user's favorite movies. The favorite
// set lives in Redis; movie details are joined in from the local cache
// so the list renders without touching the catalog provider.
type FavoritesHandler struct {
	Store     favorites.Store
	MovieRepo *repository.MovieRepo
}

func NewFavoritesHandler(store favorites.Store, movieRepo *repository.MovieRepo) *FavoritesHandler {
	if store == nil {
		panic("nil store passed to NewFavoritesHandler")
	}
	return &FavoritesHandler{Store: store, MovieRepo: movieRepo}
}

// List handles GET /v1/favorites.
func (h *FavoritesHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	ids, err := h.Store.Get(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load favorites"})
	}
	movies := []movieJSON{}
	if len(ids) > 0 && h.MovieRepo != nil {
		rows, err := h.MovieRepo.ListByIDs(ctx, ids)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load favorites"})
		}
		for i := range rows {
			movies = append(movies, toMovieJSON(&rows[i]))
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// Toggle handles POST /v1/favorites/:movieId. It adds the movie to the
// set when absent and removes it when present, reporting the resulting
// state.
func (h *FavoritesHandler) Toggle(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, err := strconv.ParseInt(c.Param("movieId"), 10, 64)
	if err != nil || movieID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	added, err := h.Store.Toggle(c.Request().Context(), userID, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update favorites"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": movieID, "favorite": added})
}
