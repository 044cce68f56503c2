// Package handler exposes the HTTP surface of the booking server.
// This file defines the public browse endpoints: upcoming shows, the
// showtime picker for one movie, and live seat availability. None of
// them require authentication.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quickshow/quickshow/internal/repository"
	"github.com/quickshow/quickshow/internal/reservation"
)

// ShowHandler serves the public browse endpoints.
type ShowHandler struct {
	ShowRepo  *repository.ShowRepo
	MovieRepo *repository.MovieRepo
	Svc       *reservation.Service
}

// NewShowHandler constructs a ShowHandler. All dependencies must be
// non-nil.
func NewShowHandler(showRepo *repository.ShowRepo, movieRepo *repository.MovieRepo, svc *reservation.Service) *ShowHandler {
	if showRepo == nil || movieRepo == nil || svc == nil {
		panic("nil dependency passed to NewShowHandler")
	}
	return &ShowHandler{ShowRepo: showRepo, MovieRepo: movieRepo, Svc: svc}
}

// ListShows handles GET /v1/shows. It returns upcoming shows collapsed
// to one entry per movie (the next screening), ordered by start time,
// so the landing page can render each movie once.
func (h *ShowHandler) ListShows(c echo.Context) error {
	listings, err := h.ShowRepo.ListUpcoming(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load shows"})
	}
	seen := make(map[int64]struct{}, len(listings))
	items := make([]echo.Map, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.Movie.ID]; ok {
			continue
		}
		seen[l.Movie.ID] = struct{}{}
		items = append(items, echo.Map{
			"show_id":     l.Show.ID,
			"starts_at":   l.Show.StartsAt.Format(time.RFC3339),
			"price_cents": l.Show.PriceCents,
			"movie":       toMovieJSON(&l.Movie),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetShowtimes handles GET /v1/movies/:id/shows. It returns the
// movie's metadata plus its upcoming screenings grouped by date, the
// shape the showtime picker consumes.
func (h *ShowHandler) GetShowtimes(c echo.Context) error {
	movieID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || movieID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	ctx := c.Request().Context()
	movie, err := h.MovieRepo.GetByID(ctx, movieID)
	if err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
	}
	shows, err := h.ShowRepo.ListUpcomingByMovie(ctx, movieID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load shows"})
	}
	byDate := make(map[string][]echo.Map)
	for _, s := range shows {
		date := s.StartsAt.Format("2006-01-02")
		byDate[date] = append(byDate[date], echo.Map{
			"show_id":     s.ID,
			"time":        s.StartsAt.Format(time.RFC3339),
			"price_cents": s.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"movie":     toMovieJSON(movie),
		"showtimes": byDate,
	})
}

// GetSeats handles GET /v1/shows/:id/seats. It returns the current
// seat→holder occupancy for the show; a seat absent from the map is
// available. Expired holds never appear because releasing a booking
// removes its claims.
func (h *ShowHandler) GetSeats(c echo.Context) error {
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	occupied, err := h.Svc.Availability(c.Request().Context(), showID)
	if err != nil {
		if err == repository.ErrShowNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"occupied_seats": occupied})
}
