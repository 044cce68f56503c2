package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quickshow/quickshow/internal/catalog"
	"github.com/quickshow/quickshow/internal/model"
	"github.com/quickshow/quickshow/internal/repository"
	queue_publisher "github.com/quickshow/quickshow/internal/service"
)

// AdminShowHandler serves the scheduling surface: browsing the
// provider's now-playing list and turning a picked movie into a batch
// of scheduled shows. All routes sit behind the admin role check.
type AdminShowHandler struct {
	Catalog   *catalog.Client
	MovieRepo *repository.MovieRepo
	ShowRepo  *repository.ShowRepo
	Publisher *queue_publisher.Publisher
}

func NewAdminShowHandler(cat *catalog.Client, movieRepo *repository.MovieRepo, showRepo *repository.ShowRepo, pub *queue_publisher.Publisher) *AdminShowHandler {
	if cat == nil || movieRepo == nil || showRepo == nil {
		panic("nil dependency passed to NewAdminShowHandler")
	}
	return &AdminShowHandler{Catalog: cat, MovieRepo: movieRepo, ShowRepo: showRepo, Publisher: pub}
}

// NowPlaying handles GET /v1/admin/now-playing and proxies the
// provider's current list for the scheduling picker.
func (h *AdminShowHandler) NowPlaying(c echo.Context) error {
	entries, err := h.Catalog.NowPlaying(c.Request().Context())
	if err != nil {
		if errors.Is(err, catalog.ErrUpstream) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog provider unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": entries})
}

// AddShows handles POST /v1/admin/shows. The movie is fetched from the
// provider and cached locally on first use, then one show row is
// created per requested time slot, all at the same per-seat price.
func (h *AdminShowHandler) AddShows(c echo.Context) error {
	var body struct {
		MovieID    int64    `json:"movie_id"`
		StartTimes []string `json:"start_times"`
		PriceCents uint32   `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MovieID <= 0 || len(body.StartTimes) == 0 || body.PriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id, start_times and price_cents are required"})
	}

	starts := make([]time.Time, 0, len(body.StartTimes))
	now := time.Now().UTC()
	for _, raw := range body.StartTimes {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_times must be RFC3339 timestamps"})
		}
		if !t.After(now) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_times must be in the future"})
		}
		starts = append(starts, t.UTC())
	}

	ctx := c.Request().Context()
	movie, err := h.ensureMovie(ctx, body.MovieID)
	if err != nil {
		if errors.Is(err, catalog.ErrUpstream) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog provider unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve movie"})
	}

	shows := make([]model.Show, 0, len(starts))
	for _, t := range starts {
		shows = append(shows, model.Show{
			MovieID:    movie.ID,
			StartsAt:   t,
			PriceCents: body.PriceCents,
		})
	}
	if err := h.ShowRepo.CreateBulk(ctx, shows); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create shows"})
	}

	if h.Publisher != nil {
		if err := h.Publisher.ShowAdded(ctx, movie.ID, movie.Title, len(shows)); err != nil {
			log.Printf("admin: publish show added event for movie %d: %v", movie.ID, err)
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"movie_id":    movie.ID,
		"shows_added": len(shows),
	})
}

// ensureMovie returns the locally cached movie row, fetching details
// and cast from the provider when the movie has not been scheduled
// before.
func (h *AdminShowHandler) ensureMovie(ctx context.Context, movieID int64) (*model.Movie, error) {
	movie, err := h.MovieRepo.GetByID(ctx, movieID)
	if err == nil {
		return movie, nil
	}
	if !errors.Is(err, repository.ErrMovieNotFound) {
		return nil, err
	}

	details, err := h.Catalog.Details(ctx, movieID)
	if err != nil {
		return nil, err
	}
	credits, err := h.Catalog.CastOf(ctx, movieID)
	if err != nil {
		return nil, err
	}
	movie = &model.Movie{
		ID:               details.ID,
		Title:            details.Title,
		Overview:         details.Overview,
		PosterPath:       details.PosterPath,
		BackdropPath:     details.BackdropPath,
		ReleaseDate:      details.ReleaseDate,
		OriginalLanguage: details.OriginalLanguage,
		Genres:           details.Genres,
		Casts:            credits.Cast,
		VoteAverage:      details.VoteAverage,
		Runtime:          details.Runtime,
	}
	if err := h.MovieRepo.Upsert(ctx, movie); err != nil {
		return nil, err
	}
	return movie, nil
}
