package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/quickshow/quickshow/internal/config"
	"github.com/quickshow/quickshow/internal/handler"
	"github.com/quickshow/quickshow/internal/middleware"
)

// Handlers bundles everything the router registers. Optional surfaces
// are nil when their backing service is not configured; the router
// simply skips them.
type Handlers struct {
	Show      *handler.ShowHandler
	Booking   *handler.BookingHandler
	Webhook   *handler.WebhookHandler
	Favorites *handler.FavoritesHandler
	Admin     *handler.AdminShowHandler
}

// Register wires every route onto the echo instance.
//
// Public routes need no token: anyone can browse shows and seat maps,
// and the payment provider posts settlement webhooks unauthenticated
// (the signature check inside the handler is the auth). Customer
// routes require a valid JWT; booking creation additionally passes
// through the rate limiter. Admin routes require the admin role on
// top of the JWT.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public catalog and availability.
	e.GET("/v1/shows", h.Show.ListShows)
	e.GET("/v1/movies/:id/shows", h.Show.GetShowtimes)
	e.GET("/v1/shows/:id/seats", h.Show.GetSeats)

	// Settlement webhook. Verified by provider signature, not JWT.
	if h.Webhook != nil {
		e.POST("/v1/stripe/webhook", h.Webhook.Handle)
	}

	// Customer routes.
	auth := e.Group("/v1", middleware.Auth(jwtSecret))
	auth.POST("/bookings", h.Booking.CreateBooking, middleware.RateLimit(rlCfg, rdb))
	if h.Booking.BookingRepo != nil {
		auth.GET("/my-bookings", h.Booking.ListMyBookings)
	}
	if h.Favorites != nil {
		auth.GET("/favorites", h.Favorites.List)
		auth.POST("/favorites/:movieId", h.Favorites.Toggle)
	}

	// Admin routes.
	if h.Admin != nil {
		admin := e.Group("/v1/admin", middleware.Auth(jwtSecret), middleware.RequireAdmin())
		admin.GET("/now-playing", h.Admin.NowPlaying)
		admin.POST("/shows", h.Admin.AddShows)
	}
}
