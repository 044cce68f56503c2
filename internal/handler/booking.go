package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quickshow/quickshow/internal/payment"
	"github.com/quickshow/quickshow/internal/repository"
	"github.com/quickshow/quickshow/internal/reservation"
)

// BookingHandler drives the checkout flow: reserve seats, open a
// payment session, and list the user's paid bookings. All routes
// require authentication; the user id comes from the auth middleware.
type BookingHandler struct {
	Svc         *reservation.Service
	Payments    payment.SessionProvider
	BookingRepo *repository.BookingRepo
	ShowRepo    *repository.ShowRepo
	MovieRepo   *repository.MovieRepo
}

// NewBookingHandler constructs a BookingHandler. BookingRepo may be
// nil only when the server runs on the in-memory store, in which case
// ListMyBookings is not routed.
func NewBookingHandler(svc *reservation.Service, payments payment.SessionProvider, bookingRepo *repository.BookingRepo, showRepo *repository.ShowRepo, movieRepo *repository.MovieRepo) *BookingHandler {
	if svc == nil || payments == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{
		Svc:         svc,
		Payments:    payments,
		BookingRepo: bookingRepo,
		ShowRepo:    showRepo,
		MovieRepo:   movieRepo,
	}
}

// CreateBooking handles POST /v1/bookings. It atomically claims the
// requested seats for the user, creates the PENDING booking, then
// opens a payment session and returns the checkout URL. When a
// requested seat is already taken, the response names the exact
// conflicting seats so the client can refresh its seat map. When the
// payment provider fails, the fresh booking is cancelled immediately
// so the seats do not stay locked until the sweep.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ShowID uint64   `json:"show_id"`
		Seats  []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShowID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_id is required"})
	}

	ctx := c.Request().Context()
	booking, err := h.Svc.Reserve(ctx, body.ShowID, userID, body.Seats)
	if err != nil {
		var conflict *repository.SeatsUnavailableError
		switch {
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":             "some seats are no longer available",
				"unavailable_seats": conflict.Seats,
			})
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, reservation.ErrInvalidSeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat selection"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}

	title := h.movieTitle(c, booking.ShowID)
	sess, err := h.Payments.CreateSession(ctx, payment.SessionRequest{
		BookingID:  booking.ID,
		MovieTitle: title,
		Seats:      booking.Seats,
		UnitCents:  booking.AmountCents / uint32(len(booking.Seats)),
		Quantity:   len(booking.Seats),
	})
	if err != nil {
		log.Printf("booking: create payment session for %s: %v", booking.ID, err)
		if cancelErr := h.Svc.Settle(ctx, booking.ID, reservation.OutcomeCanceled); cancelErr != nil {
			log.Printf("booking: release booking %s after session failure: %v", booking.ID, cancelErr)
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}
	if err := h.Svc.AttachSession(ctx, booking.ID, sess.ID); err != nil {
		log.Printf("booking: attach session %s to booking %s: %v", sess.ID, booking.ID, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":   booking.ID,
		"amount_cents": booking.AmountCents,
		"checkout_url": sess.URL,
	})
}

// movieTitle resolves the movie title for the payment session
// description. Failures fall back to a generic label; the checkout
// must not break over cosmetics.
func (h *BookingHandler) movieTitle(c echo.Context, showID uint64) string {
	if h.ShowRepo == nil || h.MovieRepo == nil {
		return "your show"
	}
	ctx := c.Request().Context()
	show, err := h.ShowRepo.GetByID(ctx, showID)
	if err != nil {
		return "your show"
	}
	movie, err := h.MovieRepo.GetByID(ctx, show.MovieID)
	if err != nil {
		return "your show"
	}
	return movie.Title
}

// ListMyBookings handles GET /v1/my-bookings. It returns the user's
// PAID bookings, newest first, with show and movie details attached.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.BookingRepo.ListPaidByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	items := make([]echo.Map, 0, len(details))
	for _, d := range details {
		items = append(items, echo.Map{
			"booking_id":   d.Booking.ID,
			"seats":        d.Booking.Seats,
			"amount_cents": d.Booking.AmountCents,
			"booked_at":    d.Booking.CreatedAt.Format(time.RFC3339),
			"show": echo.Map{
				"show_id":   d.Show.ID,
				"starts_at": d.Show.StartsAt.Format(time.RFC3339),
			},
			"movie": toMovieJSON(&d.Movie),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
