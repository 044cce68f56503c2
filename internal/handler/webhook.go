package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quickshow/quickshow/internal/payment"
	"github.com/quickshow/quickshow/internal/repository"
	"github.com/quickshow/quickshow/internal/reservation"
)

// WebhookHandler receives settlement notifications from the payment
// provider and applies them to bookings. The provider retries
// deliveries, so every path through here must be idempotent.
type WebhookHandler struct {
	Svc      *reservation.Service
	Verifier payment.WebhookVerifier
}

func NewWebhookHandler(svc *reservation.Service, verifier payment.WebhookVerifier) *WebhookHandler {
	if svc == nil || verifier == nil {
		panic("nil dependency passed to NewWebhookHandler")
	}
	return &WebhookHandler{Svc: svc, Verifier: verifier}
}

// Handle processes POST /v1/stripe/webhook. A bad signature is a hard
// 400; a verified event for a booking we do not know is acknowledged
// with 200 so the provider stops retrying a delivery that can never
// succeed.
func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable payload"})
	}
	event, err := h.Verifier.Verify(body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}
	if event == nil || event.BookingID == "" {
		// Event type we do not act on. Acknowledge and move on.
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	var outcome reservation.Outcome
	switch event.Type {
	case "checkout.session.completed":
		outcome = reservation.OutcomePaid
	case "checkout.session.expired":
		outcome = reservation.OutcomeCanceled
	default:
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	if err := h.Svc.Settle(c.Request().Context(), event.BookingID, outcome); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			log.Printf("webhook: settlement for unknown booking %s", event.BookingID)
			return c.JSON(http.StatusOK, echo.Map{"received": true})
		}
		log.Printf("webhook: settle booking %s: %v", event.BookingID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settlement failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
