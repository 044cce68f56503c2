// Package payment wraps the external payment provider. The reservation
// core only needs two things from it: a checkout session for a booking
// and verified settlement notifications delivered to the webhook
// handler. Both are expressed as interfaces so handler tests can use
// doubles instead of the Stripe SDK.
package payment

import (
	"context"
	"errors"
)

// ErrUpstream wraps any payment provider failure. A failed session
// creation must not be retried blindly: the seats are already held by
// the PENDING booking and the caller should cancel it first.
var ErrUpstream = errors.New("payment provider error")

// Session is an opaque payment session: its provider reference and the
// URL the client is redirected to.
type Session struct {
	ID  string
	URL string
}

// SessionRequest describes the checkout session to create. Amounts are
// in cents; BookingID travels in the session metadata and comes back
// in the settlement webhook.
type SessionRequest struct {
	BookingID  string
	MovieTitle string
	Seats      []string
	UnitCents  uint32
	Quantity   int
}

// SessionProvider creates checkout sessions.
type SessionProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// WebhookEvent is a verified settlement notification.
type WebhookEvent struct {
	Type      string
	BookingID string
}

// WebhookVerifier authenticates a raw webhook payload and extracts the
// settlement event. Signature verification is the provider boundary's
// responsibility; the reservation core trusts what comes out of here.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) (*WebhookEvent, error)
}
