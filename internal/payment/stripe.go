package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// metadataBookingID is the session metadata key carrying the booking
// identifier through Stripe and back in the webhook.
const metadataBookingID = "booking_id"

// StripeProvider implements SessionProvider and WebhookVerifier on the
// Stripe API. The API client is constructed per instance instead of
// setting the package-global key, so multiple configurations and test
// doubles can coexist.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	currency      string
	frontendURL   string
}

// NewStripeProvider returns a provider bound to the given keys. The
// frontend URL receives the post-payment redirects.
func NewStripeProvider(secretKey, webhookSecret, currency, frontendURL string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{
		api:           api,
		webhookSecret: webhookSecret,
		currency:      currency,
		frontendURL:   frontendURL,
	}
}

// CreateSession creates a checkout session for a booking. The session
// expires after 30 minutes (the provider minimum), which is longer
// than the hold window; the expiry sweep, not the session lifetime, is
// what releases abandoned seats.
func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Tickets for " + req.MovieTitle),
						Description: stripe.String("Seats: " + joinSeats(req.Seats)),
					},
					UnitAmount: stripe.Int64(int64(req.UnitCents)),
				},
				Quantity: stripe.Int64(int64(req.Quantity)),
			},
		},
		SuccessURL: stripe.String(p.frontendURL + "/payment?success=true&booking_id=" + req.BookingID),
		CancelURL:  stripe.String(p.frontendURL + "/payment?success=false"),
		ExpiresAt:  stripe.Int64(time.Now().Add(30 * time.Minute).Unix()),
	}
	params.AddMetadata(metadataBookingID, req.BookingID)
	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrUpstream, err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// Verify authenticates the webhook signature and maps the Stripe event
// to a settlement event. Event types outside the checkout lifecycle
// come back with an empty BookingID and are ignored by the handler.
func (p *StripeProvider) Verify(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: verify webhook: %v", ErrUpstream, err)
	}
	out := &WebhookEvent{Type: string(event.Type)}
	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: decode session event: %v", ErrUpstream, err)
		}
		out.BookingID = sess.Metadata[metadataBookingID]
	}
	return out, nil
}

func joinSeats(seats []string) string {
	s := ""
	for i, seat := range seats {
		if i > 0 {
			s += ", "
		}
		s += seat
	}
	return s
}
