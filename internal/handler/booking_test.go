package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshow/quickshow/internal/model"
	"github.com/quickshow/quickshow/internal/payment"
	"github.com/quickshow/quickshow/internal/repository"
	"github.com/quickshow/quickshow/internal/reservation"
)

// fakeSessionProvider lets each test script the provider response.
type fakeSessionProvider struct {
	createFunc func(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
	requests   []payment.SessionRequest
}

func (f *fakeSessionProvider) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	f.requests = append(f.requests, req)
	if f.createFunc != nil {
		return f.createFunc(ctx, req)
	}
	return &payment.Session{ID: "cs_test_123", URL: "https://pay.example/cs_test_123"}, nil
}

func newBookingFixture(t *testing.T) (*BookingHandler, *repository.MemoryStore, uint64, *fakeSessionProvider) {
	t.Helper()
	store := repository.NewMemoryStore()
	showID := store.AddShow(42, time.Now().Add(24*time.Hour), 1500)
	svc := reservation.New(store, nil, 15*time.Minute)
	payments := &fakeSessionProvider{}
	h := &BookingHandler{Svc: svc, Payments: payments}
	return h, store, showID, payments
}

func postBooking(t *testing.T, h *BookingHandler, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	require.NoError(t, h.CreateBooking(c))
	return rec
}

func TestCreateBooking(t *testing.T) {
	h, store, showID, payments := newBookingFixture(t)

	rec := postBooking(t, h, "u1", `{"show_id":1,"seats":["A1","A2"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		BookingID   string `json:"booking_id"`
		AmountCents uint32 `json:"amount_cents"`
		CheckoutURL string `json:"checkout_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint32(3000), resp.AmountCents)
	assert.Equal(t, "https://pay.example/cs_test_123", resp.CheckoutURL)

	b, err := store.GetByID(context.Background(), resp.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, "cs_test_123", b.SessionRef)

	require.Len(t, payments.requests, 1)
	assert.Equal(t, resp.BookingID, payments.requests[0].BookingID)
	assert.Equal(t, uint32(1500), payments.requests[0].UnitCents)
	assert.Equal(t, 2, payments.requests[0].Quantity)

	occupied, err := store.OccupiedSeats(context.Background(), showID)
	require.NoError(t, err)
	assert.Equal(t, "u1", occupied["A1"])
	assert.Equal(t, "u1", occupied["A2"])
}

func TestCreateBookingConflict(t *testing.T) {
	h, _, _, _ := newBookingFixture(t)

	rec := postBooking(t, h, "u1", `{"show_id":1,"seats":["A1"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postBooking(t, h, "u2", `{"show_id":1,"seats":["A1","A2"]}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		UnavailableSeats []string `json:"unavailable_seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"A1"}, resp.UnavailableSeats)
}

func TestCreateBookingValidation(t *testing.T) {
	h, _, _, _ := newBookingFixture(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing show", `{"seats":["A1"]}`, http.StatusBadRequest},
		{"no seats", `{"show_id":1,"seats":[]}`, http.StatusBadRequest},
		{"bad label", `{"show_id":1,"seats":["1A"]}`, http.StatusBadRequest},
		{"unknown show", `{"show_id":99,"seats":["A1"]}`, http.StatusNotFound},
		{"malformed json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postBooking(t, h, "u1", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestCreateBookingRequiresAuth(t *testing.T) {
	h, _, _, _ := newBookingFixture(t)
	rec := postBooking(t, h, "", `{"show_id":1,"seats":["A1"]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// A provider failure must release the freshly held seats instead of
// leaving them locked until the sweep.
func TestCreateBookingProviderFailureReleasesSeats(t *testing.T) {
	h, store, showID, payments := newBookingFixture(t)
	payments.createFunc = func(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
		return nil, payment.ErrUpstream
	}

	rec := postBooking(t, h, "u1", `{"show_id":1,"seats":["A1"]}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	occupied, err := store.OccupiedSeats(context.Background(), showID)
	require.NoError(t, err)
	assert.Empty(t, occupied)
}
