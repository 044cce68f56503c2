package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postAddShows(t *testing.T, h *AdminShowHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/shows", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.AddShows(e.NewContext(req, rec)))
	return rec
}

// Request validation happens before any repository or provider call,
// so these cases run against a handler with no backends wired.
func TestAddShowsValidation(t *testing.T) {
	h := &AdminShowHandler{}
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing movie", `{"start_times":["` + future + `"],"price_cents":1500}`},
		{"no start times", `{"movie_id":603,"start_times":[],"price_cents":1500}`},
		{"zero price", `{"movie_id":603,"start_times":["` + future + `"]}`},
		{"bad timestamp", `{"movie_id":603,"start_times":["tomorrow"],"price_cents":1500}`},
		{"past start", `{"movie_id":603,"start_times":["` + past + `"],"price_cents":1500}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postAddShows(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
