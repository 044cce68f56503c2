package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNowPlaying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/now_playing", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"id":603,"title":"The Matrix","vote_average":8.2}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", nil).WithBaseURL(srv.URL)
	entries, err := c.NowPlaying(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(603), entries[0].ID)
	assert.Equal(t, "The Matrix", entries[0].Title)
}

func TestDetailsAndCast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/603":
			w.Write([]byte(`{"id":603,"title":"The Matrix","runtime":136,"genres":[{"id":28,"name":"Action"}]}`))
		case "/movie/603/credits":
			w.Write([]byte(`{"cast":[{"name":"Keanu Reeves"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient("test-key", nil).WithBaseURL(srv.URL)
	ctx := context.Background()

	d, err := c.Details(ctx, 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", d.Title)
	assert.Equal(t, uint32(136), d.Runtime)
	assert.JSONEq(t, `[{"id":28,"name":"Action"}]`, string(d.Genres))

	cr, err := c.CastOf(ctx, 603)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Keanu Reeves"}]`, string(cr.Cast))
}

func TestUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-key", nil).WithBaseURL(srv.URL)
	_, err := c.NowPlaying(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)

	// Unreachable provider.
	c = NewClient("test-key", nil).WithBaseURL("http://127.0.0.1:1")
	_, err = c.Details(context.Background(), 603)
	assert.ErrorIs(t, err, ErrUpstream)
}
