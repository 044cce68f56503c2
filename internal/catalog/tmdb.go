// Package catalog integrates the external movie catalog (TMDB). The
// reservation core never calls it; the client exists to populate the
// local movies cache when an admin schedules shows and to power the
// now-playing picker. Responses for read endpoints are cached in Redis
// to keep the provider out of the hot path.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUpstream wraps any catalog provider failure. Handlers surface it
// as a generic upstream error; reads are safe to retry with backoff.
var ErrUpstream = errors.New("catalog provider error")

const defaultBaseURL = "https://api.themoviedb.org/3"

// NowPlayingEntry is one title from the provider's now-playing list,
// reduced to the fields the admin picker renders.
type NowPlayingEntry struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
}

// MovieDetails is the provider's detail document for one movie.
type MovieDetails struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Overview         string          `json:"overview"`
	PosterPath       string          `json:"poster_path"`
	BackdropPath     string          `json:"backdrop_path"`
	ReleaseDate      string          `json:"release_date"`
	OriginalLanguage string          `json:"original_language"`
	Genres           json.RawMessage `json:"genres"`
	VoteAverage      float64         `json:"vote_average"`
	Runtime          uint32          `json:"runtime"`
}

// Credits carries the raw cast list for a movie.
type Credits struct {
	Cast json.RawMessage `json:"cast"`
}

// Client talks to the catalog provider. Construct it with NewClient;
// the API key and HTTP client are injected rather than read from
// globals so tests can point it at a stub server.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewClient returns a catalog client. rdb may be nil, in which case
// responses are fetched from the provider on every call.
func NewClient(apiKey string, rdb *redis.Client) *Client {
	return &Client{
		baseURL:  defaultBaseURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		rdb:      rdb,
		cacheTTL: 10 * time.Minute,
	}
}

// WithBaseURL overrides the provider URL. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// NowPlaying returns the provider's now-playing list.
func (c *Client) NowPlaying(ctx context.Context) ([]NowPlayingEntry, error) {
	var payload struct {
		Results []NowPlayingEntry `json:"results"`
	}
	if err := c.get(ctx, "/movie/now_playing", "catalog:now_playing", &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// Details returns the detail document for one movie.
func (c *Client) Details(ctx context.Context, movieID int64) (*MovieDetails, error) {
	var d MovieDetails
	path := fmt.Sprintf("/movie/%d", movieID)
	if err := c.get(ctx, path, fmt.Sprintf("catalog:movie:%d", movieID), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CastOf returns the cast list for one movie.
func (c *Client) CastOf(ctx context.Context, movieID int64) (*Credits, error) {
	var cr Credits
	path := fmt.Sprintf("/movie/%d/credits", movieID)
	if err := c.get(ctx, path, fmt.Sprintf("catalog:credits:%d", movieID), &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// get fetches a provider endpoint with a Redis read-through cache.
// Cache errors are ignored; the provider call is the fallback.
func (c *Client) get(ctx context.Context, path, cacheKey string, out interface{}) error {
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			if json.Unmarshal(raw, out) == nil {
				return nil
			}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d from %s", ErrUpstream, resp.StatusCode, path)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, path, err)
	}
	if c.rdb != nil {
		_ = c.rdb.Set(ctx, cacheKey, raw, c.cacheTTL).Err()
	}
	return nil
}
