// Package catalog is the TMDb API v3 client behind core.Catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/vadimtrunov/moviecenter/internal/core"
	"github.com/vadimtrunov/moviecenter/internal/httpclient"
)

const (
	defaultBaseURL        = "https://api.themoviedb.org/3"
	defaultPopularTimeout = 2 * time.Second
	popularKey            = "popular"
	detailsAppend         = "credits,videos,reviews"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config configures a Client.
type Config struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	// PopularTimeout bounds the shared popular fetch.
	PopularTimeout time.Duration
	// PopularTTL is how long a popular listing is reused. Zero keeps it for
	// the life of the process.
	PopularTTL time.Duration
}

// Client is a TMDb API v3 client.
type Client struct {
	baseURL        string
	apiKey         string
	popularTimeout time.Duration
	http           *httpclient.Client
	popular        *cache.Cache
	flight         singleflight.Group
	logger         *slog.Logger
}

var _ core.Catalog = (*Client)(nil)

// New creates a new TMDb client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PopularTimeout <= 0 {
		cfg.PopularTimeout = defaultPopularTimeout
	}
	ttl := cfg.PopularTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	httpCfg := httpclient.DefaultConfig()
	if cfg.RequestTimeout > 0 {
		httpCfg.Timeout = cfg.RequestTimeout
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		popularTimeout: cfg.PopularTimeout,
		http:           httpclient.New(httpCfg, logger),
		popular:        cache.New(ttl, 10*time.Minute),
		logger:         logger,
	}
}

// Popular returns the popular listing. Concurrent callers share one request,
// and a successful result is reused until PopularTTL expires.
// If the shared request exceeds PopularTimeout an empty page is returned
// and nothing is cached.
func (c *Client) Popular(ctx context.Context) (*core.Page, error) {
	if page, ok := c.cachedPopular(); ok {
		return page, nil
	}

	ch := c.flight.DoChan(popularKey, func() (any, error) {
		return c.loadPopular(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*core.Page), nil
	}
}

// loadPopular runs as the flight leader. A flight that finished between the
// caller's cache check and this one has already filled the cache.
func (c *Client) loadPopular(ctx context.Context) (*core.Page, error) {
	if page, ok := c.cachedPopular(); ok {
		return page, nil
	}
	return c.fetchPopular(ctx)
}

func (c *Client) cachedPopular() (*core.Page, bool) {
	v, ok := c.popular.Get(popularKey)
	if !ok {
		return nil, false
	}
	page, ok := v.(*core.Page)
	return page, ok
}

// fetchPopular runs detached from the caller that started it: other callers
// may be waiting on the same result.
func (c *Client) fetchPopular(ctx context.Context) (*core.Page, error) {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.popularTimeout)
	defer cancel()

	var page core.Page
	err := c.get(fetchCtx, "/movie/popular", nil, &page)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("popular movies request timed out, returning empty listing",
				slog.Duration("timeout", c.popularTimeout),
			)
			return &core.Page{Movies: []core.Movie{}}, nil
		}
		c.logger.Error("popular movies request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("popular movies: %w", err)
	}

	normalize(&page)
	c.popular.Set(popularKey, &page, cache.DefaultExpiration)
	return &page, nil
}

// Discover returns one page of the discovery listing.
func (c *Client) Discover(ctx context.Context, params core.DiscoverParams) (*core.Page, error) {
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("discover movies: %w: %v", ErrInvalidParams, err)
	}

	q := url.Values{
		"page":          {strconv.Itoa(params.Page)},
		"page_size":     {strconv.Itoa(params.PageSize)},
		"sort_by":       {params.SortBy},
		"include_adult": {"false"},
		"include_video": {"false"},
	}

	var page core.Page
	if err := c.get(ctx, "/discover/movie", q, &page); err != nil {
		return nil, fmt.Errorf("discover movies page %d: %w", params.Page, err)
	}
	normalize(&page)
	return &page, nil
}

// Search searches movies by title.
func (c *Client) Search(ctx context.Context, query string) (*core.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search movies: %w: empty query", ErrInvalidParams)
	}

	q := url.Values{
		"query":         {query},
		"include_adult": {"false"},
	}

	var page core.Page
	if err := c.get(ctx, "/search/movie", q, &page); err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	normalize(&page)
	return &page, nil
}

// Details retrieves a movie with its credits, videos and reviews.
func (c *Client) Details(ctx context.Context, id int) (*core.MovieDetails, error) {
	if id <= 0 {
		return nil, fmt.Errorf("get movie: %w: id %d", ErrInvalidParams, id)
	}

	var details core.MovieDetails
	path := fmt.Sprintf("/movie/%d", id)
	if err := c.get(ctx, path, url.Values{"append_to_response": {detailsAppend}}, &details); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	return &details, nil
}

// get performs an authenticated GET request to the TMDb API and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return newAPIError(resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// normalize makes an absent results array an empty one.
func normalize(page *core.Page) {
	if page.Movies == nil {
		page.Movies = []core.Movie{}
	}
}
