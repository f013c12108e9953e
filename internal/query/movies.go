package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vadimtrunov/moviecenter/internal/core"
)

// Endpoint names.
const (
	DiscoverEndpoint = "discover"
	MovieEndpoint    = "movie"
	SearchEndpoint   = "search"
)

// MovieQueries are the cached catalog endpoints used by the views.
type MovieQueries struct {
	// Discover accumulates every requested page of a listing into one entry.
	Discover *Endpoint[core.DiscoverParams, *core.Page]
	Movie    *Endpoint[int, *core.MovieDetails]
	Search   *Endpoint[string, *core.Page]
}

// NewMovieQueries registers the movie endpoints on c.
func NewMovieQueries(catalog core.Catalog, c *Cache) *MovieQueries {
	return &MovieQueries{
		Discover: Register(c, Definition[core.DiscoverParams, *core.Page]{
			Name:          DiscoverEndpoint,
			Fetch:         catalog.Discover,
			SerializeArgs: listingKey,
			Merge:         appendPage,
			ForceRefetch: func(current, previous core.DiscoverParams) bool {
				return current.Page != previous.Page
			},
		}),
		Movie: Register(c, Definition[int, *core.MovieDetails]{
			Name:          MovieEndpoint,
			Fetch:         catalog.Details,
			SerializeArgs: strconv.Itoa,
			Skip:          func(id int) bool { return id <= 0 },
		}),
		Search: Register(c, Definition[string, *core.Page]{
			Name: SearchEndpoint,
			Fetch: func(ctx context.Context, q string) (*core.Page, error) {
				return catalog.Search(ctx, strings.TrimSpace(q))
			},
			SerializeArgs: strings.TrimSpace,
			Skip:          func(q string) bool { return strings.TrimSpace(q) == "" },
		}),
	}
}

// listingKey leaves the page number out so all pages share one entry.
func listingKey(p core.DiscoverParams) string {
	return fmt.Sprintf("%s/%d", p.SortBy, p.PageSize)
}

// appendPage concatenates incoming after current without modifying either.
// Paging metadata comes from the furthest page, which may have arrived first.
func appendPage(current, incoming *core.Page) *core.Page {
	movies := make([]core.Movie, 0, len(current.Movies)+len(incoming.Movies))
	movies = append(movies, current.Movies...)
	movies = append(movies, incoming.Movies...)
	meta := incoming
	if current.Page > incoming.Page {
		meta = current
	}
	return &core.Page{
		Movies:       movies,
		Page:         meta.Page,
		TotalPages:   meta.TotalPages,
		TotalResults: meta.TotalResults,
	}
}
