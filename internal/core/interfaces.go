package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a KeyValueStore when a key has no value.
var ErrNotFound = errors.New("not found")

// Catalog defines the interface for remote movie catalogs (TMDb)
type Catalog interface {
	// Popular returns the popular movies listing
	Popular(ctx context.Context) (*Page, error)

	// Discover returns one page of the discovery listing
	Discover(ctx context.Context, params DiscoverParams) (*Page, error)

	// Search searches movies by free text
	Search(ctx context.Context, query string) (*Page, error)

	// Details returns a movie with credits, videos and reviews embedded
	Details(ctx context.Context, id int) (*MovieDetails, error)
}

// KeyValueStore defines the interface for flat persistent storage (bbolt, memory)
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(key string) ([]byte, error)

	// Set replaces the value stored under key
	Set(key string, value []byte) error

	// Close releases the underlying resources
	Close() error
}

// DiscoverParams are the query parameters of the discovery listing
type DiscoverParams struct {
	Page     int    `validate:"min=1,max=500"`
	PageSize int    `validate:"min=1,max=100"`
	SortBy   string `validate:"oneof=popularity.desc popularity.asc vote_average.desc vote_average.asc primary_release_date.desc primary_release_date.asc revenue.desc title.asc"`
}

// DefaultDiscoverParams returns the parameters of the first popularity-sorted page.
func DefaultDiscoverParams() DiscoverParams {
	return DiscoverParams{
		Page:     1,
		PageSize: 20,
		SortBy:   "popularity.desc",
	}
}
