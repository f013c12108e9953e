package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vadimtrunov/moviecenter/internal/core"
)

// fakeCatalog serves discover pages of three movies each and records calls.
type fakeCatalog struct {
	mu       sync.Mutex
	delays   map[int]time.Duration // per discover page
	discover []int
	details  []int
	searches []string
}

func (f *fakeCatalog) Popular(context.Context) (*core.Page, error) {
	return &core.Page{Movies: []core.Movie{}}, nil
}

func (f *fakeCatalog) Discover(_ context.Context, p core.DiscoverParams) (*core.Page, error) {
	f.mu.Lock()
	f.discover = append(f.discover, p.Page)
	delay := f.delays[p.Page]
	f.mu.Unlock()
	time.Sleep(delay)

	movies := make([]core.Movie, 3)
	for i := range movies {
		movies[i] = core.Movie{ID: p.Page*100 + i}
	}
	return &core.Page{
		Movies:       movies,
		Page:         p.Page,
		TotalPages:   10 + p.Page, // changes per page so the newest wins visibly
		TotalResults: 200 + p.Page,
	}, nil
}

func (f *fakeCatalog) Search(_ context.Context, q string) (*core.Page, error) {
	f.mu.Lock()
	f.searches = append(f.searches, q)
	f.mu.Unlock()
	return &core.Page{Movies: []core.Movie{{ID: 1, Title: q}}, Page: 1, TotalPages: 1}, nil
}

func (f *fakeCatalog) Details(_ context.Context, id int) (*core.MovieDetails, error) {
	f.mu.Lock()
	f.details = append(f.details, id)
	f.mu.Unlock()
	return &core.MovieDetails{Movie: core.Movie{ID: id}}, nil
}

func discoverPage(n int) core.DiscoverParams {
	p := core.DefaultDiscoverParams()
	p.Page = n
	return p
}

func TestDiscover_MergesPages(t *testing.T) {
	fc := &fakeCatalog{}
	q := NewMovieQueries(fc, NewCache(0, discardLogger))
	ctx := context.Background()

	first, err := q.Discover.Query(ctx, discoverPage(1))
	if err != nil {
		t.Fatal(err)
	}
	firstLen := len(first.Movies)

	merged, err := q.Discover.Query(ctx, discoverPage(2))
	if err != nil {
		t.Fatal(err)
	}

	if len(merged.Movies) != firstLen+3 {
		t.Fatalf("expected %d movies, got %d", firstLen+3, len(merged.Movies))
	}
	for i, m := range merged.Movies {
		wantPage := 1
		if i >= firstLen {
			wantPage = 2
		}
		if m.ID/100 != wantPage {
			t.Errorf("movie %d (id %d) out of page order", i, m.ID)
		}
	}
	if merged.TotalPages != 12 || merged.TotalResults != 202 || merged.Page != 2 {
		t.Errorf("metadata not taken from page 2: %+v", merged)
	}
	if len(first.Movies) != firstLen {
		t.Error("merge mutated the earlier result")
	}
}

func TestDiscover_KeepsPageThatArrivesLate(t *testing.T) {
	fc := &fakeCatalog{delays: map[int]time.Duration{2: 50 * time.Millisecond}}
	q := NewMovieQueries(fc, NewCache(0, discardLogger))
	ctx := context.Background()

	if _, err := q.Discover.Query(ctx, discoverPage(1)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for _, n := range []int{2, 3} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := q.Discover.Query(ctx, discoverPage(n)); err != nil {
				t.Errorf("page %d: %v", n, err)
			}
		}()
		// Page 3 is requested while page 2 is still in flight.
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	merged, ok := q.Discover.Cached(discoverPage(1))
	if !ok {
		t.Fatal("listing not cached")
	}
	seen := make(map[int]bool)
	for _, m := range merged.Movies {
		seen[m.ID/100] = true
	}
	for _, page := range []int{1, 2, 3} {
		if !seen[page] {
			t.Errorf("page %d missing from merged listing: %d movies", page, len(merged.Movies))
		}
	}
	if len(merged.Movies) != 9 {
		t.Errorf("expected 9 movies, got %d", len(merged.Movies))
	}
	if merged.Page != 3 || merged.TotalPages != 13 {
		t.Errorf("metadata not taken from page 3: page %d of %d", merged.Page, merged.TotalPages)
	}
}

func TestDiscover_SamePageServedFromCache(t *testing.T) {
	fc := &fakeCatalog{}
	q := NewMovieQueries(fc, NewCache(0, discardLogger))
	ctx := context.Background()

	for range 3 {
		if _, err := q.Discover.Query(ctx, discoverPage(1)); err != nil {
			t.Fatal(err)
		}
	}
	if len(fc.discover) != 1 {
		t.Errorf("expected 1 discover request, got %v", fc.discover)
	}

	// A different sort is a different logical listing.
	other := discoverPage(1)
	other.SortBy = "vote_average.desc"
	page, err := q.Discover.Query(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Movies) != 3 {
		t.Errorf("separate listing merged with the first: %d movies", len(page.Movies))
	}
}

func TestMovie_SkipsInvalidID(t *testing.T) {
	fc := &fakeCatalog{}
	q := NewMovieQueries(fc, NewCache(0, discardLogger))

	if _, err := q.Movie.Query(context.Background(), 0); !errors.Is(err, ErrSkipped) {
		t.Errorf("expected ErrSkipped, got %v", err)
	}
	for range 2 {
		d, err := q.Movie.Query(context.Background(), 42)
		if err != nil || d.ID != 42 {
			t.Fatalf("got %+v, %v", d, err)
		}
	}
	if len(fc.details) != 1 {
		t.Errorf("expected 1 details request, got %v", fc.details)
	}
}

func TestSearch_SkipsBlankAndTrims(t *testing.T) {
	fc := &fakeCatalog{}
	q := NewMovieQueries(fc, NewCache(0, discardLogger))
	ctx := context.Background()

	if _, err := q.Search.Query(ctx, "   "); !errors.Is(err, ErrSkipped) {
		t.Errorf("expected ErrSkipped, got %v", err)
	}
	if _, err := q.Search.Query(ctx, " alien "); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Search.Query(ctx, "alien"); err != nil {
		t.Fatal(err)
	}
	if len(fc.searches) != 1 || fc.searches[0] != "alien" {
		t.Errorf("unexpected searches: %q", fc.searches)
	}
}
