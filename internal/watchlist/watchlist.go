// Package watchlist keeps the user's curated movie list and mirrors it to persistent storage.
package watchlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/vadimtrunov/moviecenter/internal/core"
)

const (
	// StorageKey is the key the whole watchlist document is stored under.
	StorageKey = "watchlist"

	// SchemaVersion is the version written by this package.
	SchemaVersion = 1
)

// SortOrder selects how Sorted orders the watchlist.
type SortOrder string

// Sort orders.
const (
	SortAdded  SortOrder = "added"
	SortTitle  SortOrder = "title"
	SortRating SortOrder = "rating"
)

// SortOrders lists the orders in display cycle order.
var SortOrders = []SortOrder{SortAdded, SortTitle, SortRating}

// ParseSortOrder validates a sort order name.
func ParseSortOrder(s string) (SortOrder, error) {
	for _, o := range SortOrders {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown sort order %q (want added, title or rating)", s)
}

// Next returns the order following o in SortOrders.
func (o SortOrder) Next() SortOrder {
	i := slices.Index(SortOrders, o)
	return SortOrders[(i+1)%len(SortOrders)]
}

// document is the persisted form.
type document struct {
	Version int          `json:"version"`
	Movies  []core.Movie `json:"movies"`
}

// Store is the watchlist: a set of movies keyed by ID in insertion order.
type Store struct {
	mu     sync.RWMutex
	kv     core.KeyValueStore
	movies []core.Movie
	logger *slog.Logger
}

// Open creates a Store over kv and loads the persisted watchlist.
func Open(kv core.KeyValueStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, logger: logger}
	s.Load()
	return s
}

// Load replaces the in-memory watchlist with the persisted one.
// Missing, corrupt or unsupported data yields an empty watchlist; Load never fails.
func (s *Store) Load() []core.Movie {
	movies, migrate := s.read()

	s.mu.Lock()
	s.movies = movies
	s.mu.Unlock()

	if migrate {
		if err := s.write(movies); err != nil {
			s.logger.Warn("failed to rewrite migrated watchlist", slog.String("error", err.Error()))
		} else {
			s.logger.Info("migrated watchlist to current schema",
				slog.Int("version", SchemaVersion),
				slog.Int("movies", len(movies)),
			)
		}
	}
	return s.Movies()
}

// read decodes the persisted document. migrate is true when the data was in
// an older schema and should be rewritten.
func (s *Store) read() (movies []core.Movie, migrate bool) {
	data, err := s.kv.Get(StorageKey)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.Debug("no persisted watchlist, starting empty")
		return []core.Movie{}, false
	}
	if err != nil {
		s.logger.Warn("failed to read watchlist, starting empty", slog.String("error", err.Error()))
		return []core.Movie{}, false
	}

	trimmed := bytes.TrimSpace(data)

	// Version 0: a bare JSON array of movies.
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var legacy []core.Movie
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			s.logger.Warn("corrupt watchlist data, starting empty", slog.String("error", err.Error()))
			return []core.Movie{}, false
		}
		return dedupe(legacy), true
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		s.logger.Warn("corrupt watchlist data, starting empty", slog.String("error", err.Error()))
		return []core.Movie{}, false
	}
	if doc.Version != SchemaVersion {
		s.logger.Warn("unsupported watchlist schema version, starting empty",
			slog.Int("version", doc.Version),
			slog.Int("supported", SchemaVersion),
		)
		return []core.Movie{}, false
	}
	return dedupe(doc.Movies), false
}

// write persists movies as a full document rewrite.
func (s *Store) write(movies []core.Movie) error {
	data, err := json.Marshal(document{Version: SchemaVersion, Movies: movies})
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}
	if err := s.kv.Set(StorageKey, data); err != nil {
		return fmt.Errorf("persist watchlist: %w", err)
	}
	return nil
}

// Add appends m and persists the watchlist. It reports false without writing
// when a movie with the same ID is already present.
func (s *Store) Add(m core.Movie) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.movies, m.ID) >= 0 {
		return false, nil
	}
	next := append(slices.Clone(s.movies), m)
	if err := s.write(next); err != nil {
		return false, err
	}
	s.movies = next
	s.logger.Debug("added to watchlist", slog.Int("movie_id", m.ID), slog.String("title", m.Title))
	return true, nil
}

// Remove drops every entry with the given ID and persists the result.
func (s *Store) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(s.movies), func(m core.Movie) bool { return m.ID == id })
	if err := s.write(next); err != nil {
		return err
	}
	s.movies = next
	s.logger.Debug("removed from watchlist", slog.Int("movie_id", id))
	return nil
}

// Toggle removes m when present, adds it otherwise. It reports whether m is
// in the watchlist afterwards.
func (s *Store) Toggle(m core.Movie) (bool, error) {
	if s.Contains(m.ID) {
		return false, s.Remove(m.ID)
	}
	if _, err := s.Add(m); err != nil {
		return false, err
	}
	return true, nil
}

// Contains reports whether a movie with the given ID is in the watchlist.
func (s *Store) Contains(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.movies, id) >= 0
}

// Len returns the number of movies.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

// Movies returns a copy of the watchlist in insertion order.
func (s *Store) Movies() []core.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.movies)
}

// Sorted returns a copy of the watchlist in the requested order.
// Ties keep insertion order.
func (s *Store) Sorted(order SortOrder) []core.Movie {
	movies := s.Movies()
	switch order {
	case SortTitle:
		slices.SortStableFunc(movies, func(a, b core.Movie) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case SortRating:
		slices.SortStableFunc(movies, func(a, b core.Movie) int {
			switch {
			case a.VoteAverage > b.VoteAverage:
				return -1
			case a.VoteAverage < b.VoteAverage:
				return 1
			}
			return 0
		})
	}
	return movies
}

func indexOf(movies []core.Movie, id int) int {
	return slices.IndexFunc(movies, func(m core.Movie) bool { return m.ID == id })
}

// dedupe keeps the first occurrence of every ID.
func dedupe(movies []core.Movie) []core.Movie {
	seen := make(map[int]bool, len(movies))
	out := make([]core.Movie, 0, len(movies))
	for _, m := range movies {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}
