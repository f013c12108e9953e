// Package lottery picks a random movie to watch.
//
// The carousel shown while spinning is an independent shuffle: it is drawn
// separately from the winner and reveals nothing about it.
package lottery

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vadimtrunov/moviecenter/internal/core"
)

const (
	DefaultCarouselSize = 8
	DefaultSpinDuration = 3 * time.Second
)

// ErrNoCandidates is returned when there is nothing to pick from.
var ErrNoCandidates = errors.New("no candidates to pick from")

// Result is the outcome of a spin.
type Result struct {
	Carousel []core.Movie
	Winner   core.Movie
}

// Lottery draws winners from candidate lists. Safe for concurrent use.
type Lottery struct {
	mu           sync.Mutex
	rng          *rand.Rand
	carouselSize int
	spin         time.Duration
}

// Option configures a Lottery.
type Option func(*Lottery)

// WithSource sets the random source, for reproducible draws.
func WithSource(src rand.Source) Option {
	return func(l *Lottery) { l.rng = rand.New(src) }
}

// WithCarouselSize sets the maximum number of movies shown while spinning.
func WithCarouselSize(n int) Option {
	return func(l *Lottery) {
		if n > 0 {
			l.carouselSize = n
		}
	}
}

// WithSpinDuration sets how long Spin waits before picking.
func WithSpinDuration(d time.Duration) Option {
	return func(l *Lottery) {
		if d >= 0 {
			l.spin = d
		}
	}
}

// New creates a Lottery.
func New(opts ...Option) *Lottery {
	l := &Lottery{
		carouselSize: DefaultCarouselSize,
		spin:         DefaultSpinDuration,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return l
}

// SpinDuration is the delay Spin waits before picking.
func (l *Lottery) SpinDuration() time.Duration { return l.spin }

// Carousel returns a shuffled sample of up to the carousel size of candidates.
func (l *Lottery) Carousel(candidates []core.Movie) []core.Movie {
	l.mu.Lock()
	perm := l.rng.Perm(len(candidates))
	l.mu.Unlock()

	n := min(len(candidates), l.carouselSize)
	out := make([]core.Movie, n)
	for i := range n {
		out[i] = candidates[perm[i]]
	}
	return out
}

// Pick returns a uniformly random candidate.
func (l *Lottery) Pick(candidates []core.Movie) (core.Movie, error) {
	if len(candidates) == 0 {
		return core.Movie{}, ErrNoCandidates
	}
	l.mu.Lock()
	i := l.rng.IntN(len(candidates))
	l.mu.Unlock()
	return candidates[i], nil
}

// Spin draws the carousel, waits the spin duration and then picks a winner
// independently of the carousel.
func (l *Lottery) Spin(ctx context.Context, candidates []core.Movie) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}
	carousel := l.Carousel(candidates)

	if l.spin > 0 {
		timer := time.NewTimer(l.spin)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	winner, err := l.Pick(candidates)
	if err != nil {
		return Result{}, err
	}
	return Result{Carousel: carousel, Winner: winner}, nil
}
