// Package browse holds the view state behind the listing screens: the
// debounced search text, the infinite-scroll cursor and the open movie.
//
// The types are driven from a single event loop and are not safe for
// concurrent use.
package browse

import "time"

// DefaultDebounce is how long input must stay unchanged before it is committed.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer separates raw input from its committed value.
//
// Every Set returns a tag. The caller schedules Commit(tag) after Delay; the
// commit only takes effect if no Set happened in between, so a burst of input
// produces exactly one commit carrying the final value.
type Debouncer struct {
	delay     time.Duration
	raw       string
	committed string
	tag       int
}

// NewDebouncer creates a Debouncer. A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Delay is the quiet period before a commit.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Set records new raw input and returns the tag for its pending commit.
func (d *Debouncer) Set(raw string) int {
	d.raw = raw
	d.tag++
	return d.tag
}

// Commit commits the raw value if tag is still the latest and the value
// changed. It returns the committed value and whether it changed.
func (d *Debouncer) Commit(tag int) (string, bool) {
	if tag != d.tag || d.raw == d.committed {
		return d.committed, false
	}
	d.committed = d.raw
	return d.committed, true
}

// Raw returns the latest input.
func (d *Debouncer) Raw() string { return d.raw }

// Committed returns the value that drives requests.
func (d *Debouncer) Committed() string { return d.committed }

// Reset clears both values and invalidates pending commits.
func (d *Debouncer) Reset() {
	d.raw = ""
	d.committed = ""
	d.tag++
}
