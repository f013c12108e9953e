package browse

import (
	"testing"
	"time"
)

func TestDebouncer_BurstCommitsOnce(t *testing.T) {
	d := NewDebouncer(0)
	if d.Delay() != DefaultDebounce {
		t.Errorf("default delay = %v", d.Delay())
	}

	// Every keystroke schedules a commit; only the last one should land.
	var tags []int
	for _, raw := range []string{"a", "al", "ali", "alie", "alien"} {
		tags = append(tags, d.Set(raw))
		if d.Raw() != raw {
			t.Errorf("raw = %q, want %q", d.Raw(), raw)
		}
		if d.Committed() != "" {
			t.Fatalf("premature commit of %q", d.Committed())
		}
	}

	commits := 0
	for _, tag := range tags {
		if v, changed := d.Commit(tag); changed {
			commits++
			if v != "alien" {
				t.Errorf("committed %q, want alien", v)
			}
		}
	}
	if commits != 1 {
		t.Errorf("expected exactly 1 commit, got %d", commits)
	}
}

func TestDebouncer_UnchangedValueDoesNotRecommit(t *testing.T) {
	d := NewDebouncer(time.Millisecond)

	if _, changed := d.Commit(d.Set("heat")); !changed {
		t.Fatal("first commit should change")
	}
	d.Set("heatx")
	if _, changed := d.Commit(d.Set("heat")); changed {
		t.Error("typing back to the committed value should not commit")
	}
	if d.Committed() != "heat" {
		t.Errorf("committed = %q", d.Committed())
	}
}

func TestDebouncer_Reset(t *testing.T) {
	d := NewDebouncer(0)
	d.Commit(d.Set("alien"))
	pending := d.Set("aliens")

	d.Reset()
	if d.Raw() != "" || d.Committed() != "" {
		t.Errorf("reset left %q / %q", d.Raw(), d.Committed())
	}
	if _, changed := d.Commit(pending); changed {
		t.Error("commit scheduled before Reset took effect")
	}
}

func TestPager(t *testing.T) {
	p := NewPager(3)

	if !p.HasMore() {
		t.Fatal("pager should expect a first page")
	}
	if p.ShouldLoadMore(10) {
		t.Error("far from the end, should not load")
	}
	if !p.ShouldLoadMore(2) {
		t.Fatal("near the end, should load")
	}

	if next := p.Next(); next != 1 {
		t.Fatalf("Next = %d, want 1", next)
	}
	if p.ShouldLoadMore(0) {
		t.Error("must not load while a fetch is in flight")
	}

	p.Loaded(1, 2)
	if p.Page() != 1 || p.TotalPages() != 2 {
		t.Errorf("page %d of %d, want 1 of 2", p.Page(), p.TotalPages())
	}
	if !p.ShouldLoadMore(0) {
		t.Error("page 1 of 2 should load more")
	}
	if next := p.Next(); next != 2 {
		t.Fatalf("Next = %d, want 2", next)
	}
	p.Loaded(2, 2)
	if p.HasMore() || p.ShouldLoadMore(0) {
		t.Error("last page reached, should not load more")
	}
}

func TestPager_FailedAllowsRetry(t *testing.T) {
	p := NewPager(0)
	p.Next()
	p.Failed()
	if p.Page() != 0 || p.Loading() {
		t.Errorf("unexpected state after failure: page=%d loading=%v", p.Page(), p.Loading())
	}
	if next := p.Next(); next != 1 {
		t.Errorf("retry should request page 1 again, got %d", next)
	}
}

func TestPager_EmptyListing(t *testing.T) {
	p := NewPager(0)
	p.Next()
	p.Loaded(1, 0)
	if p.HasMore() {
		t.Error("empty listing should have no more pages")
	}
}

func TestPager_LateOlderPageDoesNotRewind(t *testing.T) {
	p := NewPager(0)
	p.Loaded(3, 5)
	p.Loaded(2, 4)
	if p.Page() != 3 || p.TotalPages() != 5 {
		t.Errorf("page %d of %d, want 3 of 5", p.Page(), p.TotalPages())
	}
	p.Reset()
	if p.Page() != 0 || !p.HasMore() {
		t.Error("reset should start over")
	}
}

func TestSelection(t *testing.T) {
	var s Selection
	if _, ok := s.Current(); ok {
		t.Fatal("zero selection should be closed")
	}

	s.Open(550)
	s.Open(680)
	if id, ok := s.Current(); !ok || id != 680 {
		t.Errorf("Current = %d, %v", id, ok)
	}
	if s.IsOpen(550) {
		t.Error("only one movie can be open")
	}

	s.Close()
	if s.IsOpen(680) {
		t.Error("selection still open after Close")
	}
}
