package core

import "testing"

func TestMovieYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2010-07-16", 2010},
		{"", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		got := Movie{ReleaseDate: tt.date}.Year()
		if got != tt.want {
			t.Errorf("Year(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		path   string
		size   string
		expect string
	}{
		{"/abc123.jpg", "w500", "https://image.tmdb.org/t/p/w500/abc123.jpg"},
		{"", "w500", ""},
		{"/poster.jpg", "original", "https://image.tmdb.org/t/p/original/poster.jpg"},
	}
	for _, tt := range tests {
		got := ImageURL(tt.path, tt.size)
		if got != tt.expect {
			t.Errorf("ImageURL(%q, %q) = %q, want %q", tt.path, tt.size, got, tt.expect)
		}
	}
}

func TestMovieDetailsHelpers(t *testing.T) {
	d := &MovieDetails{
		Movie: Movie{
			ID:    550,
			Title: "Fight Club",
			Credits: &Credits{
				Cast: []Cast{{Name: "Edward Norton"}, {Name: "Brad Pitt"}, {Name: "Helena Bonham Carter"}},
				Crew: []Crew{{Name: "Jim Uhls", Job: "Screenplay"}, {Name: "David Fincher", Job: "Director"}},
			},
			Videos: &VideoList{Results: []Video{
				{Key: "teaser", Site: "YouTube", Type: "Teaser"},
				{Key: "SUXWAEX2jlg", Site: "YouTube", Type: "Trailer"},
			}},
		},
		Genres: []Genre{{ID: 18, Name: "Drama"}},
	}

	if got := d.Director(); got != "David Fincher" {
		t.Errorf("Director() = %q, want David Fincher", got)
	}
	if got := d.TopCast(2); len(got) != 2 || got[1].Name != "Brad Pitt" {
		t.Errorf("TopCast(2) = %+v", got)
	}
	if got := d.TopCast(10); len(got) != 3 {
		t.Errorf("TopCast(10) returned %d entries, want 3", len(got))
	}
	trailer := d.Trailer()
	if trailer == nil || trailer.URL() != "https://www.youtube.com/watch?v=SUXWAEX2jlg" {
		t.Errorf("unexpected trailer: %+v", trailer)
	}
	if names := d.GenreNames(); len(names) != 1 || names[0] != "Drama" {
		t.Errorf("GenreNames() = %v", names)
	}

	empty := &MovieDetails{}
	if empty.Director() != "" || empty.TopCast(3) != nil || empty.Trailer() != nil {
		t.Error("expected zero values for details without credits or videos")
	}
}

func TestPageHasMore(t *testing.T) {
	if !(&Page{Page: 1, TotalPages: 3}).HasMore() {
		t.Error("page 1 of 3 should have more")
	}
	if (&Page{Page: 3, TotalPages: 3}).HasMore() {
		t.Error("page 3 of 3 should not have more")
	}
}

func TestMovieBasic(t *testing.T) {
	m := Movie{ID: 1, Title: "Heat", Credits: &Credits{}, Videos: &VideoList{}, Reviews: &ReviewList{}}
	b := m.Basic()
	if b.Credits != nil || b.Videos != nil || b.Reviews != nil {
		t.Errorf("nested data survived: %+v", b)
	}
	if b.ID != 1 || b.Title != "Heat" || m.Credits == nil {
		t.Errorf("unexpected copy %+v (original %+v)", b, m)
	}
}
