package core

import (
	"strings"
	"time"
)

const imageBaseURL = "https://image.tmdb.org/t/p/"

// Movie represents a movie as returned by listing, search and detail endpoints.
// ID is the only key used for deduplication and watchlist membership.
type Movie struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	PosterPath  string      `json:"poster_path,omitempty"`
	Overview    string      `json:"overview"`
	VoteAverage float64     `json:"vote_average"`
	ReleaseDate string      `json:"release_date"`
	Credits     *Credits    `json:"credits,omitempty"`
	Videos      *VideoList  `json:"videos,omitempty"`
	Reviews     *ReviewList `json:"reviews,omitempty"`
}

// Year returns the release year, or 0 when the release date is unknown.
func (m Movie) Year() int {
	t, err := time.Parse(time.DateOnly, m.ReleaseDate)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Basic returns a copy of m without the nested detail data.
func (m Movie) Basic() Movie {
	m.Credits = nil
	m.Videos = nil
	m.Reviews = nil
	return m
}

// PosterURL returns the full poster URL for the given size (e.g. "w500").
func (m Movie) PosterURL(size string) string {
	return ImageURL(m.PosterPath, size)
}

// ImageURL returns the full URL for an image path fragment.
func ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + size + path
}

// MovieDetails is a Movie fetched through the detail endpoint.
type MovieDetails struct {
	Movie
	Runtime int     `json:"runtime"`
	Status  string  `json:"status"`
	Tagline string  `json:"tagline"`
	IMDbID  string  `json:"imdb_id"`
	Genres  []Genre `json:"genres"`
}

// Director returns the name of the first crew member credited as director.
func (d *MovieDetails) Director() string {
	if d.Credits == nil {
		return ""
	}
	for _, c := range d.Credits.Crew {
		if c.Job == "Director" {
			return c.Name
		}
	}
	return ""
}

// TopCast returns at most n cast members in billing order.
func (d *MovieDetails) TopCast(n int) []Cast {
	if d.Credits == nil {
		return nil
	}
	if len(d.Credits.Cast) <= n {
		return d.Credits.Cast
	}
	return d.Credits.Cast[:n]
}

// Trailer returns the first YouTube trailer, or nil.
func (d *MovieDetails) Trailer() *Video {
	if d.Videos == nil {
		return nil
	}
	for i := range d.Videos.Results {
		v := &d.Videos.Results[i]
		if strings.EqualFold(v.Site, "YouTube") && v.Type == "Trailer" {
			return v
		}
	}
	return nil
}

// GenreNames returns the genre names joined for display.
func (d *MovieDetails) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Credits holds cast and crew of a movie.
type Credits struct {
	Cast []Cast `json:"cast"`
	Crew []Crew `json:"crew"`
}

// Cast is a credited actor.
type Cast struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// Crew is a credited crew member.
type Crew struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

// VideoList wraps the embedded videos of a movie.
type VideoList struct {
	Results []Video `json:"results"`
}

// Video is a trailer, teaser or clip hosted on a video site.
type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// URL returns a watch link for YouTube videos, or "" for other sites.
func (v Video) URL() string {
	if !strings.EqualFold(v.Site, "YouTube") || v.Key == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + v.Key
}

// ReviewList wraps the embedded reviews of a movie.
type ReviewList struct {
	Results []Review `json:"results"`
}

// Review is a user review.
type Review struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Page is one page of a listing. Successive pages of the same listing are
// concatenated in arrival order.
type Page struct {
	Movies       []Movie `json:"results"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// HasMore reports whether pages after Page are known to exist.
func (p *Page) HasMore() bool {
	return p.Page < p.TotalPages
}
