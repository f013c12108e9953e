package browse

// Selection is the movie whose detail view is open, if any.
type Selection struct {
	id   int
	open bool
}

// Open makes id the current movie, replacing any other.
func (s *Selection) Open(id int) {
	s.id = id
	s.open = true
}

// Close clears the selection.
func (s *Selection) Close() {
	s.id = 0
	s.open = false
}

// Current returns the open movie's ID.
func (s *Selection) Current() (int, bool) {
	return s.id, s.open
}

// IsOpen reports whether id is the current movie.
func (s *Selection) IsOpen(id int) bool {
	return s.open && s.id == id
}
