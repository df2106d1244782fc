// Package stoplist holds the words excluded from frequency counting.
package stoplist

// Set is a stop-word set.
type Set struct {
	stops map[string]struct{}
}

// New creates a set from the given words.
func New(words []string) *Set {
	stops := make(map[string]struct{}, len(words))
	for _, w := range words {
		stops[w] = struct{}{}
	}
	return &Set{stops: stops}
}

// IsStop reports whether word is a stop word. A nil set has no stop words.
func (s *Set) IsStop(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.stops[word]
	return ok
}

// Len returns the number of stop words.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.stops)
}
