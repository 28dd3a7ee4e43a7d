package editor

import "github.com/ritzau/dataflows/pkg/graph"

// Selection tracks the focused pawn and the one focused before it. Linking
// uses both: the previous device is joined to the current one.
type Selection struct {
	Focused  graph.Pawn
	Previous graph.Pawn
}

// Select focuses p and returns true if p was already the previous focus,
// i.e. the user picked the same pawn twice in a row
func (s *Selection) Select(p graph.Pawn) bool {
	s.Previous = s.Focused
	s.Focused = p
	return p != nil && s.Previous == p
}

// Unfocus clears the focus. The old focus becomes the previous one.
func (s *Selection) Unfocus() {
	s.Previous = s.Focused
	s.Focused = nil
}

// Clear forgets both pawns
func (s *Selection) Clear() {
	s.Focused = nil
	s.Previous = nil
}

// forget drops p from the selection after it was deleted
func (s *Selection) forget(p graph.Pawn) {
	if s.Focused == p {
		s.Focused = nil
	}
	if s.Previous == p {
		s.Previous = nil
	}
}

// devices returns the previous and focused pawns if both are devices
func (s *Selection) devices() (prev, cur *graph.DevicePawn, ok bool) {
	prev, ok1 := s.Previous.(*graph.DevicePawn)
	cur, ok2 := s.Focused.(*graph.DevicePawn)
	return prev, cur, ok1 && ok2 && prev != nil && cur != nil
}
