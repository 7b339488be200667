package engine

import "github.com/inamate/timeline/backend-go/internal/document"

// PlacedSuggestion is a suggestion marker with its horizontal position.
type PlacedSuggestion struct {
	document.Suggestion
	X       float64 `json:"x"`
	Visible bool    `json:"visible"`
}

// PositionSuggestions places externally supplied markers in pixel space.
// Markers outside the track area at the current zoom are returned with
// Visible false.
func (e *Engine) PositionSuggestions(in []document.Suggestion) []PlacedSuggestion {
	m := e.Mapper()
	out := make([]PlacedSuggestion, 0, len(in))
	for _, s := range in {
		out = append(out, PlacedSuggestion{
			Suggestion: s,
			X:          m.TimeToPixels(s.Timestamp),
			Visible:    m.Visible(s.Timestamp),
		})
	}
	return out
}
