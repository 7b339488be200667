package engine

import (
	"fmt"
	"slices"
)

// SelectClip replaces the selection with id, or toggles id's membership
// when multi is set.
func (e *Engine) SelectClip(id string, multi bool) error {
	if ti, _ := e.locateClip(id); ti < 0 {
		return fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}

	if !multi {
		e.selection = []string{id}
		return nil
	}
	if i := slices.Index(e.selection, id); i >= 0 {
		e.selection = slices.Delete(e.selection, i, i+1)
		return nil
	}
	e.selection = append(e.selection, id)
	return nil
}

// SetSelection replaces the selection with the ids that exist.
func (e *Engine) SetSelection(ids []string) {
	e.selection = nil
	for _, id := range ids {
		if ti, _ := e.locateClip(id); ti >= 0 && !slices.Contains(e.selection, id) {
			e.selection = append(e.selection, id)
		}
	}
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.selection = nil
}

// SelectedClipIDs returns the selection in the order clips were selected.
func (e *Engine) SelectedClipIDs() []string {
	return append([]string{}, e.selection...)
}

// IsSelected reports whether id is in the selection.
func (e *Engine) IsSelected(id string) bool {
	return slices.Contains(e.selection, id)
}

func (e *Engine) deselect(ids ...string) {
	e.selection = slices.DeleteFunc(e.selection, func(s string) bool {
		return slices.Contains(ids, s)
	})
}

// pruneSelection drops ids whose clips no longer exist.
func (e *Engine) pruneSelection() {
	e.selection = slices.DeleteFunc(e.selection, func(id string) bool {
		ti, _ := e.locateClip(id)
		return ti < 0
	})
}
