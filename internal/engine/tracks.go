package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/typeid"
)

// AddTrack appends a new lane of kind. An empty name becomes "<Kind> <n>"
// where n counts the tracks of that kind.
func (e *Engine) AddTrack(kind document.TrackKind, name string) document.Track {
	if name == "" {
		n := 1
		for _, tr := range e.tracks {
			if tr.Kind == kind {
				n++
			}
		}
		name = fmt.Sprintf("%s %d", document.Title(string(kind)), n)
	}

	tr := document.NewTrack(e.newID(typeid.PrefixTrack), kind, name)
	_ = e.mutate("add track", func() error {
		e.tracks = append(e.tracks, tr)
		return nil
	})
	return tr.Clone()
}

// RemoveTrack deletes the track and every clip on it, pruning those clips
// from the selection.
func (e *Engine) RemoveTrack(id string) error {
	i := e.trackIndex(id)
	if i < 0 {
		return fmt.Errorf("track %s: %w", id, ErrNotFound)
	}

	return e.mutate("remove track", func() error {
		removed := make([]string, 0, len(e.tracks[i].Clips))
		for _, c := range e.tracks[i].Clips {
			removed = append(removed, c.ID)
		}
		e.tracks = slices.Delete(e.tracks, i, i+1)
		e.deselect(removed...)
		return nil
	})
}

// UpdateTrack applies a partial update to a track's lane settings. Volume
// and pan are clamped. A locked track still accepts patches so it can be
// unlocked; the lock only guards its clips.
func (e *Engine) UpdateTrack(id string, p document.TrackPatch) (document.Track, error) {
	i := e.trackIndex(id)
	if i < 0 {
		return document.Track{}, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	if p.Height != nil && !positive(*p.Height) {
		return document.Track{}, fmt.Errorf("track %s: height %v: %w", id, *p.Height, ErrInvalidRange)
	}
	if p.Volume != nil && math.IsNaN(*p.Volume) {
		return document.Track{}, fmt.Errorf("track %s: volume %v: %w", id, *p.Volume, ErrInvalidRange)
	}
	if p.Pan != nil && math.IsNaN(*p.Pan) {
		return document.Track{}, fmt.Errorf("track %s: pan %v: %w", id, *p.Pan, ErrInvalidRange)
	}

	err := e.mutate("update track", func() error {
		tr := &e.tracks[i]
		if p.Name != nil {
			tr.Name = *p.Name
		}
		if p.Color != nil {
			tr.Color = *p.Color
		}
		if p.Height != nil {
			tr.Height = *p.Height
		}
		if p.Muted != nil {
			tr.Muted = *p.Muted
		}
		if p.Solo != nil {
			tr.Solo = *p.Solo
		}
		if p.Locked != nil {
			tr.Locked = *p.Locked
		}
		if p.Visible != nil {
			tr.Visible = *p.Visible
		}
		if p.Volume != nil {
			tr.Volume = clamp(*p.Volume, 0, 2)
		}
		if p.Pan != nil {
			tr.Pan = clamp(*p.Pan, -1, 1)
		}
		return nil
	})
	if err != nil {
		return document.Track{}, err
	}
	return e.tracks[i].Clone(), nil
}
