package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/typeid"
)

// AddClip places a new clip on trackID. Omitted optional fields default to
// volume 1, opacity 1, speed 1, position {0,0} and visible.
func (e *Engine) AddClip(trackID string, in document.ClipInput) (document.Clip, error) {
	ti := e.trackIndex(trackID)
	if ti < 0 {
		return document.Clip{}, fmt.Errorf("track %s: %w", trackID, ErrNotFound)
	}
	tr := e.tracks[ti]
	if tr.Locked {
		return document.Clip{}, fmt.Errorf("track %s: %w", trackID, ErrLocked)
	}

	kind := in.Kind
	if kind == "" {
		kind = document.ClipKind(tr.Kind)
	}
	if !document.ValidClipKind(kind) {
		return document.Clip{}, fmt.Errorf("clip kind %q: %w", kind, ErrKindMismatch)
	}
	if e.settings.EnforceTrackKinds && !document.Accepts(tr.Kind, kind) {
		return document.Clip{}, fmt.Errorf("%s clip on %s track %s: %w", kind, tr.Kind, trackID, ErrKindMismatch)
	}
	if !positive(in.Duration) {
		return document.Clip{}, fmt.Errorf("clip duration %v: %w", in.Duration, ErrInvalidRange)
	}
	if !nonNegative(in.StartTime) {
		return document.Clip{}, fmt.Errorf("clip start %v: %w", in.StartTime, ErrInvalidRange)
	}
	if in.Speed != nil && !positive(*in.Speed) {
		return document.Clip{}, fmt.Errorf("clip speed %v: %w", *in.Speed, ErrInvalidRange)
	}
	if err := checkClipNumbers(in.SourceOffset, in.Volume, in.Opacity, in.Position, in.TransitionIn, in.TransitionOut); err != nil {
		return document.Clip{}, err
	}

	c := document.Clip{
		ID:            e.newID(typeid.PrefixClip),
		Kind:          kind,
		Name:          in.Name,
		TrackID:       trackID,
		StartTime:     in.StartTime,
		Duration:      in.Duration,
		Source:        in.Source,
		SourceOffset:  in.SourceOffset,
		Muted:         in.Muted,
		Locked:        in.Locked,
		Visible:       true,
		Volume:        1,
		Opacity:       1,
		Speed:         1,
		Effects:       append([]string{}, in.Effects...),
		TransitionIn:  in.TransitionIn,
		TransitionOut: in.TransitionOut,
	}
	if c.Name == "" {
		c.Name = document.Title(string(kind))
	}
	if in.Visible != nil {
		c.Visible = *in.Visible
	}
	if in.Volume != nil {
		c.Volume = clamp(*in.Volume, 0, 2)
	}
	if in.Opacity != nil {
		c.Opacity = clamp(*in.Opacity, 0, 1)
	}
	if in.Speed != nil {
		c.Speed = *in.Speed
	}
	if in.Position != nil {
		c.Position = *in.Position
	}
	c = c.Clone()

	_ = e.mutate("add clip", func() error {
		e.tracks[ti].Clips = append(e.tracks[ti].Clips, c)
		return nil
	})
	return c.Clone(), nil
}

// RemoveClip deletes a clip and drops it from the selection.
func (e *Engine) RemoveClip(id string) error {
	ti, ci := e.locateClip(id)
	if ti < 0 {
		return fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	if e.clipLocked(ti, ci) {
		return fmt.Errorf("clip %s: %w", id, ErrLocked)
	}

	return e.mutate("remove clip", func() error {
		e.tracks[ti].Clips = slices.Delete(e.tracks[ti].Clips, ci, ci+1)
		e.deselect(id)
		return nil
	})
}

// UpdateClip shallow-merges p into the clip. A locked clip only accepts a
// patch that changes nothing but its lock. Volume and opacity are clamped;
// a non-positive duration or speed, or a negative start, is rejected.
func (e *Engine) UpdateClip(id string, p document.ClipPatch) (document.Clip, error) {
	ti, ci := e.locateClip(id)
	if ti < 0 {
		return document.Clip{}, fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	if e.clipLocked(ti, ci) && !p.OnlyLocks() {
		return document.Clip{}, fmt.Errorf("clip %s: %w", id, ErrLocked)
	}
	if p.Duration != nil && !positive(*p.Duration) {
		return document.Clip{}, fmt.Errorf("clip %s: duration %v: %w", id, *p.Duration, ErrInvalidRange)
	}
	if p.StartTime != nil && !nonNegative(*p.StartTime) {
		return document.Clip{}, fmt.Errorf("clip %s: start %v: %w", id, *p.StartTime, ErrInvalidRange)
	}
	if p.Speed != nil && !positive(*p.Speed) {
		return document.Clip{}, fmt.Errorf("clip %s: speed %v: %w", id, *p.Speed, ErrInvalidRange)
	}
	offset := 0.0
	if p.SourceOffset != nil {
		offset = *p.SourceOffset
	}
	if err := checkClipNumbers(offset, p.Volume, p.Opacity, p.Position, p.TransitionIn, p.TransitionOut); err != nil {
		return document.Clip{}, fmt.Errorf("clip %s: %w", id, err)
	}

	err := e.mutate("update clip", func() error {
		c := &e.tracks[ti].Clips[ci]
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.StartTime != nil {
			c.StartTime = *p.StartTime
		}
		if p.Duration != nil {
			c.Duration = *p.Duration
		}
		if p.Source != nil {
			c.Source = *p.Source
		}
		if p.SourceOffset != nil {
			c.SourceOffset = *p.SourceOffset
		}
		if p.Muted != nil {
			c.Muted = *p.Muted
		}
		if p.Locked != nil {
			c.Locked = *p.Locked
		}
		if p.Visible != nil {
			c.Visible = *p.Visible
		}
		if p.Volume != nil {
			c.Volume = clamp(*p.Volume, 0, 2)
		}
		if p.Opacity != nil {
			c.Opacity = clamp(*p.Opacity, 0, 1)
		}
		if p.Speed != nil {
			c.Speed = *p.Speed
		}
		if p.Position != nil {
			c.Position = *p.Position
		}
		if p.Effects != nil {
			c.Effects = append([]string{}, (*p.Effects)...)
		}
		if p.TransitionIn != nil {
			c.TransitionIn = transitionOrNil(*p.TransitionIn)
		}
		if p.TransitionOut != nil {
			c.TransitionOut = transitionOrNil(*p.TransitionOut)
		}
		return nil
	})
	if err != nil {
		return document.Clip{}, err
	}
	return e.tracks[ti].Clips[ci].Clone(), nil
}

// checkClipNumbers rejects the optional numeric fields shared by ClipInput
// and ClipPatch when they are NaN or out of range. Volume and opacity may
// be infinite; they are clamped afterwards.
func checkClipNumbers(offset float64, volume, opacity *float64, pos *document.Position, in, out *document.Transition) error {
	if !nonNegative(offset) {
		return fmt.Errorf("source offset %v: %w", offset, ErrInvalidRange)
	}
	if volume != nil && math.IsNaN(*volume) {
		return fmt.Errorf("volume %v: %w", *volume, ErrInvalidRange)
	}
	if opacity != nil && math.IsNaN(*opacity) {
		return fmt.Errorf("opacity %v: %w", *opacity, ErrInvalidRange)
	}
	if pos != nil && !(finite(pos.X) && finite(pos.Y)) {
		return fmt.Errorf("position (%v, %v): %w", pos.X, pos.Y, ErrInvalidRange)
	}
	for _, t := range []*document.Transition{in, out} {
		if t != nil && !nonNegative(t.Duration) {
			return fmt.Errorf("transition duration %v: %w", t.Duration, ErrInvalidRange)
		}
	}
	return nil
}

func transitionOrNil(t document.Transition) *document.Transition {
	if t.Kind == "" {
		return nil
	}
	return &t
}

// MoveClip resolves rawStart through the snap resolver, then moves the clip
// to the end of targetTrackID's clip list at the resolved start time. The
// clip keeps its id.
func (e *Engine) MoveClip(id, targetTrackID string, rawStart float64) (document.Clip, error) {
	ti, ci := e.locateClip(id)
	if ti < 0 {
		return document.Clip{}, fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	if e.clipLocked(ti, ci) {
		return document.Clip{}, fmt.Errorf("clip %s: %w", id, ErrLocked)
	}
	tj := e.trackIndex(targetTrackID)
	if tj < 0 {
		return document.Clip{}, fmt.Errorf("track %s: %w", targetTrackID, ErrNotFound)
	}
	target := e.tracks[tj]
	if target.Locked {
		return document.Clip{}, fmt.Errorf("track %s: %w", targetTrackID, ErrLocked)
	}
	if !finite(rawStart) {
		return document.Clip{}, fmt.Errorf("clip %s: start %v: %w", id, rawStart, ErrInvalidRange)
	}
	clip := e.tracks[ti].Clips[ci]
	if e.settings.EnforceTrackKinds && !document.Accepts(target.Kind, clip.Kind) {
		return document.Clip{}, fmt.Errorf("%s clip onto %s track %s: %w", clip.Kind, target.Kind, targetTrackID, ErrKindMismatch)
	}

	start := e.SnapTime(rawStart, id)
	if start < 0 {
		start = 0
	}
	clip.StartTime = start
	clip.TrackID = targetTrackID

	_ = e.mutate("move clip", func() error {
		e.tracks[ti].Clips = slices.Delete(e.tracks[ti].Clips, ci, ci+1)
		e.tracks[tj].Clips = append(e.tracks[tj].Clips, clip)
		return nil
	})
	return clip.Clone(), nil
}

// DuplicateClip copies a clip onto the same track directly after the
// original. The copy gets a new id and is not selected.
func (e *Engine) DuplicateClip(id string) (document.Clip, error) {
	ti, ci := e.locateClip(id)
	if ti < 0 {
		return document.Clip{}, fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	if e.tracks[ti].Locked {
		return document.Clip{}, fmt.Errorf("track %s: %w", e.tracks[ti].ID, ErrLocked)
	}

	orig := e.tracks[ti].Clips[ci]
	dup := orig.Clone()
	dup.ID = e.newID(typeid.PrefixClip)
	dup.StartTime = orig.EndTime()
	dup.Selected = false

	_ = e.mutate("duplicate clip", func() error {
		e.tracks[ti].Clips = append(e.tracks[ti].Clips, dup)
		return nil
	})
	return dup.Clone(), nil
}

// SplitClip cuts a clip at t, which must fall strictly inside it. The
// original id is replaced by two new clips: the first keeps the original
// start, the second starts at t and advances its source offset. The
// original's in transition stays on the first half, its out transition on
// the second.
func (e *Engine) SplitClip(id string, t float64) (document.Clip, document.Clip, error) {
	ti, ci := e.locateClip(id)
	if ti < 0 {
		return document.Clip{}, document.Clip{}, fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	if e.clipLocked(ti, ci) {
		return document.Clip{}, document.Clip{}, fmt.Errorf("clip %s: %w", id, ErrLocked)
	}
	orig := e.tracks[ti].Clips[ci]
	if !(t > orig.StartTime && t < orig.EndTime()) {
		return document.Clip{}, document.Clip{}, fmt.Errorf("split at %v outside clip %s [%v, %v): %w",
			t, id, orig.StartTime, orig.EndTime(), ErrInvalidRange)
	}

	cut := t - orig.StartTime

	first := orig.Clone()
	first.ID = e.newID(typeid.PrefixClip)
	first.Duration = cut
	first.TransitionOut = nil

	second := orig.Clone()
	second.ID = e.newID(typeid.PrefixClip)
	second.StartTime = t
	second.Duration = orig.Duration - cut
	second.SourceOffset = orig.SourceOffset + cut*orig.Speed
	second.TransitionIn = nil

	_ = e.mutate("split clip", func() error {
		e.tracks[ti].Clips = slices.Replace(e.tracks[ti].Clips, ci, ci+1, first, second)
		e.deselect(id)
		return nil
	})
	return first.Clone(), second.Clone(), nil
}

// SnapTime applies the snap resolver to t when magnetic snap is on. Edges
// of the clip with id exclude are ignored.
func (e *Engine) SnapTime(t float64, exclude string) float64 {
	if !e.magneticSnap {
		return t
	}
	s := Snapper{
		Threshold: e.settings.SnapThreshold,
		GridSize:  e.settings.GridSize,
		Grid:      e.snapToGrid,
	}
	return s.Resolve(t, e.tracks, exclude)
}

func (e *Engine) clipLocked(ti, ci int) bool {
	return e.tracks[ti].Locked || e.tracks[ti].Clips[ci].Locked
}
