package engine

import (
	"fmt"
	"math"
)

// --- Playhead & transport ---

// SetCurrentTime moves the playhead, clamped to [0, Duration()]. NaN is
// ignored.
func (e *Engine) SetCurrentTime(t float64) {
	if math.IsNaN(t) {
		return
	}
	e.currentTime = clamp(t, 0, e.Duration())
}

func (e *Engine) CurrentTime() float64 { return e.currentTime }

// Play starts playback. Time only advances through Tick or SetCurrentTime
// calls made by an external clock.
func (e *Engine) Play() {
	e.playing = true
}

// Pause stops playback.
func (e *Engine) Pause() {
	e.playing = false
}

// TogglePlay toggles play/pause state.
func (e *Engine) TogglePlay() {
	e.playing = !e.playing
}

func (e *Engine) IsPlaying() bool { return e.playing }

// SetPlaybackRate sets the rate multiplier, clamped to the configured range.
func (e *Engine) SetPlaybackRate(rate float64) {
	if math.IsNaN(rate) {
		return
	}
	e.playbackRate = clamp(rate, e.settings.MinPlaybackRate, e.settings.MaxPlaybackRate)
}

func (e *Engine) PlaybackRate() float64 { return e.playbackRate }

// Tick advances the playhead by elapsed wall seconds scaled by the playback
// rate. Playback pauses at the end of the timeline. When the playhead
// passes the right edge of the track area, the viewport pages forward so
// the playhead sits at its left edge.
func (e *Engine) Tick(elapsed float64) {
	if !e.playing || !(elapsed > 0) {
		return
	}
	end := e.Duration()
	t := e.currentTime + elapsed*e.playbackRate
	if t >= end {
		t = end
		e.playing = false
	}
	e.currentTime = t

	if t >= e.Mapper().VisibleEnd() {
		span := e.viewportEnd - e.viewportStart
		e.viewportStart = t
		e.viewportEnd = t + span
	}
}

// --- Viewport & zoom ---

// SetZoom sets the zoom factor, clamped to the configured range.
func (e *Engine) SetZoom(z float64) {
	if math.IsNaN(z) {
		return
	}
	e.zoom = clamp(z, e.settings.MinZoom, e.settings.MaxZoom)
}

func (e *Engine) Zoom() float64 { return e.zoom }

// SetViewport sets the visible window [start, end). A window that would
// start before zero is shifted right, keeping its span. Both bounds must be
// finite.
func (e *Engine) SetViewport(start, end float64) error {
	if !finite(start) || !finite(end) || !(start < end) {
		return fmt.Errorf("viewport [%v, %v): %w", start, end, ErrInvalidRange)
	}
	if start < 0 {
		end -= start
		start = 0
	}
	e.viewportStart = start
	e.viewportEnd = end
	return nil
}

// ScrollViewport shifts the window by delta seconds, stopping at zero.
func (e *Engine) ScrollViewport(delta float64) {
	_ = e.SetViewport(e.viewportStart+delta, e.viewportEnd+delta)
}

func (e *Engine) Viewport() (float64, float64) { return e.viewportStart, e.viewportEnd }

// Mapper returns the time/pixel mapping for the current viewport and zoom.
func (e *Engine) Mapper() Mapper {
	return Mapper{
		ViewportStart: e.viewportStart,
		ViewportEnd:   e.viewportEnd,
		Zoom:          e.zoom,
		Width:         e.settings.TrackAreaWidth,
	}
}

// --- Editing toggles ---

func (e *Engine) SetSnapToGrid(on bool)   { e.snapToGrid = on }
func (e *Engine) SetMagneticSnap(on bool) { e.magneticSnap = on }

// SetRippleEdit stores the ripple toggle. No operation reads it yet.
func (e *Engine) SetRippleEdit(on bool) { e.rippleEdit = on }

func (e *Engine) ToggleSnapToGrid()   { e.snapToGrid = !e.snapToGrid }
func (e *Engine) ToggleMagneticSnap() { e.magneticSnap = !e.magneticSnap }
func (e *Engine) ToggleRippleEdit()   { e.rippleEdit = !e.rippleEdit }

func (e *Engine) SnapToGrid() bool   { return e.snapToGrid }
func (e *Engine) MagneticSnap() bool { return e.magneticSnap }
func (e *Engine) RippleEdit() bool   { return e.rippleEdit }
