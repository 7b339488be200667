package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/typeid"
)

// Settings bounds and tunes the engine.
type Settings struct {
	MinZoom           float64
	MaxZoom           float64
	MinPlaybackRate   float64
	MaxPlaybackRate   float64
	SnapThreshold     float64
	GridSize          float64
	TrackAreaWidth    float64
	MinClipDuration   float64
	Duration          float64
	ViewportSpan      float64
	HistoryLimit      int
	EnforceTrackKinds bool
}

// DefaultSettings returns the stock editor configuration.
func DefaultSettings() Settings {
	return Settings{
		MinZoom:           0.1,
		MaxZoom:           10,
		MinPlaybackRate:   0.25,
		MaxPlaybackRate:   4,
		SnapThreshold:     0.5,
		GridSize:          1,
		TrackAreaWidth:    1000,
		MinClipDuration:   0.1,
		Duration:          300,
		ViewportSpan:      60,
		HistoryLimit:      100,
		EnforceTrackKinds: true,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.MinZoom <= 0 || s.MaxZoom < s.MinZoom {
		s.MinZoom, s.MaxZoom = d.MinZoom, d.MaxZoom
	}
	if s.MinPlaybackRate <= 0 || s.MaxPlaybackRate < s.MinPlaybackRate {
		s.MinPlaybackRate, s.MaxPlaybackRate = d.MinPlaybackRate, d.MaxPlaybackRate
	}
	if s.SnapThreshold <= 0 {
		s.SnapThreshold = d.SnapThreshold
	}
	if s.GridSize <= 0 {
		s.GridSize = d.GridSize
	}
	if s.TrackAreaWidth <= 0 {
		s.TrackAreaWidth = d.TrackAreaWidth
	}
	if s.MinClipDuration <= 0 {
		s.MinClipDuration = d.MinClipDuration
	}
	if s.Duration <= 0 {
		s.Duration = d.Duration
	}
	if s.ViewportSpan <= 0 {
		s.ViewportSpan = d.ViewportSpan
	}
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = d.HistoryLimit
	}
	return s
}

// Engine is the authoritative timeline model. It owns tracks, clips, the
// selection, transport and viewport state. It is not safe for concurrent
// use; callers that share an engine serialise access themselves.
type Engine struct {
	settings Settings

	// Track/clip state
	tracks    []document.Track
	selection []string

	// Transport state
	currentTime  float64
	playing      bool
	playbackRate float64

	// Viewport state
	zoom          float64
	viewportStart float64
	viewportEnd   float64

	// Editing toggles
	snapToGrid   bool
	magneticSnap bool
	rippleEdit   bool

	history *History
	newID   func(prefix string) string
}

// New creates an engine with the default two-track layout.
func New(settings Settings) *Engine {
	settings = settings.withDefaults()
	e := &Engine{
		settings:      settings,
		playbackRate:  1,
		zoom:          1,
		viewportStart: 0,
		viewportEnd:   settings.ViewportSpan,
		magneticSnap:  true,
		history:       NewHistory(settings.HistoryLimit),
		newID:         typeid.New,
	}
	e.tracks = document.NewDefaultTimeline().Tracks
	return e
}

// Settings returns the effective settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Load replaces all tracks and clips with tl. Selection, playhead and
// history are reset; viewport and toggles are kept.
func (e *Engine) Load(tl document.Timeline) error {
	seenTracks := map[string]bool{}
	seenClips := map[string]bool{}
	tracks := make([]document.Track, 0, len(tl.Tracks))

	for _, tr := range tl.Tracks {
		if tr.ID == "" || seenTracks[tr.ID] {
			return fmt.Errorf("track %q: duplicate or empty id: %w", tr.ID, ErrInvalidRange)
		}
		seenTracks[tr.ID] = true

		tr = tr.Clone()
		for i := range tr.Clips {
			c := &tr.Clips[i]
			if c.ID == "" || seenClips[c.ID] {
				return fmt.Errorf("clip %q: duplicate or empty id: %w", c.ID, ErrInvalidRange)
			}
			seenClips[c.ID] = true
			if !positive(c.Duration) || !nonNegative(c.StartTime) {
				return fmt.Errorf("clip %s: start %v duration %v: %w", c.ID, c.StartTime, c.Duration, ErrInvalidRange)
			}
			c.TrackID = tr.ID
			c.Selected = false
			if c.Speed <= 0 {
				c.Speed = 1
			}
		}
		tracks = append(tracks, tr)
	}

	e.tracks = tracks
	e.selection = nil
	e.currentTime = 0
	e.playing = false
	e.history.Reset()
	return nil
}

// SetIDGenerator overrides id generation (tests use deterministic ids).
func (e *Engine) SetIDGenerator(gen func(prefix string) string) {
	if gen == nil {
		gen = typeid.New
	}
	e.newID = gen
}

// --- Queries ---

// State is the read surface consumed by renderers and overlays. It is a
// deep copy; mutating it has no effect on the engine.
type State struct {
	Tracks          []document.Track `json:"tracks"`
	CurrentTime     float64          `json:"currentTime"`
	Duration        float64          `json:"duration"`
	Zoom            float64          `json:"zoom"`
	IsPlaying       bool             `json:"isPlaying"`
	PlaybackRate    float64          `json:"playbackRate"`
	ViewportStart   float64          `json:"viewportStart"`
	ViewportEnd     float64          `json:"viewportEnd"`
	SelectedClipIDs []string         `json:"selectedClipIds"`
	SnapToGrid      bool             `json:"snapToGrid"`
	MagneticSnap    bool             `json:"magneticSnap"`
	RippleEdit      bool             `json:"rippleEdit"`
	CanUndo         bool             `json:"canUndo"`
	CanRedo         bool             `json:"canRedo"`
	InGesture       bool             `json:"inGesture"`
}

// State returns a snapshot of the whole timeline.
func (e *Engine) State() State {
	tracks := e.Tracks()
	for i := range tracks {
		for j := range tracks[i].Clips {
			tracks[i].Clips[j].Selected = e.IsSelected(tracks[i].Clips[j].ID)
		}
	}
	return State{
		Tracks:          tracks,
		CurrentTime:     e.currentTime,
		Duration:        e.Duration(),
		Zoom:            e.zoom,
		IsPlaying:       e.playing,
		PlaybackRate:    e.playbackRate,
		ViewportStart:   e.viewportStart,
		ViewportEnd:     e.viewportEnd,
		SelectedClipIDs: e.SelectedClipIDs(),
		SnapToGrid:      e.snapToGrid,
		MagneticSnap:    e.magneticSnap,
		RippleEdit:      e.rippleEdit,
		CanUndo:         e.CanUndo(),
		CanRedo:         e.CanRedo(),
		InGesture:       e.InGesture(),
	}
}

// Tracks returns a deep copy of the tracks in order.
func (e *Engine) Tracks() []document.Track {
	out := make([]document.Track, len(e.tracks))
	for i, tr := range e.tracks {
		out[i] = tr.Clone()
	}
	return out
}

// Track returns a copy of the track with the given id.
func (e *Engine) Track(id string) (document.Track, bool) {
	i := e.trackIndex(id)
	if i < 0 {
		return document.Track{}, false
	}
	return e.tracks[i].Clone(), true
}

// Clip returns a copy of the clip with the given id.
func (e *Engine) Clip(id string) (document.Clip, bool) {
	ti, ci := e.locateClip(id)
	if ti < 0 {
		return document.Clip{}, false
	}
	c := e.tracks[ti].Clips[ci].Clone()
	c.Selected = e.IsSelected(id)
	return c, true
}

// ContentEnd returns the latest clip end time, or 0 for an empty timeline.
func (e *Engine) ContentEnd() float64 {
	end := 0.0
	for _, tr := range e.tracks {
		for _, c := range tr.Clips {
			end = math.Max(end, c.EndTime())
		}
	}
	return end
}

// Duration returns the working duration: the configured length extended
// to cover every clip.
func (e *Engine) Duration() float64 {
	return math.Max(e.settings.Duration, e.ContentEnd())
}

func (e *Engine) trackIndex(id string) int {
	return slices.IndexFunc(e.tracks, func(t document.Track) bool { return t.ID == id })
}

func (e *Engine) locateClip(id string) (int, int) {
	for ti, tr := range e.tracks {
		for ci, c := range tr.Clips {
			if c.ID == id {
				return ti, ci
			}
		}
	}
	return -1, -1
}
