// Package command is the serialisable write surface of the timeline
// engine. Every engine mutation has an Operation type, so the same edit can
// arrive from the browser bridge, a websocket client, the REST API or a
// replay script.
package command

import (
	"errors"
	"fmt"

	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
)

const (
	TypeTrackAdd    = "track.add"
	TypeTrackRemove = "track.remove"
	TypeTrackUpdate = "track.update"

	TypeClipAdd       = "clip.add"
	TypeClipRemove    = "clip.remove"
	TypeClipUpdate    = "clip.update"
	TypeClipMove      = "clip.move"
	TypeClipDuplicate = "clip.duplicate"
	TypeClipSplit     = "clip.split"

	TypeSelectionSelect = "selection.select"
	TypeSelectionClear  = "selection.clear"
	TypeSelectionSet    = "selection.set"

	TypePlayheadSet     = "playhead.set"
	TypeZoomSet         = "zoom.set"
	TypeViewportSet     = "viewport.set"
	TypeTransportPlay   = "transport.play"
	TypeTransportPause  = "transport.pause"
	TypeTransportToggle = "transport.toggle"
	TypeTransportRate   = "transport.rate"
	TypeTransportTick   = "transport.tick"

	TypeSettingsToggle = "settings.toggle"

	TypeHistoryUndo = "history.undo"
	TypeHistoryRedo = "history.redo"
)

// Names accepted by settings.toggle.
const (
	SettingSnapToGrid   = "snapToGrid"
	SettingMagneticSnap = "magneticSnap"
	SettingRippleEdit   = "rippleEdit"
)

// ErrInvalid marks an operation that is malformed rather than rejected by
// the engine: unknown type or missing required field.
var ErrInvalid = errors.New("invalid operation")

// Operation is one timeline edit. Only the fields its Type needs are set.
type Operation struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Type      string `json:"type" yaml:"type"`
	Timestamp int64  `json:"timestamp,omitempty" yaml:"-"`
	ClientSeq int64  `json:"clientSeq,omitempty" yaml:"-"`

	TrackID string `json:"trackId,omitempty" yaml:"trackId,omitempty"`
	ClipID  string `json:"clipId,omitempty" yaml:"clipId,omitempty"`

	// track.add
	Kind document.TrackKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name string             `json:"name,omitempty" yaml:"name,omitempty"`

	Clip       *document.ClipInput  `json:"clip,omitempty" yaml:"clip,omitempty"`
	Patch      *document.ClipPatch  `json:"patch,omitempty" yaml:"patch,omitempty"`
	TrackPatch *document.TrackPatch `json:"trackPatch,omitempty" yaml:"trackPatch,omitempty"`

	// Seconds for clip.move (raw start), clip.split and playhead.set.
	Time *float64 `json:"time,omitempty" yaml:"time,omitempty"`

	// viewport.set
	Start *float64 `json:"start,omitempty" yaml:"start,omitempty"`
	End   *float64 `json:"end,omitempty" yaml:"end,omitempty"`

	// zoom.set, transport.rate and transport.tick (elapsed seconds)
	Value *float64 `json:"value,omitempty" yaml:"value,omitempty"`

	// selection.select
	Multi bool `json:"multi,omitempty" yaml:"multi,omitempty"`

	// selection.set; ids of missing clips are dropped.
	ClipIDs []string `json:"clipIds,omitempty" yaml:"clipIds,omitempty"`

	// settings.toggle; a nil Enabled flips the setting.
	Setting string `json:"setting,omitempty" yaml:"setting,omitempty"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// Result carries what an operation created or changed.
type Result struct {
	Track *document.Track `json:"track,omitempty"`
	Clips []document.Clip `json:"clips,omitempty"`
	Label string          `json:"label,omitempty"`
}

// Apply dispatches op to eng. Engine rejections are returned unchanged so
// callers can match them with errors.Is.
func Apply(eng *engine.Engine, op Operation) (Result, error) {
	switch op.Type {
	case TypeTrackAdd:
		return applyTrackAdd(eng, op)
	case TypeTrackRemove:
		return Result{}, eng.RemoveTrack(op.TrackID)
	case TypeTrackUpdate:
		if op.TrackPatch == nil {
			return Result{}, missing(op, "trackPatch")
		}
		tr, err := eng.UpdateTrack(op.TrackID, *op.TrackPatch)
		if err != nil {
			return Result{}, err
		}
		return Result{Track: &tr}, nil

	case TypeClipAdd:
		if op.Clip == nil {
			return Result{}, missing(op, "clip")
		}
		return clipResult(eng.AddClip(op.TrackID, *op.Clip))
	case TypeClipRemove:
		return Result{}, eng.RemoveClip(op.ClipID)
	case TypeClipUpdate:
		if op.Patch == nil {
			return Result{}, missing(op, "patch")
		}
		return clipResult(eng.UpdateClip(op.ClipID, *op.Patch))
	case TypeClipMove:
		return applyClipMove(eng, op)
	case TypeClipDuplicate:
		return clipResult(eng.DuplicateClip(op.ClipID))
	case TypeClipSplit:
		if op.Time == nil {
			return Result{}, missing(op, "time")
		}
		first, second, err := eng.SplitClip(op.ClipID, *op.Time)
		if err != nil {
			return Result{}, err
		}
		return Result{Clips: []document.Clip{first, second}}, nil

	case TypeSelectionSelect:
		return Result{}, eng.SelectClip(op.ClipID, op.Multi)
	case TypeSelectionClear:
		eng.ClearSelection()
		return Result{}, nil
	case TypeSelectionSet:
		eng.SetSelection(op.ClipIDs)
		return Result{}, nil

	case TypePlayheadSet:
		if op.Time == nil {
			return Result{}, missing(op, "time")
		}
		eng.SetCurrentTime(*op.Time)
		return Result{}, nil
	case TypeZoomSet:
		if op.Value == nil {
			return Result{}, missing(op, "value")
		}
		eng.SetZoom(*op.Value)
		return Result{}, nil
	case TypeViewportSet:
		if op.Start == nil || op.End == nil {
			return Result{}, missing(op, "start/end")
		}
		return Result{}, eng.SetViewport(*op.Start, *op.End)
	case TypeTransportPlay:
		eng.Play()
		return Result{}, nil
	case TypeTransportPause:
		eng.Pause()
		return Result{}, nil
	case TypeTransportToggle:
		eng.TogglePlay()
		return Result{}, nil
	case TypeTransportRate:
		if op.Value == nil {
			return Result{}, missing(op, "value")
		}
		eng.SetPlaybackRate(*op.Value)
		return Result{}, nil
	case TypeTransportTick:
		if op.Value == nil {
			return Result{}, missing(op, "value")
		}
		eng.Tick(*op.Value)
		return Result{}, nil

	case TypeSettingsToggle:
		return Result{}, applySetting(eng, op)

	case TypeHistoryUndo:
		label, _ := eng.Undo()
		return Result{Label: label}, nil
	case TypeHistoryRedo:
		label, _ := eng.Redo()
		return Result{Label: label}, nil

	default:
		return Result{}, fmt.Errorf("unknown operation type %q: %w", op.Type, ErrInvalid)
	}
}

func applyTrackAdd(eng *engine.Engine, op Operation) (Result, error) {
	if op.Kind == "" {
		return Result{}, missing(op, "kind")
	}
	if !document.ValidTrackKind(op.Kind) {
		return Result{}, fmt.Errorf("track kind %q: %w", op.Kind, ErrInvalid)
	}
	tr := eng.AddTrack(op.Kind, op.Name)
	return Result{Track: &tr}, nil
}

func applyClipMove(eng *engine.Engine, op Operation) (Result, error) {
	if op.Time == nil {
		return Result{}, missing(op, "time")
	}
	target := op.TrackID
	if target == "" {
		clip, ok := eng.Clip(op.ClipID)
		if !ok {
			return Result{}, fmt.Errorf("clip %s: %w", op.ClipID, engine.ErrNotFound)
		}
		target = clip.TrackID
	}
	return clipResult(eng.MoveClip(op.ClipID, target, *op.Time))
}

func applySetting(eng *engine.Engine, op Operation) error {
	var get func() bool
	var set func(bool)
	switch op.Setting {
	case SettingSnapToGrid:
		get, set = eng.SnapToGrid, eng.SetSnapToGrid
	case SettingMagneticSnap:
		get, set = eng.MagneticSnap, eng.SetMagneticSnap
	case SettingRippleEdit:
		get, set = eng.RippleEdit, eng.SetRippleEdit
	default:
		return fmt.Errorf("unknown setting %q: %w", op.Setting, ErrInvalid)
	}
	if op.Enabled != nil {
		set(*op.Enabled)
	} else {
		set(!get())
	}
	return nil
}

func clipResult(c document.Clip, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Clips: []document.Clip{c}}, nil
}

func missing(op Operation, field string) error {
	return fmt.Errorf("%s: missing %s: %w", op.Type, field, ErrInvalid)
}

// Error codes reported to remote clients.
const (
	CodeNotFound     = "not_found"
	CodeLocked       = "locked"
	CodeInvalidRange = "invalid_range"
	CodeKindMismatch = "kind_mismatch"
	CodeInvalid      = "invalid"
)

// Code classifies an Apply error. A nil error has no code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, engine.ErrLocked):
		return CodeLocked
	case errors.Is(err, engine.ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(err, engine.ErrKindMismatch):
		return CodeKindMismatch
	default:
		return CodeInvalid
	}
}
