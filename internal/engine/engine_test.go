package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/inamate/timeline/backend-go/internal/document"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(DefaultSettings())
	n := 0
	e.SetIDGenerator(func(prefix string) string {
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	})
	return e
}

func addClip(t *testing.T, e *Engine, trackID string, kind document.ClipKind, start, duration float64) document.Clip {
	t.Helper()
	c, err := e.AddClip(trackID, document.ClipInput{Kind: kind, StartTime: start, Duration: duration})
	if err != nil {
		t.Fatalf("AddClip(%s, %v, %v): %v", trackID, start, duration, err)
	}
	return c
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ptr[T any](v T) *T { return &v }

func TestNewStartsWithDefaultTracks(t *testing.T) {
	e := newTestEngine(t)
	tracks := e.Tracks()
	if len(tracks) != 2 || tracks[0].ID != "video-1" || tracks[1].ID != "audio-1" {
		t.Fatalf("unexpected default tracks: %+v", tracks)
	}
	if !e.MagneticSnap() || e.SnapToGrid() || e.RippleEdit() {
		t.Errorf("unexpected toggles: magnetic=%v grid=%v ripple=%v", e.MagneticSnap(), e.SnapToGrid(), e.RippleEdit())
	}
	start, end := e.Viewport()
	if start != 0 || end != 60 {
		t.Errorf("viewport = [%v, %v), want [0, 60)", start, end)
	}
}

func TestScenarioSplitThirtySecondClip(t *testing.T) {
	e := newTestEngine(t)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 0, 30)

	first, second, err := e.SplitClip(c.ID, 10)
	if err != nil {
		t.Fatalf("SplitClip: %v", err)
	}

	tr, _ := e.Track("video-1")
	if len(tr.Clips) != 2 {
		t.Fatalf("got %d clips, want 2", len(tr.Clips))
	}
	if tr.Clips[0].Duration != 10 || tr.Clips[1].Duration != 20 {
		t.Errorf("durations = %v, %v, want 10, 20", tr.Clips[0].Duration, tr.Clips[1].Duration)
	}
	if _, ok := e.Clip(c.ID); ok {
		t.Errorf("original clip %s still present", c.ID)
	}
	if first.ID == c.ID || second.ID == c.ID || first.ID == second.ID {
		t.Errorf("split ids not fresh: orig=%s first=%s second=%s", c.ID, first.ID, second.ID)
	}
	if first.StartTime != 0 || second.StartTime != 10 {
		t.Errorf("starts = %v, %v", first.StartTime, second.StartTime)
	}
	if first.Duration+second.Duration != c.Duration {
		t.Errorf("combined duration %v, want %v", first.Duration+second.Duration, c.Duration)
	}
}

func TestScenarioDragSnapsToPreviousClipEnd(t *testing.T) {
	e := newTestEngine(t)
	addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)
	second := addClip(t, e, "video-1", document.ClipKindVideo, 5, 10)

	moved, err := e.MoveClip(second.ID, "video-1", 4.7)
	if err != nil {
		t.Fatalf("MoveClip: %v", err)
	}
	if moved.StartTime != 5.0 {
		t.Errorf("start = %v, want 5.0", moved.StartTime)
	}
	if moved.ID != second.ID {
		t.Errorf("move changed id: %s -> %s", second.ID, moved.ID)
	}
}

func TestScenarioRemoveTrackPrunesSelection(t *testing.T) {
	e := newTestEngine(t)
	v := addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)
	a := addClip(t, e, "audio-1", document.ClipKindAudio, 0, 5)

	if err := e.SelectClip(v.ID, false); err != nil {
		t.Fatal(err)
	}
	if err := e.SelectClip(a.ID, true); err != nil {
		t.Fatal(err)
	}

	if err := e.RemoveTrack("audio-1"); err != nil {
		t.Fatalf("RemoveTrack: %v", err)
	}
	sel := e.SelectedClipIDs()
	if slices.Contains(sel, a.ID) {
		t.Errorf("selection still holds removed clip: %v", sel)
	}
	if !slices.Equal(sel, []string{v.ID}) {
		t.Errorf("selection = %v, want [%s]", sel, v.ID)
	}
	if _, ok := e.Track("audio-1"); ok {
		t.Error("track audio-1 still present")
	}
}

func TestMagneticSnapToClipEnd(t *testing.T) {
	e := newTestEngine(t)
	addClip(t, e, "video-1", document.ClipKindVideo, 2, 8)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 20, 5)

	moved, err := e.MoveClip(c.ID, "video-1", 9.8)
	if err != nil {
		t.Fatal(err)
	}
	if moved.StartTime != 10.0 {
		t.Errorf("start = %v, want 10.0", moved.StartTime)
	}
}

func TestMoveWithoutMagneticSnapUsesRawTime(t *testing.T) {
	e := newTestEngine(t)
	e.SetMagneticSnap(false)
	e.SetSnapToGrid(true)
	addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 10, 5)

	moved, err := e.MoveClip(c.ID, "video-1", 4.7)
	if err != nil {
		t.Fatal(err)
	}
	if moved.StartTime != 4.7 {
		t.Errorf("start = %v, want 4.7", moved.StartTime)
	}
}

func TestMoveClampsNegativeStart(t *testing.T) {
	e := newTestEngine(t)
	e.SetMagneticSnap(false)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 3, 5)

	moved, err := e.MoveClip(c.ID, "video-1", -2)
	if err != nil {
		t.Fatal(err)
	}
	if moved.StartTime != 0 {
		t.Errorf("start = %v, want 0", moved.StartTime)
	}
}

func TestMoveAcrossTracks(t *testing.T) {
	e := newTestEngine(t)
	img := e.AddTrack(document.TrackKindImage, "")
	c := addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)

	moved, err := e.MoveClip(c.ID, img.ID, 20)
	if err != nil {
		t.Fatalf("MoveClip: %v", err)
	}
	if moved.TrackID != img.ID {
		t.Errorf("trackId = %s, want %s", moved.TrackID, img.ID)
	}
	src, _ := e.Track("video-1")
	dst, _ := e.Track(img.ID)
	if len(src.Clips) != 0 || len(dst.Clips) != 1 {
		t.Errorf("clip counts src=%d dst=%d", len(src.Clips), len(dst.Clips))
	}
}

func TestMoveRejectsKindMismatch(t *testing.T) {
	e := newTestEngine(t)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)

	_, err := e.MoveClip(c.ID, "audio-1", 1)
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("err = %v, want ErrKindMismatch", err)
	}
	got, _ := e.Clip(c.ID)
	if got.TrackID != "video-1" || got.StartTime != 0 {
		t.Errorf("clip changed after rejected move: %+v", got)
	}
}

func TestMoveAllowsAnyKindWhenNotEnforced(t *testing.T) {
	s := DefaultSettings()
	s.EnforceTrackKinds = false
	e := New(s)
	c, err := e.AddClip("video-1", document.ClipInput{Kind: document.ClipKindVideo, Duration: 5})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.MoveClip(c.ID, "audio-1", 1); err != nil {
		t.Errorf("MoveClip: %v", err)
	}
}

func TestLockedClipIsImmutable(t *testing.T) {
	e := newTestEngine(t)
	c, err := e.AddClip("video-1", document.ClipInput{Kind: document.ClipKindVideo, StartTime: 2, Duration: 5, Locked: true})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.MoveClip(c.ID, "video-1", 10); !errors.Is(err, ErrLocked) {
		t.Errorf("MoveClip err = %v, want ErrLocked", err)
	}
	if _, err := e.UpdateClip(c.ID, document.ClipPatch{Name: ptr("renamed"), Duration: ptr(1.0)}); !errors.Is(err, ErrLocked) {
		t.Errorf("UpdateClip err = %v, want ErrLocked", err)
	}
	if _, _, err := e.SplitClip(c.ID, 4); !errors.Is(err, ErrLocked) {
		t.Errorf("SplitClip err = %v, want ErrLocked", err)
	}
	if err := e.RemoveClip(c.ID); !errors.Is(err, ErrLocked) {
		t.Errorf("RemoveClip err = %v, want ErrLocked", err)
	}

	got, _ := e.Clip(c.ID)
	if got.StartTime != c.StartTime || got.Duration != c.Duration || got.Name != c.Name || got.TrackID != c.TrackID {
		t.Errorf("locked clip changed: before %+v after %+v", c, got)
	}
	if e.CanUndo() && len(e.history.undo) != 1 {
		t.Errorf("rejected operations recorded history: %d entries", len(e.history.undo))
	}
}

func TestLockedClipCanBeUnlocked(t *testing.T) {
	e := newTestEngine(t)
	c, _ := e.AddClip("video-1", document.ClipInput{Kind: document.ClipKindVideo, Duration: 5, Locked: true})

	got, err := e.UpdateClip(c.ID, document.ClipPatch{Locked: ptr(false)})
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if got.Locked {
		t.Error("clip still locked")
	}
	if _, err := e.MoveClip(c.ID, "video-1", 12); err != nil {
		t.Errorf("move after unlock: %v", err)
	}
}

func TestLockedTrackGuardsItsClips(t *testing.T) {
	e := newTestEngine(t)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)
	if _, err := e.UpdateTrack("video-1", document.TrackPatch{Locked: ptr(true)}); err != nil {
		t.Fatal(err)
	}

	if _, err := e.MoveClip(c.ID, "video-1", 3); !errors.Is(err, ErrLocked) {
		t.Errorf("MoveClip err = %v, want ErrLocked", err)
	}
	if _, err := e.AddClip("video-1", document.ClipInput{Kind: document.ClipKindVideo, Duration: 1}); !errors.Is(err, ErrLocked) {
		t.Errorf("AddClip err = %v, want ErrLocked", err)
	}
	if _, err := e.DuplicateClip(c.ID); !errors.Is(err, ErrLocked) {
		t.Errorf("DuplicateClip err = %v, want ErrLocked", err)
	}
}

func TestAddClipDefaultsAndValidation(t *testing.T) {
	e := newTestEngine(t)

	c, err := e.AddClip("audio-1", document.ClipInput{Duration: 4, Volume: ptr(3.0)})
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind != document.ClipKindAudio {
		t.Errorf("kind = %s, want audio from track", c.Kind)
	}
	if c.Volume != 2 || c.Opacity != 1 || c.Speed != 1 || !c.Visible {
		t.Errorf("defaults: volume=%v opacity=%v speed=%v visible=%v", c.Volume, c.Opacity, c.Speed, c.Visible)
	}
	if c.Position != (document.Position{}) || c.Name != "Audio" {
		t.Errorf("defaults: position=%+v name=%q", c.Position, c.Name)
	}

	tests := []struct {
		name    string
		trackID string
		in      document.ClipInput
		wantErr error
	}{
		{"missing track", "nope", document.ClipInput{Kind: document.ClipKindVideo, Duration: 1}, ErrNotFound},
		{"zero duration", "video-1", document.ClipInput{Kind: document.ClipKindVideo}, ErrInvalidRange},
		{"negative duration", "video-1", document.ClipInput{Kind: document.ClipKindVideo, Duration: -3}, ErrInvalidRange},
		{"negative start", "video-1", document.ClipInput{Kind: document.ClipKindVideo, StartTime: -1, Duration: 1}, ErrInvalidRange},
		{"zero speed", "video-1", document.ClipInput{Kind: document.ClipKindVideo, Duration: 1, Speed: ptr(0.0)}, ErrInvalidRange},
		{"wrong kind", "audio-1", document.ClipInput{Kind: document.ClipKindText, Duration: 1}, ErrKindMismatch},
		{"unknown kind", "video-1", document.ClipInput{Kind: "hologram", Duration: 1}, ErrKindMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(e.State().Tracks[0].Clips) + len(e.State().Tracks[1].Clips)
			_, err := e.AddClip(tt.trackID, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			after := len(e.State().Tracks[0].Clips) + len(e.State().Tracks[1].Clips)
			if before != after {
				t.Errorf("clip count changed %d -> %d", before, after)
			}
		})
	}
}

func TestUpdateClipMergesAndValidates(t *testing.T) {
	e := newTestEngine(t)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)

	effects := append([]string{}, "color-grade")
	got, err := e.UpdateClip(c.ID, document.ClipPatch{
		Opacity:      ptr(1.5),
		Effects:      &effects,
		TransitionIn: &document.Transition{Kind: "fade", Duration: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Opacity != 1 {
		t.Errorf("opacity = %v, want clamped 1", got.Opacity)
	}
	if !slices.Equal(got.Effects, []string{"color-grade"}) {
		t.Errorf("effects = %v", got.Effects)
	}
	if got.TransitionIn == nil || got.TransitionIn.Kind != "fade" {
		t.Errorf("transitionIn = %+v", got.TransitionIn)
	}
	if got.Duration != 5 || got.StartTime != 0 {
		t.Errorf("untouched fields changed: %+v", got)
	}

	got, err = e.UpdateClip(c.ID, document.ClipPatch{TransitionIn: &document.Transition{}})
	if err != nil {
		t.Fatal(err)
	}
	if got.TransitionIn != nil {
		t.Errorf("transitionIn not cleared: %+v", got.TransitionIn)
	}

	if _, err := e.UpdateClip(c.ID, document.ClipPatch{Duration: ptr(0.0)}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("zero duration err = %v, want ErrInvalidRange", err)
	}
	if _, err := e.UpdateClip("missing", document.ClipPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing clip err = %v, want ErrNotFound", err)
	}
}

func TestRejectsNonFiniteNumbers(t *testing.T) {
	e := newTestEngine(t)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 5, 10)
	nan, inf := math.NaN(), math.Inf(1)
	video := func(in document.ClipInput) document.ClipInput {
		in.Kind = document.ClipKindVideo
		if in.Duration == 0 {
			in.Duration = 1
		}
		return in
	}

	tests := []struct {
		name string
		op   func() error
	}{
		{"add NaN duration", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{Duration: nan})); return err }},
		{"add Inf duration", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{Duration: inf})); return err }},
		{"add NaN start", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{StartTime: nan})); return err }},
		{"add Inf start", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{StartTime: inf})); return err }},
		{"add NaN speed", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{Speed: ptr(nan)})); return err }},
		{"add Inf speed", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{Speed: ptr(inf)})); return err }},
		{"add NaN offset", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{SourceOffset: nan})); return err }},
		{"add NaN volume", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{Volume: ptr(nan)})); return err }},
		{"add NaN opacity", func() error { _, err := e.AddClip("video-1", video(document.ClipInput{Opacity: ptr(nan)})); return err }},
		{"add Inf position", func() error {
			_, err := e.AddClip("video-1", video(document.ClipInput{Position: &document.Position{X: inf}}))
			return err
		}},
		{"add NaN transition", func() error {
			_, err := e.AddClip("video-1", video(document.ClipInput{TransitionIn: &document.Transition{Kind: "fade", Duration: nan}}))
			return err
		}},
		{"update NaN start", func() error { _, err := e.UpdateClip(c.ID, document.ClipPatch{StartTime: ptr(nan)}); return err }},
		{"update Inf duration", func() error { _, err := e.UpdateClip(c.ID, document.ClipPatch{Duration: ptr(inf)}); return err }},
		{"update NaN speed", func() error { _, err := e.UpdateClip(c.ID, document.ClipPatch{Speed: ptr(nan)}); return err }},
		{"update Inf offset", func() error { _, err := e.UpdateClip(c.ID, document.ClipPatch{SourceOffset: ptr(inf)}); return err }},
		{"update NaN volume", func() error { _, err := e.UpdateClip(c.ID, document.ClipPatch{Volume: ptr(nan)}); return err }},
		{"move NaN", func() error { _, err := e.MoveClip(c.ID, "video-1", nan); return err }},
		{"move +Inf", func() error { _, err := e.MoveClip(c.ID, "video-1", inf); return err }},
		{"move -Inf", func() error { _, err := e.MoveClip(c.ID, "video-1", math.Inf(-1)); return err }},
		{"split NaN", func() error { _, _, err := e.SplitClip(c.ID, nan); return err }},
		{"split Inf", func() error { _, _, err := e.SplitClip(c.ID, inf); return err }},
		{"track NaN volume", func() error { _, err := e.UpdateTrack("audio-1", document.TrackPatch{Volume: ptr(nan)}); return err }},
		{"track NaN pan", func() error { _, err := e.UpdateTrack("audio-1", document.TrackPatch{Pan: ptr(nan)}); return err }},
		{"track Inf height", func() error { _, err := e.UpdateTrack("audio-1", document.TrackPatch{Height: ptr(inf)}); return err }},
		{"load NaN start", func() error {
			tl := document.NewDefaultTimeline()
			tl.Tracks[0].Clips = []document.Clip{{ID: "c9", Kind: document.ClipKindVideo, StartTime: nan, Duration: 1}}
			return e.Load(tl)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("err = %v, want ErrInvalidRange", err)
			}
		})
	}

	clips := e.State().Tracks[0].Clips
	if len(clips) != 1 || clips[0].StartTime != 5 || clips[0].Duration != 10 || clips[0].Volume != 1 {
		t.Errorf("rejected edits changed the store: %+v", clips)
	}
	if e.Duration() != 300 {
		t.Errorf("duration = %v", e.Duration())
	}
	if tr, _ := e.Track("audio-1"); math.IsNaN(tr.Volume) || math.IsNaN(tr.Pan) {
		t.Errorf("track = %+v", tr)
	}

	loud, err := e.AddClip("video-1", document.ClipInput{Kind: document.ClipKindVideo, StartTime: 40, Duration: 1, Volume: ptr(inf), Opacity: ptr(math.Inf(-1))})
	if err != nil {
		t.Fatal(err)
	}
	if loud.Volume != 2 || loud.Opacity != 0 {
		t.Errorf("infinite volume/opacity not clamped: %v %v", loud.Volume, loud.Opacity)
	}
}

func TestDuplicateClipPlacesCopyAfterOriginal(t *testing.T) {
	e := newTestEngine(t)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 3, 4)
	if err := e.SelectClip(c.ID, false); err != nil {
		t.Fatal(err)
	}

	dup, err := e.DuplicateClip(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if dup.ID == c.ID {
		t.Error("duplicate reused the id")
	}
	if dup.StartTime != 7 || dup.Duration != 4 || dup.TrackID != "video-1" {
		t.Errorf("duplicate = %+v", dup)
	}
	if e.IsSelected(dup.ID) || dup.Selected {
		t.Error("duplicate should not be selected")
	}
}

func TestSplitClipRejectsOutsideSpan(t *testing.T) {
	e := newTestEngine(t)
	c := addClip(t, e, "video-1", document.ClipKindVideo, 5, 10)

	for _, at := range []float64{5, 15, 2, 20} {
		if _, _, err := e.SplitClip(c.ID, at); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("split at %v err = %v, want ErrInvalidRange", at, err)
		}
	}
	if _, ok := e.Clip(c.ID); !ok {
		t.Error("clip removed by rejected split")
	}
}

func TestSplitClipCarriesMediaOffsetAndTransitions(t *testing.T) {
	e := newTestEngine(t)
	c, err := e.AddClip("video-1", document.ClipInput{
		Kind:          document.ClipKindVideo,
		StartTime:     4,
		Duration:      8,
		SourceOffset:  1,
		Speed:         ptr(2.0),
		TransitionIn:  &document.Transition{Kind: "fade", Duration: 1},
		TransitionOut: &document.Transition{Kind: "wipe", Duration: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SelectClip(c.ID, false); err != nil {
		t.Fatal(err)
	}

	first, second, err := e.SplitClip(c.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if second.SourceOffset != 7 {
		t.Errorf("second source offset = %v, want 7", second.SourceOffset)
	}
	if first.TransitionIn == nil || first.TransitionOut != nil {
		t.Errorf("first transitions = %+v / %+v", first.TransitionIn, first.TransitionOut)
	}
	if second.TransitionIn != nil || second.TransitionOut == nil {
		t.Errorf("second transitions = %+v / %+v", second.TransitionIn, second.TransitionOut)
	}
	if len(e.SelectedClipIDs()) != 0 {
		t.Errorf("selection = %v, want empty after split", e.SelectedClipIDs())
	}
}

func TestInvariantsHoldAfterMixedOperations(t *testing.T) {
	e := newTestEngine(t)
	img := e.AddTrack(document.TrackKindImage, "Stills")
	a := addClip(t, e, "video-1", document.ClipKindVideo, 0, 12)
	b := addClip(t, e, "video-1", document.ClipKindImage, 12, 3)
	addClip(t, e, "audio-1", document.ClipKindAudio, 0, 20)

	_, _ = e.MoveClip(b.ID, img.ID, 2.2)
	_, _ = e.MoveClip(a.ID, "audio-1", 5)
	first, second, _ := e.SplitClip(a.ID, 6)
	_, _, _ = e.SplitClip(second.ID, 100)
	_, _ = e.MoveClip(first.ID, "video-1", -10)
	_, _ = e.AddClip("video-1", document.ClipInput{Kind: document.ClipKindVideo, Duration: -1})
	_, _ = e.MoveClip(second.ID, img.ID, 30)

	trackIDs := map[string]bool{}
	for _, tr := range e.Tracks() {
		trackIDs[tr.ID] = true
	}
	for _, tr := range e.Tracks() {
		for _, c := range tr.Clips {
			if c.Duration <= 0 {
				t.Errorf("clip %s duration %v", c.ID, c.Duration)
			}
			if c.StartTime < 0 {
				t.Errorf("clip %s start %v", c.ID, c.StartTime)
			}
			if !trackIDs[c.TrackID] || c.TrackID != tr.ID {
				t.Errorf("clip %s references %s while on %s", c.ID, c.TrackID, tr.ID)
			}
		}
	}
}

func TestSelection(t *testing.T) {
	e := newTestEngine(t)
	a := addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)
	b := addClip(t, e, "video-1", document.ClipKindVideo, 5, 5)

	if err := e.SelectClip(a.ID, false); err != nil {
		t.Fatal(err)
	}
	if err := e.SelectClip(b.ID, true); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(e.SelectedClipIDs(), []string{a.ID, b.ID}) {
		t.Errorf("selection = %v", e.SelectedClipIDs())
	}

	if err := e.SelectClip(a.ID, true); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(e.SelectedClipIDs(), []string{b.ID}) {
		t.Errorf("toggle off: selection = %v", e.SelectedClipIDs())
	}

	if err := e.SelectClip(a.ID, false); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(e.SelectedClipIDs(), []string{a.ID}) {
		t.Errorf("single select: selection = %v", e.SelectedClipIDs())
	}

	if err := e.SelectClip("ghost", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("select missing err = %v", err)
	}

	e.ClearSelection()
	e.ClearSelection()
	if len(e.SelectedClipIDs()) != 0 {
		t.Errorf("selection after clear = %v", e.SelectedClipIDs())
	}

	if err := e.RemoveClip(a.ID); err != nil {
		t.Fatal(err)
	}
	e.SetSelection([]string{a.ID, b.ID, b.ID})
	if !slices.Equal(e.SelectedClipIDs(), []string{b.ID}) {
		t.Errorf("SetSelection kept stale ids: %v", e.SelectedClipIDs())
	}
}

func TestStateMarksSelectedClips(t *testing.T) {
	e := newTestEngine(t)
	a := addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)
	addClip(t, e, "video-1", document.ClipKindVideo, 5, 5)
	_ = e.SelectClip(a.ID, false)

	st := e.State()
	clips := st.Tracks[0].Clips
	if !clips[0].Selected || clips[1].Selected {
		t.Errorf("selected flags = %v, %v", clips[0].Selected, clips[1].Selected)
	}

	st.Tracks[0].Clips[0].Name = "mutated"
	if got, _ := e.Clip(a.ID); got.Name == "mutated" {
		t.Error("State() shares memory with the engine")
	}
}

func TestMissingIDsReportNotFound(t *testing.T) {
	e := newTestEngine(t)

	if err := e.RemoveTrack("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveTrack err = %v", err)
	}
	if err := e.RemoveClip("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveClip err = %v", err)
	}
	if _, err := e.MoveClip("ghost", "video-1", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("MoveClip err = %v", err)
	}
	c := addClip(t, e, "video-1", document.ClipKindVideo, 0, 5)
	if _, err := e.MoveClip(c.ID, "ghost", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("MoveClip to missing track err = %v", err)
	}
	if _, err := e.DuplicateClip("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DuplicateClip err = %v", err)
	}
	if _, _, err := e.SplitClip("ghost", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("SplitClip err = %v", err)
	}
}

func TestAddTrackNamesByKind(t *testing.T) {
	e := newTestEngine(t)
	tr := e.AddTrack(document.TrackKindVideo, "")
	if tr.Name != "Video 2" {
		t.Errorf("name = %q, want Video 2", tr.Name)
	}
	if tr.Height != 80 || tr.Color != "#3b82f6" {
		t.Errorf("style = %v/%s", tr.Height, tr.Color)
	}
	named := e.AddTrack(document.TrackKindText, "Subtitles")
	if named.Name != "Subtitles" || named.ID == tr.ID {
		t.Errorf("named track = %+v", named)
	}
}

func TestUpdateTrackClamps(t *testing.T) {
	e := newTestEngine(t)
	tr, err := e.UpdateTrack("audio-1", document.TrackPatch{Volume: ptr(5.0), Pan: ptr(-3.0), Solo: ptr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Volume != 2 || tr.Pan != -1 || !tr.Solo {
		t.Errorf("track = %+v", tr)
	}
	if _, err := e.UpdateTrack("audio-1", document.TrackPatch{Height: ptr(0.0)}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("zero height err = %v", err)
	}
}

func TestLoadValidatesTimeline(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Load(document.NewSampleTimeline()); err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if len(e.Tracks()) != 3 {
		t.Errorf("tracks = %d, want 3", len(e.Tracks()))
	}

	bad := document.NewDefaultTimeline()
	bad.Tracks[0].Clips = []document.Clip{{ID: "c1", Kind: document.ClipKindVideo, Duration: 0}}
	if err := e.Load(bad); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Load bad err = %v", err)
	}
	if len(e.Tracks()) != 3 {
		t.Error("failed Load replaced tracks")
	}
}
