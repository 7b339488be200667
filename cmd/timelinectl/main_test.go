package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/inamate/timeline/backend-go/internal/engine"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		config.continueOnError = false
		config.report = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplayPrintsState(t *testing.T) {
	path := writeScript(t, `
steps:
  - type: clip.add
    trackId: video-1
    clip: {kind: video, duration: 4}
  - type: playhead.set
    time: 3
`)
	out, err := run(t, "replay", path)
	if err != nil {
		t.Fatal(err)
	}
	var st engine.State
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("output is not a state: %v\n%s", err, out)
	}
	if st.CurrentTime != 3 || len(st.Tracks[0].Clips) != 1 {
		t.Errorf("state = %+v", st)
	}
}

func TestReplayFailureStillPrints(t *testing.T) {
	path := writeScript(t, `
steps:
  - type: clip.remove
    clipId: clip_missing
  - type: transport.play
`)
	out, err := run(t, "replay", "--continue-on-error", "--report", path)
	if err == nil {
		t.Fatal("expected error")
	}
	var rep struct {
		Failed int          `json:"failed"`
		State  engine.State `json:"state"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if rep.Failed != 1 || !rep.State.IsPlaying {
		t.Errorf("report = %+v", rep)
	}
}

func TestValidate(t *testing.T) {
	good := writeScript(t, "steps:\n  - type: transport.play\n")
	bad := writeScript(t, "steps:\n  - type: transport.play\n    bogus: 1\n")

	if _, err := run(t, "validate", good); err != nil {
		t.Errorf("good script: %v", err)
	}
	if _, err := run(t, "validate", good, bad); err == nil {
		t.Error("bad script accepted")
	}
}

func TestSample(t *testing.T) {
	out, err := run(t, "sample")
	if err != nil {
		t.Fatal(err)
	}
	var st engine.State
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatal(err)
	}
	if len(st.Tracks) != 3 {
		t.Errorf("tracks = %d", len(st.Tracks))
	}
}
