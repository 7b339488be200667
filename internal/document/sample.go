package document

import "github.com/inamate/timeline/backend-go/internal/typeid"

// NewDefaultTimeline returns the layout every empty project starts with:
// one video and one audio lane.
func NewDefaultTimeline() Timeline {
	return Timeline{
		Tracks: []Track{
			NewTrack("video-1", TrackKindVideo, "Video 1"),
			NewTrack("audio-1", TrackKindAudio, "Audio 1"),
		},
	}
}

// NewSampleTimeline returns a populated demo timeline.
func NewSampleTimeline() Timeline {
	video := NewTrack("video-1", TrackKindVideo, "Video 1")
	audio := NewTrack("audio-1", TrackKindAudio, "Audio 1")
	text := NewTrack("text-1", TrackKindText, "Titles")

	video.Clips = []Clip{
		sampleClip(video.ID, ClipKindVideo, "Intro", 0, 8, "media/intro.mp4"),
		sampleClip(video.ID, ClipKindVideo, "Interview", 8, 22, "media/interview.mp4"),
		sampleClip(video.ID, ClipKindImage, "Logo", 30, 5, "media/logo.png"),
	}
	video.Clips[1].TransitionIn = &Transition{Kind: "crossfade", Duration: 1}

	audio.Clips = []Clip{
		sampleClip(audio.ID, ClipKindAudio, "Music bed", 0, 35, "media/music.mp3"),
	}
	audio.Clips[0].Volume = 0.6

	text.Clips = []Clip{
		sampleClip(text.ID, ClipKindText, "Title card", 1, 4, ""),
	}

	return Timeline{Tracks: []Track{video, audio, text}}
}

func sampleClip(trackID string, kind ClipKind, name string, start, duration float64, source string) Clip {
	return Clip{
		ID:        typeid.NewClipID(),
		Kind:      kind,
		Name:      name,
		TrackID:   trackID,
		StartTime: start,
		Duration:  duration,
		Source:    source,
		Visible:   true,
		Volume:    1,
		Opacity:   1,
		Speed:     1,
		Effects:   []string{},
	}
}
