package engine

import "math"

// Mapper converts between timeline seconds and horizontal pixel offsets
// for one viewport/zoom combination. Offsets are relative to the left edge
// of the track area.
type Mapper struct {
	ViewportStart float64
	ViewportEnd   float64
	Zoom          float64
	Width         float64
}

func (m Mapper) span() float64 {
	return m.ViewportEnd - m.ViewportStart
}

// PixelsPerSecond returns the horizontal scale of the mapping.
func (m Mapper) PixelsPerSecond() float64 {
	return m.Width * m.Zoom / m.span()
}

// TimeToPixels maps t to a pixel offset.
func (m Mapper) TimeToPixels(t float64) float64 {
	return (t - m.ViewportStart) / m.span() * m.Width * m.Zoom
}

// PixelsToTime maps a pixel offset back to seconds.
func (m Mapper) PixelsToTime(p float64) float64 {
	return m.ViewportStart + p/(m.Width*m.Zoom)*m.span()
}

// DeltaTime converts a pixel distance into a duration.
func (m Mapper) DeltaTime(dp float64) float64 {
	return dp / m.PixelsPerSecond()
}

// VisibleEnd returns the time at the right edge of the track area. Zoom
// stretches the viewport span over more pixels, so above zoom 1 less than
// the whole span is on screen.
func (m Mapper) VisibleEnd() float64 {
	return m.PixelsToTime(m.Width)
}

// Visible reports whether t falls inside the track area.
func (m Mapper) Visible(t float64) bool {
	return t >= m.ViewportStart && t < m.VisibleEnd()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool    { return finite(v) && v > 0 }
func nonNegative(v float64) bool { return finite(v) && v >= 0 }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
