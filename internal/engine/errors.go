package engine

import "errors"

// Rejection reasons returned by mutating operations. Clamped values
// (zoom, playback rate, playhead) are corrected silently and never
// reported through these.
var (
	ErrNotFound     = errors.New("not found")
	ErrLocked       = errors.New("locked")
	ErrInvalidRange = errors.New("invalid range")
	ErrKindMismatch = errors.New("kind mismatch")
)
