package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser    = "user"
	PrefixProject = "proj"
	PrefixOp      = "op"
	PrefixTrack   = "track"
	PrefixClip    = "clip"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string    { return New(PrefixUser) }
func NewProjectID() string { return New(PrefixProject) }
func NewOpID() string      { return New(PrefixOp) }
func NewTrackID() string   { return New(PrefixTrack) }
func NewClipID() string    { return New(PrefixClip) }

// Validate checks that id parses as a typeid carrying expectedPrefix.
func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
