package frames

import (
	"errors"
	"fmt"

	"github.com/banshee-data/scenevec/internal/simlog/grammar"
)

// ErrParseMismatch is returned when a coordinate or vector literal does
// not match its expected pattern. Callers treat the field as absent.
var ErrParseMismatch = errors.New("value does not match expected pattern")

// MalformedLogError reports a log whose top-level structure is wrong.
type MalformedLogError struct {
	Delimiter grammar.Delimiter
	Found     int // boundaries found
}

func (e *MalformedLogError) Error() string {
	return fmt.Sprintf("malformed log: found %d map boundaries (%v), want exactly 1", e.Found, e.Delimiter)
}

// MalformedFrameError reports a frame that does not split into the four
// category sections.
type MalformedFrameError struct {
	Frame int // 0-based frame index
	Line  int // first line of the frame block
	Parts int
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame %d at line %d: %d category sections separated by %v, want 4",
		e.Frame, e.Line, e.Parts, grammar.CategoryBoundary)
}

// MissingEgoError reports a frame without a role_name=hero vehicle.
type MissingEgoError struct {
	Frame int
}

func (e *MissingEgoError) Error() string {
	return fmt.Sprintf("frame %d has no ego vehicle", e.Frame)
}
