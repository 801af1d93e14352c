package grammar

import "fmt"

const delimiterChars = "*+-"

// Delimiter is a section boundary token: one character repeated Width
// times. Wider tokens bound higher-level sections.
type Delimiter struct {
	Char  byte
	Width int
}

func (d Delimiter) String() string {
	return fmt.Sprintf("%q x%d", d.Char, d.Width)
}

// Section boundary tokens emitted by the telemetry logger.
var (
	// MapBoundary separates the map header from the frame sequence.
	MapBoundary = Delimiter{Char: '*', Width: 90}
	// FrameBoundary terminates one simulation tick.
	FrameBoundary = Delimiter{Char: '*', Width: 80}
	// CategoryBoundary separates actor categories inside a frame.
	CategoryBoundary = Delimiter{Char: '*', Width: 70}

	VehicleBoundary      = Delimiter{Char: '-', Width: 60}
	TrafficLightBoundary = Delimiter{Char: '+', Width: 40}
	TrafficSignBoundary  = Delimiter{Char: '+', Width: 50}
	PedestrianBoundary   = Delimiter{Char: '+', Width: 40}

	// MapSectionBoundary separates map attributes, crosswalks and junctions.
	MapSectionBoundary = Delimiter{Char: '+', Width: 70}
	// MapEntryBoundary terminates one crosswalk or junction entry.
	MapEntryBoundary = Delimiter{Char: '+', Width: 60}
)

// Split cuts lines at every delimiter line equal to d. The delimiter lines
// themselves are dropped. The result always has one more part than the
// number of matching delimiters; parts may be empty. Delimiters of any
// other character or width stay inside their part.
func Split(lines []Line, d Delimiter) [][]Line {
	parts := make([][]Line, 0, 4)
	start := 0
	for i, l := range lines {
		if l.Kind == LineDelimiter && l.Delim == d {
			parts = append(parts, lines[start:i])
			start = i + 1
		}
	}
	return append(parts, lines[start:])
}

// Count returns the number of delimiter lines equal to d.
func Count(lines []Line, d Delimiter) int {
	n := 0
	for _, l := range lines {
		if l.Kind == LineDelimiter && l.Delim == d {
			n++
		}
	}
	return n
}
