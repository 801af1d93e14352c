package frames

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/grammar"
)

// Options tune frame building.
type Options struct {
	// PedestrianEgoDistance derives ego distances for pedestrians as well
	// as vehicles, traffic lights and traffic signs.
	PedestrianEgoDistance bool
}

// DefaultOptions returns the options used by the pipeline by default.
func DefaultOptions() Options {
	return Options{PedestrianEgoDistance: true}
}

// Log is a fully built telemetry log.
type Log struct {
	Map    *Map
	Frames []Frame
	// Mismatches counts location and vector literals that failed to parse.
	Mismatches int
}

// categories lists the frame sections in log order with the boundary that
// separates their entities and the field carrying their location.
var categories = []struct {
	kind     Kind
	boundary grammar.Delimiter
	locField string
}{
	{KindVehicle, grammar.VehicleBoundary, fieldVehicleLocation},
	{KindTrafficLight, grammar.TrafficLightBoundary, fieldLocation},
	{KindTrafficSign, grammar.TrafficSignBoundary, fieldLocation},
	{KindPedestrian, grammar.PedestrianBoundary, fieldLocation},
}

// Build parses log text into a map and a sequence of frames. Structural
// problems are fatal: a missing or repeated map boundary returns
// MalformedLogError, and a frame with fewer than four category sections
// returns MalformedFrameError. Frame blocks with no record lines, such as
// the tail after the last frame boundary, are skipped.
func Build(text string, opts Options) (*Log, error) {
	lines := grammar.Lex(text)
	if n := grammar.Count(lines, grammar.MapBoundary); n != 1 {
		return nil, &MalformedLogError{Delimiter: grammar.MapBoundary, Found: n}
	}
	sections := grammar.Split(lines, grammar.MapBoundary)

	b := &builder{opts: opts}
	out := &Log{Map: parseMap(sections[0])}
	for _, block := range grammar.Split(sections[1], grammar.FrameBoundary) {
		if !grammar.HasRecords(block) {
			continue
		}
		f, err := b.frame(len(out.Frames), block)
		if err != nil {
			return nil, err
		}
		out.Frames = append(out.Frames, f)
	}
	out.Mismatches = b.mismatches

	monitoring.Tracef("frames: built %d frames, %d crosswalks, %d junctions, %d parse mismatches",
		len(out.Frames), len(out.Map.Crosswalks), len(out.Map.Junctions), out.Mismatches)
	return out, nil
}

type builder struct {
	opts       Options
	mismatches int
}

func (b *builder) frame(index int, block []grammar.Line) (Frame, error) {
	f := Frame{Index: index, Timestamp: grammar.FirstTimestamp(block)}
	firstLine := block[0].Number
	block, f.Elapsed = takeElapsed(block)

	parts := grammar.Split(block, grammar.CategoryBoundary)
	if len(parts) < len(categories) {
		return Frame{}, &MalformedFrameError{Frame: index, Line: firstLine, Parts: len(parts)}
	}
	if len(parts) > len(categories) && grammar.HasRecords(concat(parts[len(categories):])) {
		monitoring.Diagf("frames: frame %d has %d category sections, ignoring the extra records", index, len(parts))
	}

	for ci, c := range categories {
		for _, piece := range grammar.Split(parts[ci], c.boundary) {
			fields := grammar.Fold(piece)
			if len(fields) == 0 {
				continue
			}
			a := Actor{Kind: c.kind, Fields: fields}
			a.Location = b.vec(index, fields, c.locField, ParseLocation)
			a.Forward = b.vec(index, fields, fieldForwardVector, ParseVector3D)

			switch c.kind {
			case KindVehicle:
				if a.IsEgo() {
					f.Egos = append(f.Egos, a)
				} else {
					f.Vehicles = append(f.Vehicles, a)
				}
			case KindTrafficLight:
				f.TrafficLights = append(f.TrafficLights, a)
			case KindTrafficSign:
				f.TrafficSigns = append(f.TrafficSigns, a)
			case KindPedestrian:
				f.Pedestrians = append(f.Pedestrians, a)
			}
		}
	}

	f.deriveEgoDistances(b.opts.PedestrianEgoDistance)
	return f, nil
}

// vec parses an optional vector field. Absent fields and mismatches both
// yield nil; mismatches are counted and traced.
func (b *builder) vec(frame int, fields grammar.Fields, key string, parse func(string) (r3.Vec, error)) *r3.Vec {
	s, ok := fields[key]
	if !ok {
		return nil
	}
	v, err := parse(s)
	if err != nil {
		if errors.Is(err, ErrParseMismatch) {
			b.mismatches++
		}
		monitoring.Tracef("frames: frame %d field %s: %v", frame, key, err)
		return nil
	}
	return &v
}

// takeElapsed removes a leading "Time: <s>s" record from block and returns
// its value.
func takeElapsed(block []grammar.Line) ([]grammar.Line, *time.Duration) {
	for i, l := range block {
		if l.Kind != grammar.LineRecord {
			continue
		}
		if !strings.EqualFold(l.Field, "time") {
			return block, nil
		}
		secs, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(l.Value), "s"), 64)
		if err != nil {
			return block, nil
		}
		d := time.Duration(secs * float64(time.Second))
		rest := make([]grammar.Line, 0, len(block)-1)
		rest = append(rest, block[:i]...)
		return append(rest, block[i+1:]...), &d
	}
	return block, nil
}

func concat(parts [][]grammar.Line) []grammar.Line {
	var out []grammar.Line
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
