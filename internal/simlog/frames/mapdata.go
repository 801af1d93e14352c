package frames

import (
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/geometry"
	"github.com/banshee-data/scenevec/internal/simlog/grammar"
)

// MapFeature is one crosswalk or junction entry of the map header.
type MapFeature struct {
	Fields grammar.Fields
	// Location is nil when the entry has no usable coordinates. Such
	// entries are kept but never count as near.
	Location *r3.Vec
}

// Map is the map header of a log. It is read-only after Build and shared
// by every frame.
type Map struct {
	Attributes grammar.Fields
	Crosswalks []MapFeature
	Junctions  []MapFeature

	crosswalkPoints []r3.Vec
	junctionPoints  []r3.Vec
}

// Name returns the map name attribute, or "".
func (m *Map) Name() string {
	return m.Attributes["name"]
}

// NearestCrosswalk returns the planar distance from p to the closest
// crosswalk, or geometry.NoCandidateDistance.
func (m *Map) NearestCrosswalk(p r3.Vec) float64 {
	return geometry.Nearest(p, m.crosswalkPoints)
}

// NearestJunction returns the planar distance from p to the closest
// junction, or geometry.NoCandidateDistance.
func (m *Map) NearestJunction(p r3.Vec) float64 {
	return geometry.Nearest(p, m.junctionPoints)
}

// NearCrosswalk reports whether a crosswalk lies within radius of p. A nil
// location is never near.
func (m *Map) NearCrosswalk(p *r3.Vec, radius float64) bool {
	return p != nil && geometry.WithinRadius(*p, m.crosswalkPoints, radius)
}

// NearJunction reports whether a junction lies within radius of p. A nil
// location is never near.
func (m *Map) NearJunction(p *r3.Vec, radius float64) bool {
	return p != nil && geometry.WithinRadius(*p, m.junctionPoints, radius)
}

func parseMap(lines []grammar.Line) *Map {
	sections := grammar.Split(lines, grammar.MapSectionBoundary)
	m := &Map{Attributes: grammar.Fold(sections[0])}
	if len(sections) > 1 {
		m.Crosswalks = parseFeatures(sections[1])
	}
	if len(sections) > 2 {
		m.Junctions = parseFeatures(sections[2])
	}
	if len(sections) > 3 {
		monitoring.Diagf("frames: map header has %d sections, ignoring %d", len(sections), len(sections)-3)
	}

	m.crosswalkPoints = featurePoints(m.Crosswalks)
	m.junctionPoints = featurePoints(m.Junctions)

	if v, ok := m.Attributes["map_crosswalks_length"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n != len(m.Crosswalks) {
			monitoring.Diagf("frames: map declares %d crosswalks, parsed %d", n, len(m.Crosswalks))
		}
	}
	return m
}

func parseFeatures(lines []grammar.Line) []MapFeature {
	var out []MapFeature
	for _, part := range grammar.Split(lines, grammar.MapEntryBoundary) {
		f := grammar.Fold(part)
		if len(f) == 0 {
			continue
		}
		out = append(out, MapFeature{Fields: f, Location: featureLocation(f)})
	}
	return out
}

// featureLocation reads numeric x/y(/z) members, falling back to a
// Location literal inside the transform or location member.
func featureLocation(f grammar.Fields) *r3.Vec {
	x, okX := f.Float("x")
	y, okY := f.Float("y")
	if okX && okY {
		z, _ := f.Float("z")
		return &r3.Vec{X: x, Y: y, Z: z}
	}
	for _, key := range []string{"transform", "location"} {
		s, ok := f[key]
		if !ok {
			continue
		}
		if v, err := findLocation(s); err == nil {
			return &v
		}
	}
	return nil
}

func featurePoints(features []MapFeature) []r3.Vec {
	var pts []r3.Vec
	for _, f := range features {
		if f.Location != nil {
			pts = append(pts, *f.Location)
		}
	}
	return pts
}
