// Package geometry holds the planar math used to derive map-relative and
// ego-relative features. Inputs are gonum r3 vectors; z is ignored
// throughout.
package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// NoCandidateDistance is the nearest distance reported for an empty set of
// candidates. It exceeds every configured radius so flags stay 0.
const NoCandidateDistance = 999999.0

// ErrZeroVector is returned by HeadingAngle when either input has zero
// planar magnitude.
var ErrZeroVector = errors.New("geometry: zero-magnitude heading vector")

// Planar projects v onto the ground plane.
func Planar(v r3.Vec) r2.Vec {
	return r2.Vec{X: v.X, Y: v.Y}
}

// PlanarDistance returns the Euclidean distance between a and b ignoring z.
func PlanarDistance(a, b r3.Vec) float64 {
	return r2.Norm(r2.Sub(Planar(a), Planar(b)))
}

// Nearest returns the smallest planar distance from p to any of points, or
// NoCandidateDistance when points is empty.
func Nearest(p r3.Vec, points []r3.Vec) float64 {
	closest := NoCandidateDistance
	for _, q := range points {
		if d := PlanarDistance(p, q); d < closest {
			closest = d
		}
	}
	return closest
}

// WithinRadius reports whether the nearest of points lies within radius of
// p. The boundary is inclusive.
func WithinRadius(p r3.Vec, points []r3.Vec, radius float64) bool {
	return Nearest(p, points) <= radius
}

// Flag converts b to the 1/0 encoding used in feature vectors.
func Flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// HeadingAngle returns the planar angle between a and b in degrees, in
// [0, 180]. The cosine is clamped to [-1, 1] before the inverse cosine.
func HeadingAngle(a, b r3.Vec) (float64, error) {
	pa, pb := Planar(a), Planar(b)
	na, nb := r2.Norm(pa), r2.Norm(pb)
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	cos := r2.Dot(pa, pb) / (na * nb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, nil
}

// Direction classifies the relative heading of another vehicle.
type Direction int

const (
	// SameDirection covers angles at or below the crossing threshold.
	SameDirection Direction = iota
	// Crossing covers angles strictly between the two thresholds.
	Crossing
	// Opposing covers angles at or above the opposing threshold.
	Opposing
)

func (d Direction) String() string {
	switch d {
	case Crossing:
		return "crossing"
	case Opposing:
		return "opposing"
	default:
		return "same"
	}
}

// Classify buckets a heading angle using the crossing and opposing
// thresholds, both in degrees.
func Classify(angle, crossingDeg, opposingDeg float64) Direction {
	switch {
	case angle >= opposingDeg:
		return Opposing
	case angle > crossingDeg:
		return Crossing
	default:
		return SameDirection
	}
}
