package frames

import (
	"fmt"
	"regexp"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

const coords = `x=(-?\d+\.\d+), y=(-?\d+\.\d+), z=(-?\d+\.\d+)`

var (
	locationPattern = regexp.MustCompile(`^Location\(` + coords + `\)$`)
	vectorPattern   = regexp.MustCompile(`^Vector3D\(` + coords + `\)$`)
	// embeddedLocationPattern finds a Location literal inside a larger
	// value such as Transform(Location(...), Rotation(...)).
	embeddedLocationPattern = regexp.MustCompile(`Location\(` + coords + `\)`)
)

// ParseLocation parses "Location(x=<f>, y=<f>, z=<f>)". Any other input
// returns ErrParseMismatch.
func ParseLocation(s string) (r3.Vec, error) {
	return parseTriple(locationPattern, s)
}

// ParseVector3D parses "Vector3D(x=<f>, y=<f>, z=<f>)". Any other input
// returns ErrParseMismatch.
func ParseVector3D(s string) (r3.Vec, error) {
	return parseTriple(vectorPattern, s)
}

func findLocation(s string) (r3.Vec, error) {
	return parseTriple(embeddedLocationPattern, s)
}

func parseTriple(re *regexp.Regexp, s string) (r3.Vec, error) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return r3.Vec{}, fmt.Errorf("%q: %w", s, ErrParseMismatch)
	}
	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("%q: %w", s, ErrParseMismatch)
		}
		v[i] = f
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
