package geometry

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tolerance = 1e-9

func TestPlanarDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b r3.Vec
		want float64
	}{
		{name: "3-4-5", a: r3.Vec{}, b: r3.Vec{X: 3, Y: 4}, want: 5},
		{name: "z ignored", a: r3.Vec{Z: 100}, b: r3.Vec{X: 3, Y: 4, Z: -7}, want: 5},
		{name: "same point", a: r3.Vec{X: 1.5, Y: -2}, b: r3.Vec{X: 1.5, Y: -2}, want: 0},
		{name: "negative coords", a: r3.Vec{X: -1, Y: -1}, b: r3.Vec{X: 2, Y: 3}, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlanarDistance(tt.a, tt.b); math.Abs(got-tt.want) > tolerance {
				t.Errorf("PlanarDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNearestEmpty(t *testing.T) {
	if got := Nearest(r3.Vec{}, nil); got != NoCandidateDistance {
		t.Errorf("Nearest(empty) = %v, want %v", got, NoCandidateDistance)
	}
	if WithinRadius(r3.Vec{}, nil, 3) {
		t.Error("WithinRadius(empty) = true")
	}
}

func TestNearestPicksClosest(t *testing.T) {
	points := []r3.Vec{{X: 10}, {X: 0, Y: 2}, {X: -4}}
	if got := Nearest(r3.Vec{}, points); got != 2 {
		t.Errorf("Nearest() = %v, want 2", got)
	}
}

func TestWithinRadiusBoundary(t *testing.T) {
	p := r3.Vec{}
	if !WithinRadius(p, []r3.Vec{{X: 3.0}}, 3.0) {
		t.Error("distance exactly 3.0 should be within radius 3.0")
	}
	if WithinRadius(p, []r3.Vec{{X: 3.0001}}, 3.0) {
		t.Error("distance 3.0001 should not be within radius 3.0")
	}
	if !WithinRadius(p, []r3.Vec{{X: 1.0}}, 1.0) {
		t.Error("distance exactly 1.0 should be within radius 1.0")
	}
}

func TestHeadingAngle(t *testing.T) {
	tests := []struct {
		name string
		a, b r3.Vec
		want float64
	}{
		{name: "identical", a: r3.Vec{X: 1}, b: r3.Vec{X: 1}, want: 0},
		{name: "scaled identical", a: r3.Vec{X: 0.3, Y: 0.4}, b: r3.Vec{X: 3, Y: 4}, want: 0},
		{name: "opposite", a: r3.Vec{X: 1}, b: r3.Vec{X: -1}, want: 180},
		{name: "orthogonal", a: r3.Vec{X: 1}, b: r3.Vec{Y: 1}, want: 90},
		{name: "diagonal", a: r3.Vec{X: 1}, b: r3.Vec{X: 1, Y: 1}, want: 45},
		{name: "z ignored", a: r3.Vec{X: 1, Z: 5}, b: r3.Vec{Y: 1, Z: -5}, want: 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HeadingAngle(tt.a, tt.b)
			if err != nil {
				t.Fatalf("HeadingAngle() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-5 {
				t.Errorf("HeadingAngle() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 180 {
				t.Errorf("HeadingAngle() = %v outside [0, 180]", got)
			}
		})
	}
}

func TestHeadingAngleZeroVector(t *testing.T) {
	for _, pair := range [][2]r3.Vec{
		{{}, {X: 1}},
		{{X: 1}, {}},
		{{Z: 1}, {X: 1}},
	} {
		if _, err := HeadingAngle(pair[0], pair[1]); !errors.Is(err, ErrZeroVector) {
			t.Errorf("HeadingAngle(%v, %v) error = %v, want ErrZeroVector", pair[0], pair[1], err)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		angle float64
		want  Direction
	}{
		{0, SameDirection},
		{45, SameDirection},
		{45.01, Crossing},
		{90, Crossing},
		{134.99, Crossing},
		{135, Opposing},
		{180, Opposing},
	}
	for _, tt := range tests {
		if got := Classify(tt.angle, 45, 135); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.angle, got, tt.want)
		}
	}
}

func TestFlag(t *testing.T) {
	if Flag(true) != 1 || Flag(false) != 0 {
		t.Error("Flag encoding mismatch")
	}
}
