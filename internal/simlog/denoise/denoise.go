// Package denoise smooths feature matrices with a sliding-window majority
// vote.
package denoise

import (
	"errors"
	"fmt"
	"slices"

	"github.com/banshee-data/scenevec/internal/simlog/features"
)

// DefaultWindow is the window size used when none is configured.
const DefaultWindow = 5

// ErrInvalidWindow is returned for a window smaller than one row.
var ErrInvalidWindow = errors.New("denoise: window must be at least 1")

// Rows emits one row per window rows[i:i+window] for i < len(rows)-window,
// so a sequence of n rows yields max(0, n-window) rows. Each output row is
// the most frequent distinct row of its window, compared by full value
// equality, with ties going to the row seen first.
func Rows(rows [][]float64, window int) ([][]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidWindow, window)
	}
	n := len(rows) - window
	if n <= 0 {
		return [][]float64{}, nil
	}
	out := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, slices.Clone(Majority(rows[i:i+window])))
	}
	return out, nil
}

// Majority returns the most frequent distinct row of window, ties going to
// the first seen. It returns nil for an empty window.
func Majority(window [][]float64) []float64 {
	type candidate struct {
		row   []float64
		count int
	}
	var seen []candidate
	for _, row := range window {
		found := false
		for i := range seen {
			if slices.Equal(seen[i].row, row) {
				seen[i].count++
				found = true
				break
			}
		}
		if !found {
			seen = append(seen, candidate{row: row, count: 1})
		}
	}

	var best []float64
	top := 0
	for _, c := range seen {
		if c.count > top {
			top, best = c.count, c.row
		}
	}
	return best
}

// Matrix denoises m. Row i of the result keeps the frame index of the
// first frame in its window.
func Matrix(m features.Matrix, window int) (features.Matrix, error) {
	rows, err := Rows(m.Rows, window)
	if err != nil {
		return features.Matrix{}, fmt.Errorf("denoise %s matrix: %w", m.Kind, err)
	}
	index := make([]int, len(rows))
	copy(index, m.FrameIndex)
	return features.Matrix{
		Kind:       m.Kind,
		Columns:    slices.Clone(m.Columns),
		Rows:       rows,
		FrameIndex: index,
	}, nil
}
