package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Kind names a feature matrix flavour.
type Kind string

const (
	KindScene     Kind = "scene"
	KindActor     Kind = "actor"
	KindEgoAction Kind = "ego_action"
	KindObstacle  Kind = "obstacle"
)

// Kinds returns every kind in output order.
func Kinds() []Kind {
	return []Kind{KindScene, KindActor, KindEgoAction, KindObstacle}
}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown feature kind %q", s)
}

// Matrix is a row-per-frame feature table. Every row has len(Columns)
// values. FrameIndex[i] is the index of the frame row i was built from;
// after denoising it is the first frame of the row's window.
type Matrix struct {
	Kind       Kind
	Columns    []string
	Rows       [][]float64
	FrameIndex []int
}

// Len returns the number of rows.
func (m Matrix) Len() int { return len(m.Rows) }

// Width returns the number of columns.
func (m Matrix) Width() int { return len(m.Columns) }

// Column returns the index of the named column, or -1.
func (m Matrix) Column(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns row r of the named column. It panics if the column does
// not exist.
func (m Matrix) Value(r int, column string) float64 {
	c := m.Column(column)
	if c < 0 {
		panic(fmt.Sprintf("features: %s matrix has no column %q", m.Kind, column))
	}
	return m.Rows[r][c]
}

// Dense copies the matrix into a gonum Dense. It returns nil for a matrix
// with no rows or no columns, which gonum cannot represent.
func (m Matrix) Dense() *mat.Dense {
	if m.Len() == 0 || m.Width() == 0 {
		return nil
	}
	data := make([]float64, 0, m.Len()*m.Width())
	for _, row := range m.Rows {
		data = append(data, row...)
	}
	return mat.NewDense(m.Len(), m.Width(), data)
}

// Activity returns, per column, the mean value over all rows. For the
// one-hot and flag columns this is the fraction of frames where the
// feature is set.
func (m Matrix) Activity() []float64 {
	out := make([]float64, m.Width())
	d := m.Dense()
	if d == nil {
		return out
	}
	col := make([]float64, m.Len())
	for j := range out {
		mat.Col(col, j, d)
		out[j] = stat.Mean(col, nil)
	}
	return out
}

// Validate checks the row width and index invariants.
func (m Matrix) Validate() error {
	if len(m.FrameIndex) != len(m.Rows) {
		return fmt.Errorf("%s matrix: %d rows but %d frame indexes", m.Kind, len(m.Rows), len(m.FrameIndex))
	}
	for i, row := range m.Rows {
		if len(row) != len(m.Columns) {
			return fmt.Errorf("%s matrix: row %d has %d values, want %d", m.Kind, i, len(row), len(m.Columns))
		}
	}
	return nil
}

func newMatrix(kind Kind, columns []string, n int) Matrix {
	return Matrix{
		Kind:       kind,
		Columns:    columns,
		Rows:       make([][]float64, 0, n),
		FrameIndex: make([]int, 0, n),
	}
}

func (m *Matrix) append(frame int, row []float64) {
	m.Rows = append(m.Rows, row)
	m.FrameIndex = append(m.FrameIndex, frame)
}
