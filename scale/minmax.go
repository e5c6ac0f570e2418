// Package scale provides min-max scaling fitted once on the historical data
// and applied symmetrically in both directions for the life of a run. The
// forecast loop depends on the inverse transform to update engineered
// features in physical units before re-scaling.
package scale

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotFitted     = errors.New("scaler has not been fitted")
	ErrNoData        = errors.New("no data to fit scaler on")
	ErrWidthMismatch = errors.New("input width does not match fitted scaler")
	ErrAlreadyFitted = errors.New("scaler is already fitted")
)

// MinMax maps each column affinely from [DataMin, DataMax] to [0, 1].
// Constant columns map to 0. Fitted state is immutable; fitting twice is an
// error rather than a silent refit.
type MinMax struct {
	DataMin []float64 `json:"data_min"`
	DataMax []float64 `json:"data_max"`
}

func NewMinMax() *MinMax {
	return &MinMax{}
}

func (m *MinMax) fitted() bool {
	return len(m.DataMin) > 0
}

// Fit learns per-column min and max from the matrix.
func (m *MinMax) Fit(x *mat.Dense) error {
	if m.fitted() {
		return ErrAlreadyFitted
	}
	if x == nil {
		return ErrNoData
	}
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return ErrNoData
	}
	m.DataMin = make([]float64, cols)
	m.DataMax = make([]float64, cols)
	for j := 0; j < cols; j++ {
		minVal := x.At(0, j)
		maxVal := x.At(0, j)
		for i := 1; i < rows; i++ {
			v := x.At(i, j)
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
		m.DataMin[j] = minVal
		m.DataMax[j] = maxVal
	}
	return nil
}

// FitVec learns min and max from a single column vector.
func (m *MinMax) FitVec(y []float64) error {
	if len(y) == 0 {
		return ErrNoData
	}
	x := mat.NewDense(len(y), 1, nil)
	for i, v := range y {
		x.Set(i, 0, v)
	}
	return m.Fit(x)
}

func (m *MinMax) Width() int {
	return len(m.DataMin)
}

func (m *MinMax) scaleAt(j, direction int, v float64) float64 {
	span := m.DataMax[j] - m.DataMin[j]
	if span == 0 {
		if direction < 0 {
			return m.DataMin[j]
		}
		return 0
	}
	if direction < 0 {
		return v*span + m.DataMin[j]
	}
	return (v - m.DataMin[j]) / span
}

// Transform scales a matrix into [0, 1] column by column, returning a new
// matrix.
func (m *MinMax) Transform(x *mat.Dense) (*mat.Dense, error) {
	if !m.fitted() {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != m.Width() {
		return nil, fmt.Errorf("input has %d columns, scaler has %d, %w", cols, m.Width(), ErrWidthMismatch)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.scaleAt(j, 1, x.At(i, j)))
		}
	}
	return out, nil
}

// Inverse maps a scaled matrix back to physical units.
func (m *MinMax) Inverse(x *mat.Dense) (*mat.Dense, error) {
	if !m.fitted() {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != m.Width() {
		return nil, fmt.Errorf("input has %d columns, scaler has %d, %w", cols, m.Width(), ErrWidthMismatch)
	}
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.scaleAt(j, -1, x.At(i, j)))
		}
	}
	return out, nil
}

// TransformRow scales a single physical row in place.
func (m *MinMax) TransformRow(row []float64) error {
	if !m.fitted() {
		return ErrNotFitted
	}
	if len(row) != m.Width() {
		return fmt.Errorf("row has %d columns, scaler has %d, %w", len(row), m.Width(), ErrWidthMismatch)
	}
	for j, v := range row {
		row[j] = m.scaleAt(j, 1, v)
	}
	return nil
}

// InverseRow maps a single scaled row back to physical units in place.
func (m *MinMax) InverseRow(row []float64) error {
	if !m.fitted() {
		return ErrNotFitted
	}
	if len(row) != m.Width() {
		return fmt.Errorf("row has %d columns, scaler has %d, %w", len(row), m.Width(), ErrWidthMismatch)
	}
	for j, v := range row {
		row[j] = m.scaleAt(j, -1, v)
	}
	return nil
}

// TransformVec scales a target vector with a single-column scaler, returning
// a new slice.
func (m *MinMax) TransformVec(y []float64) ([]float64, error) {
	if !m.fitted() {
		return nil, ErrNotFitted
	}
	if m.Width() != 1 {
		return nil, fmt.Errorf("scaler has %d columns, want 1, %w", m.Width(), ErrWidthMismatch)
	}
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = m.scaleAt(0, 1, v)
	}
	return out, nil
}

// InverseVec maps a scaled target vector back to physical units, returning a
// new slice.
func (m *MinMax) InverseVec(y []float64) ([]float64, error) {
	if !m.fitted() {
		return nil, ErrNotFitted
	}
	if m.Width() != 1 {
		return nil, fmt.Errorf("scaler has %d columns, want 1, %w", m.Width(), ErrWidthMismatch)
	}
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = m.scaleAt(0, -1, v)
	}
	return out, nil
}

// InverseMagnitude converts a deviation in scaled units to a deviation in
// physical units. Min-max inversion is affine, so inverting a magnitude must
// drop the offset: the result is v times the fitted span, not DataMin plus
// v times the span.
func (m *MinMax) InverseMagnitude(v float64) (float64, error) {
	if !m.fitted() {
		return 0, ErrNotFitted
	}
	if m.Width() != 1 {
		return 0, fmt.Errorf("scaler has %d columns, want 1, %w", m.Width(), ErrWidthMismatch)
	}
	return v * (m.DataMax[0] - m.DataMin[0]), nil
}
