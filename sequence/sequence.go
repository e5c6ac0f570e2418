// Package sequence turns the scaled feature matrix into supervised
// window-to-next-value examples, applying the stride and jitter augmentation
// tiers that small datasets need to produce a trainable set.
package sequence

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrTooFewRows       = errors.New("not enough rows for one sequence window")
	ErrInvalidSeqLen    = errors.New("sequence length must be positive")
	ErrInvalidStride    = errors.New("stride must be positive")
	ErrRowCountMismatch = errors.New("feature matrix and target have different row counts")
)

// Augmentation tier boundaries on the pre-windowing sample count. The model
// selector applies the same boundaries to its size estimate so the selection
// and the built dataset never disagree.
const (
	TierSmallMax  = 100
	TierMediumMax = 300
)

// Dataset is an ordered set of supervised examples. X[i] is a window of
// consecutive scaled feature rows and Y[i] the scaled target immediately
// after the window. Order is temporal and never shuffled.
type Dataset struct {
	X [][][]float64
	Y []float64
}

func (d *Dataset) Len() int {
	return len(d.Y)
}

// Build slides a window of seqLen rows over the matrix with the given
// stride. The label at row i+seqLen is never part of its own window.
func Build(x *mat.Dense, y []float64, seqLen, stride int) (*Dataset, error) {
	if seqLen <= 0 {
		return nil, fmt.Errorf("%d, %w", seqLen, ErrInvalidSeqLen)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("%d, %w", stride, ErrInvalidStride)
	}
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("matrix has %d rows, target has %d, %w", rows, len(y), ErrRowCountMismatch)
	}
	if rows <= seqLen {
		return nil, fmt.Errorf("%d rows with window %d, %w", rows, seqLen, ErrTooFewRows)
	}

	d := &Dataset{}
	for i := 0; i+seqLen < rows; i += stride {
		window := make([][]float64, seqLen)
		for w := 0; w < seqLen; w++ {
			row := make([]float64, cols)
			mat.Row(row, i+w, x)
			window[w] = row
		}
		d.X = append(d.X, window)
		d.Y = append(d.Y, y[i+seqLen])
	}
	return d, nil
}

// Jitter appends one Gaussian-perturbed copy of every example to the
// dataset. Originals are retained unchanged.
func (d *Dataset) Jitter(sigmaX, sigmaY float64, rng *rand.Rand) {
	n := d.Len()
	for i := 0; i < n; i++ {
		window := make([][]float64, len(d.X[i]))
		for w, row := range d.X[i] {
			jittered := make([]float64, len(row))
			for j, v := range row {
				jittered[j] = v + rng.NormFloat64()*sigmaX
			}
			window[w] = jittered
		}
		d.X = append(d.X, window)
		d.Y = append(d.Y, d.Y[i]+rng.NormFloat64()*sigmaY)
	}
}

// BuildAdaptive picks stride and jitter from the pre-windowing sample count
// n_rows-seqLen. Small sets get stride 1 and a strong jitter copy, medium
// sets stride 3 with a weak jitter copy, large sets stride 1 untouched.
func BuildAdaptive(x *mat.Dense, y []float64, seqLen int, seed uint64) (*Dataset, error) {
	rows, _ := x.Dims()
	initial := rows - seqLen

	stride := 1
	sigmaX, sigmaY := 0.0, 0.0
	switch {
	case initial < TierSmallMax:
		sigmaX, sigmaY = 0.02, 0.01
	case initial < TierMediumMax:
		stride = 3
		sigmaX, sigmaY = 0.01, 0.005
	}

	d, err := Build(x, y, seqLen, stride)
	if err != nil {
		return nil, err
	}
	if sigmaX > 0 {
		rng := rand.New(rand.NewPCG(seed, seed))
		d.Jitter(sigmaX, sigmaY, rng)
	}
	return d, nil
}

// Split partitions the dataset into a leading train set and trailing test
// set at the given fraction, preserving temporal order.
func (d *Dataset) Split(trainFrac float64) (*Dataset, *Dataset) {
	cut := int(float64(d.Len()) * trainFrac)
	train := &Dataset{X: d.X[:cut], Y: d.Y[:cut]}
	test := &Dataset{X: d.X[cut:], Y: d.Y[cut:]}
	return train, test
}
