package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultSVRC          = 1.0
	DefaultSVREpsilon    = 0.1
	DefaultSVRIterations = 1000
	DefaultSVRTolerance  = 1e-4
)

var (
	ErrNegativeC          = errors.New("negative or zero C")
	ErrNegativeEpsilon    = errors.New("negative epsilon")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
)

// SVROptions represents input options to fit the epsilon support vector
// regression
type SVROptions struct {
	// C bounds the magnitude of every dual coefficient, controlling the
	// regularization. Larger values fit the training data more closely.
	C float64

	// Gamma is the RBF kernel width. 0.0 resolves to the "scale" heuristic
	// 1/(n_features * variance) computed from the training inputs.
	Gamma float64

	// Epsilon is the width of the insensitive tube. Residuals within the
	// tube contribute no loss, which is what keeps the dual solution sparse.
	Epsilon float64

	// Iterations is the maximum number of times the fit loops through
	// training all dual coefficients.
	Iterations int

	// Tolerance is the smallest coefficient change on each iteration to
	// determine when to stop iterating.
	Tolerance float64
}

// Validate runs basic validation on SVR options
func (s *SVROptions) Validate() (*SVROptions, error) {
	if s == nil {
		s = NewDefaultSVROptions()
	}
	if s.C <= 0 {
		return nil, ErrNegativeC
	}
	if s.Gamma < 0 {
		return nil, fmt.Errorf("gamma %f must be non-negative", s.Gamma)
	}
	if s.Epsilon < 0 {
		return nil, ErrNegativeEpsilon
	}
	if s.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if s.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	return s, nil
}

// NewDefaultSVROptions returns a default set of SVR options
func NewDefaultSVROptions() *SVROptions {
	return &SVROptions{
		C:          DefaultSVRC,
		Gamma:      0.0,
		Epsilon:    DefaultSVREpsilon,
		Iterations: DefaultSVRIterations,
		Tolerance:  DefaultSVRTolerance,
	}
}

// SVR computes an epsilon support vector regression with an RBF kernel using
// coordinate descent on the dual coefficients. Each window is flattened to a
// single feature vector before fitting.
type SVR struct {
	opt *SVROptions

	gamma    float64
	supportX [][]float64
	beta     []float64
	bias     float64
}

// NewSVR initializes an SVR model ready for fitting
func NewSVR(opt *SVROptions) (*SVR, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &SVR{opt: opt}, nil
}

// Fit the model according to the given training windows
func (s *SVR) Fit(x [][][]float64, y []float64) error {
	if s.opt == nil {
		return ErrNoOptions
	}
	if len(x) == 0 {
		return ErrNoTrainingData
	}
	if len(x) != len(y) {
		return fmt.Errorf("got %d training windows and %d targets, %w", len(x), len(y), ErrTargetLenMismatch)
	}

	m := len(x)
	flat := make([][]float64, m)
	for i, window := range x {
		flat[i] = flatten(window)
	}
	n := len(flat[0])

	s.gamma = s.opt.Gamma
	if s.gamma == 0 {
		s.gamma = scaleGamma(flat, n)
	}

	// precompute the full kernel matrix. K_ii is always 1 for RBF.
	kern := make([][]float64, m)
	for i := 0; i < m; i++ {
		kern[i] = make([]float64, m)
		for j := 0; j <= i; j++ {
			k := rbf(flat[i], flat[j], s.gamma)
			kern[i][j] = k
			kern[j][i] = k
		}
	}

	// centering the target absorbs the bias so the descent only has to fit
	// the deviations
	s.bias = stat.Mean(y, nil)
	yc := make([]float64, m)
	for i, v := range y {
		yc[i] = v - s.bias
	}

	beta := make([]float64, m)

	// tracks the current kernel expansion value at every training point,
	// updated incrementally as each coefficient moves
	f := make([]float64, m)

	for iter := 0; iter < s.opt.Iterations; iter++ {
		maxCoef := 0.0
		maxUpdate := 0.0

		for i := 0; i < m; i++ {
			betaCurr := beta[i]
			residual := yc[i] - (f[i] - betaCurr)

			betaNext := SoftThreshold(residual, s.opt.Epsilon)
			if betaNext > s.opt.C {
				betaNext = s.opt.C
			} else if betaNext < -s.opt.C {
				betaNext = -s.opt.C
			}

			betaDiff := betaNext - betaCurr
			if betaDiff != 0 {
				floats.AddScaled(f, betaDiff, kern[i])
			}
			beta[i] = betaNext

			maxCoef = math.Max(maxCoef, math.Abs(betaNext))
			maxUpdate = math.Max(maxUpdate, math.Abs(betaDiff))
		}

		// break early if we've achieved the desired tolerance
		if maxUpdate < s.opt.Tolerance*maxCoef {
			break
		}
	}

	s.supportX = flat
	s.beta = beta
	return nil
}

// Predict the value immediately following a single window
func (s *SVR) Predict(window [][]float64) (float64, error) {
	if s.beta == nil {
		return 0.0, ErrNotFitted
	}
	if len(window) == 0 {
		return 0.0, ErrNoInferenceWindow
	}
	flat := flatten(window)
	if len(flat) != len(s.supportX[0]) {
		return 0.0, fmt.Errorf("got %d flattened features, but expected %d, %w", len(flat), len(s.supportX[0]), ErrWindowShapeMismatch)
	}

	pred := s.bias
	for i, b := range s.beta {
		if b == 0 {
			continue
		}
		pred += b * rbf(s.supportX[i], flat, s.gamma)
	}
	return pred, nil
}

// Bias returns the fitted constant offset of the kernel expansion.
func (s *SVR) Bias() float64 {
	return s.bias
}

// Gamma returns the resolved RBF kernel width after fitting.
func (s *SVR) Gamma() float64 {
	return s.gamma
}

// Coef returns a slice of the trained dual coefficients in training-window
// order. Zero entries are non-support vectors.
func (s *SVR) Coef() []float64 {
	return s.beta
}

// SupportVectors returns the flattened training inputs paired with Coef.
func (s *SVR) SupportVectors() [][]float64 {
	return s.supportX
}

// SoftThreshold returns 0.0 if the value is less than or equal to the gamma
// input
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}

func rbf(a, b []float64, gamma float64) float64 {
	var dist float64
	for i := range a {
		d := a[i] - b[i]
		dist += d * d
	}
	return math.Exp(-gamma * dist)
}

// scaleGamma mirrors the "scale" heuristic, 1/(n_features * var(X)) over all
// entries of the flattened training inputs.
func scaleGamma(flat [][]float64, n int) float64 {
	all := make([]float64, 0, len(flat)*n)
	for _, row := range flat {
		all = append(all, row...)
	}
	variance := stat.Variance(all, nil)
	if variance <= 0 {
		return 1.0 / float64(n)
	}
	return 1.0 / (float64(n) * variance)
}
