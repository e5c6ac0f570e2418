package models

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// MinSearchSize is the training-set size below which cross-validation is
// meaningless and the search falls back to the default SVR options.
const MinSearchSize = 20

// SVRSearchOptions represents input options to fit an SVR with hyperparameters
// selected by grid search under k-fold cross-validation
type SVRSearchOptions struct {
	Cs       []float64
	Gammas   []float64
	Epsilons []float64

	// Iterations and Tolerance are passed through to every candidate fit.
	Iterations int
	Tolerance  float64

	// Parallelization sets how many candidate evaluations to run in
	// parallel. More will increase memory and compute usage.
	Parallelization int
}

// Validate runs basic validation on SVR search options
func (s *SVRSearchOptions) Validate() (*SVRSearchOptions, error) {
	if s == nil {
		s = NewDefaultSVRSearchOptions()
	}
	if len(s.Cs) == 0 || len(s.Gammas) == 0 || len(s.Epsilons) == 0 {
		return nil, ErrNoSearchGrid
	}
	if s.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if s.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if s.Parallelization <= 0 {
		s.Parallelization = 1
	}
	return s, nil
}

// NewDefaultSVRSearchOptions returns the default SVR hyperparameter grid
func NewDefaultSVRSearchOptions() *SVRSearchOptions {
	return &SVRSearchOptions{
		Cs:              []float64{1.0, 10.0, 20.0},
		Gammas:          []float64{0.01, 0.1},
		Epsilons:        []float64{0.01, 0.1},
		Iterations:      DefaultSVRIterations,
		Tolerance:       DefaultSVRTolerance,
		Parallelization: 4,
	}
}

// SVRSearch fits an SVR for every grid candidate under contiguous k-fold
// cross-validation and refits the minimum mean-squared-error candidate on the
// full training set. Fold count is train_size/10 clamped to [2, 3]; below
// MinSearchSize windows the grid is skipped entirely and the defaults are
// used as-is.
type SVRSearch struct {
	opt *SVRSearchOptions

	scoreMu   sync.Mutex
	bestScore float64
	bestOpt   *SVROptions

	final *SVR
}

// NewSVRSearch initializes an SVR grid search ready for fitting
func NewSVRSearch(opt *SVRSearchOptions) (*SVRSearch, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &SVRSearch{
		opt:       opt,
		bestScore: math.Inf(1),
	}, nil
}

// Fit the model according to the given training windows
func (s *SVRSearch) Fit(x [][][]float64, y []float64) error {
	if s.opt == nil {
		return ErrNoOptions
	}
	if len(x) == 0 {
		return ErrNoTrainingData
	}
	if len(x) != len(y) {
		return fmt.Errorf("got %d training windows and %d targets, %w", len(x), len(y), ErrTargetLenMismatch)
	}

	n := len(y)
	if n < MinSearchSize {
		slog.Debug("skipping svr grid search", "windows", n, "min", MinSearchSize)
		return s.refit(NewDefaultSVROptions(), x, y)
	}

	folds := n / 10
	if folds < 2 {
		folds = 2
	} else if folds > 3 {
		folds = 3
	}

	candidates := make([]*SVROptions, 0, len(s.opt.Cs)*len(s.opt.Gammas)*len(s.opt.Epsilons))
	for _, c := range s.opt.Cs {
		for _, gamma := range s.opt.Gammas {
			for _, epsilon := range s.opt.Epsilons {
				candidates = append(candidates, &SVROptions{
					C:          c,
					Gamma:      gamma,
					Epsilon:    epsilon,
					Iterations: s.opt.Iterations,
					Tolerance:  s.opt.Tolerance,
				})
			}
		}
	}

	sem := make(chan struct{}, s.opt.Parallelization)
	var wg sync.WaitGroup
	for _, cand := range candidates {
		sem <- struct{}{}
		wg.Add(1)

		go s.runCandidate(cand, x, y, folds, &wg, sem)
	}
	wg.Wait()

	if s.bestOpt == nil {
		return fmt.Errorf("no grid candidate produced a valid score, %w", ErrNotFitted)
	}
	return s.refit(s.bestOpt, x, y)
}

func (s *SVRSearch) runCandidate(opt *SVROptions, x [][][]float64, y []float64, folds int, wg *sync.WaitGroup, sem chan struct{}) {
	defer func() {
		wg.Done()
		<-sem
	}()

	score, err := crossValidateMSE(opt, x, y, folds)
	if err != nil {
		slog.Error("unable to cross-validate svr candidate", "error", err.Error())
		return
	}

	s.scoreMu.Lock()
	defer s.scoreMu.Unlock()
	if score < s.bestScore {
		s.bestScore = score
		s.bestOpt = opt
	}
}

func (s *SVRSearch) refit(opt *SVROptions, x [][][]float64, y []float64) error {
	reg, err := NewSVR(opt)
	if err != nil {
		return err
	}
	if err := reg.Fit(x, y); err != nil {
		return err
	}
	s.bestOpt = opt
	s.final = reg
	return nil
}

// crossValidateMSE evaluates one candidate over contiguous folds, preserving
// temporal order within each training partition.
func crossValidateMSE(opt *SVROptions, x [][][]float64, y []float64, folds int) (float64, error) {
	n := len(y)
	var sqErr float64
	var count int
	for f := 0; f < folds; f++ {
		lo := f * n / folds
		hi := (f + 1) * n / folds
		if hi <= lo {
			continue
		}

		trainX := make([][][]float64, 0, n-(hi-lo))
		trainY := make([]float64, 0, n-(hi-lo))
		trainX = append(trainX, x[:lo]...)
		trainX = append(trainX, x[hi:]...)
		trainY = append(trainY, y[:lo]...)
		trainY = append(trainY, y[hi:]...)

		reg, err := NewSVR(opt)
		if err != nil {
			return 0.0, err
		}
		if err := reg.Fit(trainX, trainY); err != nil {
			return 0.0, err
		}
		for i := lo; i < hi; i++ {
			pred, err := reg.Predict(x[i])
			if err != nil {
				return 0.0, err
			}
			diff := pred - y[i]
			sqErr += diff * diff
			count++
		}
	}
	if count == 0 {
		return 0.0, ErrNoTrainingData
	}
	return sqErr / float64(count), nil
}

// Predict using the selected SVR
func (s *SVRSearch) Predict(window [][]float64) (float64, error) {
	if s.final == nil {
		return 0.0, ErrNotFitted
	}
	return s.final.Predict(window)
}

// Best returns the refitted winning estimator and its options.
func (s *SVRSearch) Best() (*SVR, *SVROptions) {
	return s.final, s.bestOpt
}
