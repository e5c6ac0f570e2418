package predictor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// mapeEpsilon keeps the percent error defined when an actual value is zero.
const mapeEpsilon = 1e-8

// Metrics holds the error scores of one partition in physical units.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
	R2   float64 `json:"r2"`
}

// NewMetrics computes MAE, RMSE, MAPE, and R2 of predicted against actual.
func NewMetrics(predicted, actual []float64) (*Metrics, error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("predicted has %d values and actual has %d, %w", len(predicted), len(actual), ErrResLenMismatch)
	}
	if len(actual) == 0 {
		return nil, ErrResLenMismatch
	}

	var absErr, sqErr, pctErr, ssTot float64
	mean := stat.Mean(actual, nil)
	for i := range actual {
		diff := actual[i] - predicted[i]
		absErr += math.Abs(diff)
		sqErr += diff * diff
		pctErr += math.Abs(diff / (actual[i] + mapeEpsilon))
		ssTot += (actual[i] - mean) * (actual[i] - mean)
	}
	n := float64(len(actual))

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1.0 - sqErr/ssTot
	}
	return &Metrics{
		MAE:  absErr / n,
		RMSE: math.Sqrt(sqErr / n),
		MAPE: pctErr / n * 100.0,
		R2:   r2,
	}, nil
}

// Diagnosis classifications returned by Diagnose, checked in priority order.
const (
	DiagnosisUnderfitHighError = "underfitting: high training error"
	DiagnosisUnderfitLowR2     = "underfitting: low r-squared on training data"
	DiagnosisOverfit           = "overfitting: test error much higher than training error"
	DiagnosisUnusual           = "unusual: test error lower than training error, check for leakage"
	DiagnosisGoodStrong        = "good generalization, strong test fit"
	DiagnosisGoodModerate      = "good generalization, moderate test fit"
	DiagnosisGoodWeak          = "good generalization, room for improvement"
)

// Diagnose classifies generalization quality from the train and test scores
// and the training target values. Informational only, a poor diagnosis never
// aborts a run.
func Diagnose(train, test *Metrics, trainActual []float64) string {
	std := stat.StdDev(trainActual, nil)
	if std > 0 && train.RMSE > 0.8*std {
		return DiagnosisUnderfitHighError
	}
	if train.R2 < 0.3 {
		return DiagnosisUnderfitLowR2
	}

	ratio := math.Inf(1)
	if train.RMSE > 0 {
		ratio = test.RMSE / train.RMSE
	}
	if ratio > 1.5 {
		return DiagnosisOverfit
	}
	if ratio < 0.8 {
		return DiagnosisUnusual
	}

	switch {
	case test.R2 > 0.7:
		return DiagnosisGoodStrong
	case test.R2 > 0.5:
		return DiagnosisGoodModerate
	}
	return DiagnosisGoodWeak
}
