package predictor

import (
	"github.com/forecastkit/go-predictor/sequence"
)

// SelectionThreshold is the estimated training-set size at which the
// selection rule switches from SVR to LSTM.
const SelectionThreshold = 150

// One-hot cardinality caps per model path. The cap is applied before
// encoding so the estimate and the final matrix width stay consistent.
const (
	SVRCategoryCap  = 20
	LSTMCategoryCap = 50
)

const trainFraction = 0.8

// EstimateTrainingSize estimates how many training sequences the
// augmentation policy will yield from a cleaned row count, before any
// encoding or windowing happens. The tiers mirror the sequence builder so
// the two never disagree.
func EstimateTrainingSize(nRows int) float64 {
	seqLenEst := nRows / 5
	if seqLenEst > 20 {
		seqLenEst = 20
	}
	initial := float64(nRows - seqLenEst)

	switch {
	case initial < sequence.TierSmallMax:
		// the small tier estimates x3 even though the builder appends a
		// single jitter copy
		return initial * 3 * trainFraction
	case initial < sequence.TierMediumMax:
		return initial / 3 * 2 * trainFraction
	}
	return initial * trainFraction
}

// ChooseModel applies the selection boundary to a training-size estimate.
func ChooseModel(estimate float64) (ModelType, int) {
	if estimate < SelectionThreshold {
		return ModelTypeSVR, SVRCategoryCap
	}
	return ModelTypeLSTM, LSTMCategoryCap
}

// SelectModel picks the model for a cleaned row count and returns the
// one-hot category cap for that path.
func SelectModel(nRows int) (ModelType, int) {
	return ChooseModel(EstimateTrainingSize(nRows))
}
