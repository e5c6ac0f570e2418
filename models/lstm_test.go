package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLSTMOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *LSTMOptions
		err error
	}{
		"nil":         {nil, nil},
		"zero units":  {&LSTMOptions{Units: 0, LearningRate: 0.001, Epochs: 10}, ErrNegativeUnits},
		"bad dropout": {&LSTMOptions{Units: 8, Dropout: 1.0, LearningRate: 0.001, Epochs: 10}, ErrInvalidDropout},
		"zero lr":     {&LSTMOptions{Units: 8, Epochs: 10}, ErrNegativeLearningRate},
		"zero epochs": {&LSTMOptions{Units: 8, LearningRate: 0.001}, ErrNegativeEpochs},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, NewDefaultLSTMOptions(), opt)
		})
	}
}

func TestNewLSTMOptionsForSize(t *testing.T) {
	testData := map[string]struct {
		n       int
		units   int
		dropout float64
	}{
		"small":  {100, 32, 0.15},
		"medium": {200, 64, 0.15},
		"large":  {500, 64, 0.2},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewLSTMOptionsForSize(td.n)
			assert.Equal(t, td.units, opt.Units)
			assert.Equal(t, td.dropout, opt.Dropout)
		})
	}
}

func TestLSTMFitPredict(t *testing.T) {
	x, y := rampWindows(60, 6, 1)

	lstm, err := NewLSTM(&LSTMOptions{
		Units:        16,
		Dropout:      0.0,
		LearningRate: 0.01,
		Epochs:       100,
		Seed:         3,
	})
	require.Nil(t, err)
	require.Nil(t, lstm.Fit(x, y))

	var absErr float64
	for i := range x {
		pred, err := lstm.Predict(x[i])
		require.Nil(t, err)
		require.False(t, math.IsNaN(pred))
		absErr += math.Abs(pred - y[i])
	}
	absErr /= float64(len(x))

	// must beat always predicting the target mean
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	var meanErr float64
	for _, v := range y {
		meanErr += math.Abs(v - mean)
	}
	meanErr /= float64(len(y))
	assert.Less(t, absErr, meanErr)
}

func TestLSTMDeterministic(t *testing.T) {
	x, y := rampWindows(30, 4, 2)

	fit := func() []float64 {
		lstm, err := NewLSTM(&LSTMOptions{
			Units:        8,
			Dropout:      0.1,
			LearningRate: 0.005,
			Epochs:       15,
			Seed:         99,
		})
		require.Nil(t, err)
		require.Nil(t, lstm.Fit(x, y))
		preds, err := PredictAll(lstm, x)
		require.Nil(t, err)
		return preds
	}

	assert.Equal(t, fit(), fit())
}

func TestLSTMWeightsSnapshot(t *testing.T) {
	x, y := rampWindows(20, 3, 2)

	lstm, err := NewLSTM(&LSTMOptions{
		Units:        4,
		LearningRate: 0.01,
		Epochs:       2,
		Seed:         1,
	})
	require.Nil(t, err)
	assert.Nil(t, lstm.Weights())

	require.Nil(t, lstm.Fit(x, y))
	w := lstm.Weights()
	require.NotNil(t, w)
	assert.Equal(t, 4, w.Units)
	assert.Equal(t, 2, w.InputDim)
	assert.Equal(t, 3, w.SeqLen)
	assert.Len(t, w.InputKernel, 4*4*2)
	assert.Len(t, w.RecurrentKernel, 4*4*4)
	assert.Len(t, w.Bias, 4*4)
	assert.Len(t, w.OutputWeights, 4)
}

func TestLSTMErrors(t *testing.T) {
	lstm, err := NewLSTM(nil)
	require.Nil(t, err)

	assert.ErrorIs(t, lstm.Fit(nil, nil), ErrNoTrainingData)

	x, y := rampWindows(5, 2, 1)
	assert.ErrorIs(t, lstm.Fit(x, y[:2]), ErrTargetLenMismatch)

	_, err = lstm.Predict(x[0])
	assert.ErrorIs(t, err, ErrNotFitted)
}
