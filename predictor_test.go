package predictor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastkit/go-predictor/dataset"
	"github.com/forecastkit/go-predictor/feature"
	"github.com/forecastkit/go-predictor/models"
)

// simulatedTable builds a trending weekly wave with seeded noise.
func simulatedTable(t *testing.T, n int) *dataset.Table {
	t.Helper()

	y := dataset.GenerateTrendY(n, 10.0, 0.05).
		Add(dataset.GenerateWaveY(n, 2.0, 7.0, 1.0, 0)).
		Add(dataset.GenerateNoise(n, 0.1, 42))

	tbl := dataset.New()
	require.Nil(t, tbl.AddNumeric("value", y))
	return tbl
}

func TestPredictorRunLSTM(t *testing.T) {
	tbl := simulatedTable(t, 400)

	p, err := New(&Options{
		TargetColumn:   "value",
		ForecastWindow: 10,
		TimeScale:      TimeScaleDaily,
		Seed:           42,
		LSTMOptions: &models.LSTMOptions{
			Units:        24,
			Dropout:      0.1,
			LearningRate: 0.005,
			Epochs:       60,
			Patience:     15,
		},
	})
	require.Nil(t, err)

	res, err := p.Run(tbl)
	require.Nil(t, err)

	assert.Equal(t, ModelTypeLSTM, res.ModelType)
	assert.Equal(t, 10, res.ForecastWindow)
	require.Len(t, res.Predictions, 10)
	for i, pred := range res.Predictions {
		assert.Equal(t, i+1, pred.Step)
		assert.False(t, math.IsNaN(pred.Value))
		assert.GreaterOrEqual(t, pred.Confidence, 0.0)
		assert.LessOrEqual(t, pred.LowerBound, pred.Value)
		assert.GreaterOrEqual(t, pred.UpperBound, pred.Value)
	}
	assert.Greater(t, res.Metrics.TestR2, 0.0)
	assert.NotEmpty(t, p.Diagnosis())
	require.NotNil(t, p.Schema())
	assert.Equal(t, "value", p.Schema().Columns()[0])
}

func TestPredictorRunSVR(t *testing.T) {
	tbl := simulatedTable(t, 40)

	p, err := New(&Options{
		TargetColumn:   "value",
		ForecastWindow: 5,
		TimeScale:      TimeScaleDaily,
		Seed:           7,
	})
	require.Nil(t, err)

	res, err := p.Run(tbl)
	require.Nil(t, err)

	// 40 clean rows fall well under the selection threshold
	assert.Equal(t, ModelTypeSVR, res.ModelType)
	require.Len(t, res.Predictions, 5)
	for _, pred := range res.Predictions {
		assert.False(t, math.IsNaN(pred.Value))
	}
}

func TestPredictorForecastRepeatable(t *testing.T) {
	tbl := simulatedTable(t, 60)

	p, err := New(&Options{
		TargetColumn:   "value",
		ForecastWindow: 5,
		TimeScale:      TimeScaleDaily,
		Seed:           11,
	})
	require.Nil(t, err)
	require.Nil(t, p.Fit(tbl))

	first, err := p.Forecast()
	require.Nil(t, err)
	second, err := p.Forecast()
	require.Nil(t, err)
	assert.Equal(t, first, second)
}

func TestPredictorModelOverride(t *testing.T) {
	tbl := simulatedTable(t, 60)

	p, err := New(&Options{
		TargetColumn:   "value",
		ForecastWindow: 3,
		TimeScale:      TimeScaleDaily,
		ModelType:      ModelTypeLSTM,
		Seed:           5,
		LSTMOptions: &models.LSTMOptions{
			Units:        8,
			LearningRate: 0.01,
			Epochs:       5,
		},
	})
	require.Nil(t, err)

	res, err := p.Run(tbl)
	require.Nil(t, err)
	assert.Equal(t, ModelTypeLSTM, res.ModelType)
}

func TestPredictorErrors(t *testing.T) {
	p, err := New(&Options{
		TargetColumn:   "value",
		ForecastWindow: 5,
	})
	require.Nil(t, err)

	_, err = p.Forecast()
	assert.ErrorIs(t, err, ErrNotTrained)

	assert.ErrorIs(t, p.Fit(dataset.New()), dataset.ErrNoRows)

	tbl := dataset.New()
	require.Nil(t, tbl.AddNumeric("other", []float64{1, 2, 3}))
	assert.ErrorIs(t, p.Fit(tbl), feature.ErrNoTargetColumn)
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"nil uses defaults": {nil, nil},
		"missing target":    {&Options{ForecastWindow: 5}, ErrNoTargetColumn},
		"zero horizon":      {&Options{TargetColumn: "y"}, ErrInvalidHorizon},
		"bad model type":    {&Options{TargetColumn: "y", ForecastWindow: 5, ModelType: "tree"}, ErrUnknownModelType},
		"bad time scale":    {&Options{TargetColumn: "y", ForecastWindow: 5, TimeScale: "Fortnightly"}, ErrUnknownTimeScale},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, ModelTypeAuto, opt.ModelType)
			assert.Equal(t, TimeScaleDaily, opt.TimeScale)
		})
	}
}
