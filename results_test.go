package predictor

import (
	"bytes"
	"math"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBlock(t *testing.T) {
	res := &Results{
		Predictions: []Prediction{
			{Step: 1, Value: 10.5, Confidence: 1.0, LowerBound: 9.5, UpperBound: 11.5},
			{Step: 2, Value: 11.0, Confidence: 1.0, LowerBound: 10.0, UpperBound: 12.0},
		},
		Metrics: ReportMetrics{
			TrainMAE: 0.4, TrainRMSE: 0.5, TrainMAPE: 4.0, TrainR2: 0.9,
			TestMAE: 0.6, TestRMSE: 0.7, TestMAPE: 6.0, TestR2: 0.8,
		},
		ModelType:      ModelTypeSVR,
		ForecastWindow: 2,
		Diagnosis:      DiagnosisGoodStrong,
	}

	var buf bytes.Buffer
	require.Nil(t, res.WriteBlock(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, ResultBlockStart+"\n"))
	assert.True(t, strings.HasSuffix(out, "\n"+ResultBlockEnd+"\n"))

	body := strings.TrimSuffix(strings.TrimPrefix(out, ResultBlockStart+"\n"), "\n"+ResultBlockEnd+"\n")
	var decoded Results
	require.Nil(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, *res, decoded)

	assert.Contains(t, body, `"trainMAE"`)
	assert.Contains(t, body, `"modelType"`)
	assert.Contains(t, body, `"forecastWindow"`)
	assert.Contains(t, body, `"lowerBound"`)
}

func TestWriteBlockSanitizesNonFinite(t *testing.T) {
	res := &Results{
		Predictions: []Prediction{
			{Step: 1, Value: math.NaN(), Confidence: math.Inf(1), LowerBound: math.Inf(-1), UpperBound: math.NaN()},
		},
		Metrics: ReportMetrics{
			TrainMAPE: math.Inf(1),
			TestR2:    math.NaN(),
			TrainMAE:  0.25,
		},
		ModelType:      ModelTypeLSTM,
		ForecastWindow: 1,
	}

	var buf bytes.Buffer
	require.Nil(t, res.WriteBlock(&buf))
	out := buf.String()

	assert.NotContains(t, out, "NaN")
	assert.NotContains(t, out, "Inf")

	var decoded Results
	body := strings.TrimSuffix(strings.TrimPrefix(out, ResultBlockStart+"\n"), "\n"+ResultBlockEnd+"\n")
	require.Nil(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, 0.0, decoded.Predictions[0].Value)
	assert.Equal(t, 0.0, decoded.Predictions[0].Confidence)
	assert.Equal(t, 0.0, decoded.Metrics.TestR2)
	assert.Equal(t, 0.25, decoded.Metrics.TrainMAE)

	// the caller's results are untouched
	assert.True(t, math.IsNaN(res.Predictions[0].Value))
}
