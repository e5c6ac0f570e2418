package predictor

import (
	"fmt"
	"io"
	"math"

	json "github.com/goccy/go-json"
)

// Markers delimiting the machine-readable result block so a calling process
// can extract it from mixed diagnostic output.
const (
	ResultBlockStart = "<FORECAST_JSON_START>"
	ResultBlockEnd   = "<FORECAST_JSON_END>"
)

// Prediction is a single forecast step. Confidence is a constant half-width
// in physical units derived from the held-out residual spread.
type Prediction struct {
	Step       int     `json:"step"`
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
	LowerBound float64 `json:"lowerBound"`
	UpperBound float64 `json:"upperBound"`
}

// ReportMetrics flattens the train and test scores into the shape consumed
// by the external serving layer.
type ReportMetrics struct {
	TrainMAE  float64 `json:"trainMAE"`
	TrainRMSE float64 `json:"trainRMSE"`
	TrainMAPE float64 `json:"trainMAPE"`
	TrainR2   float64 `json:"trainR2"`
	TestMAE   float64 `json:"testMAE"`
	TestRMSE  float64 `json:"testRMSE"`
	TestMAPE  float64 `json:"testMAPE"`
	TestR2    float64 `json:"testR2"`
}

// Results is the full outcome of one pipeline run.
type Results struct {
	Predictions    []Prediction  `json:"predictions"`
	Metrics        ReportMetrics `json:"metrics"`
	ModelType      ModelType     `json:"modelType"`
	ForecastWindow int           `json:"forecastWindow"`
	Diagnosis      string        `json:"diagnosis,omitempty"`
}

// safeFloat replaces NaN and infinities with 0.0 since downstream consumers
// cannot parse non-finite values.
func safeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}

func (r *Results) sanitized() *Results {
	out := *r
	out.Predictions = make([]Prediction, len(r.Predictions))
	for i, p := range r.Predictions {
		out.Predictions[i] = Prediction{
			Step:       p.Step,
			Value:      safeFloat(p.Value),
			Confidence: safeFloat(p.Confidence),
			LowerBound: safeFloat(p.LowerBound),
			UpperBound: safeFloat(p.UpperBound),
		}
	}
	out.Metrics = ReportMetrics{
		TrainMAE:  safeFloat(r.Metrics.TrainMAE),
		TrainRMSE: safeFloat(r.Metrics.TrainRMSE),
		TrainMAPE: safeFloat(r.Metrics.TrainMAPE),
		TrainR2:   safeFloat(r.Metrics.TrainR2),
		TestMAE:   safeFloat(r.Metrics.TestMAE),
		TestRMSE:  safeFloat(r.Metrics.TestRMSE),
		TestMAPE:  safeFloat(r.Metrics.TestMAPE),
		TestR2:    safeFloat(r.Metrics.TestR2),
	}
	return &out
}

// WriteBlock serializes the sanitized results as a single self-delimited
// JSON block.
func (r *Results) WriteBlock(w io.Writer) error {
	buf, err := json.Marshal(r.sanitized())
	if err != nil {
		return fmt.Errorf("unable to serialize results, %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n%s\n", ResultBlockStart, buf, ResultBlockEnd)
	return err
}
