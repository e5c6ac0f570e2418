// Package models is a collection of sequence regression implementations to be
// used in the predictor. Both models consume fixed-length windows of scaled
// feature rows and emit a single scaled next-value prediction.
package models

// Model fits on a set of supervised windows and predicts the value
// immediately following a single window.
type Model interface {
	Fit(x [][][]float64, y []float64) error
	Predict(window [][]float64) (float64, error)
}

// PredictAll runs Predict over every window in order.
func PredictAll(m Model, x [][][]float64) ([]float64, error) {
	preds := make([]float64, 0, len(x))
	for _, window := range x {
		pred, err := m.Predict(window)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func flatten(window [][]float64) []float64 {
	if len(window) == 0 {
		return nil
	}
	flat := make([]float64, 0, len(window)*len(window[0]))
	for _, row := range window {
		flat = append(flat, row...)
	}
	return flat
}
