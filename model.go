package predictor

import (
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/forecastkit/go-predictor/models"
	"github.com/forecastkit/go-predictor/scale"
)

var ErrUnexportableModel = errors.New("fitted model does not support export")

// SVRModel is the serializable state of a fitted support vector regression.
// Together with the scaler min/max arrays an external serving layer can
// reproduce predictions exactly.
type SVRModel struct {
	Gamma          float64     `json:"gamma"`
	Bias           float64     `json:"bias"`
	Coef           []float64   `json:"coef"`
	SupportVectors [][]float64 `json:"support_vectors"`
}

// Model is a serializable representation of the fitted pipeline state: the
// frozen feature catalog, both scalers, and the estimator parameters. It is
// produced deterministically from the same fitted state.
type Model struct {
	ModelType      ModelType           `json:"model_type"`
	SequenceLength int                 `json:"sequence_length"`
	Columns        []string            `json:"columns"`
	Features       []map[string]string `json:"features"`
	FeatureScaler  *scale.MinMax       `json:"feature_scaler"`
	TargetScaler   *scale.MinMax       `json:"target_scaler"`
	Metrics        ReportMetrics       `json:"metrics"`

	SVR  *SVRModel           `json:"svr,omitempty"`
	LSTM *models.LSTMWeights `json:"lstm,omitempty"`
}

// Model generates a serializable representation of the fitted pipeline for
// consumption by an external serving component.
func (p *Predictor) Model() (Model, error) {
	if p.model == nil {
		return Model{}, ErrNotTrained
	}

	feats := make([]map[string]string, 0, p.schema.Len())
	for _, f := range p.schema.Features() {
		decoded := f.Decode()
		decoded["type"] = string(f.Type())
		feats = append(feats, decoded)
	}
	m := Model{
		ModelType:      p.modelType,
		SequenceLength: p.seqLen,
		Columns:        p.schema.Columns(),
		Features:       feats,
		FeatureScaler:  p.xScaler,
		TargetScaler:   p.yScaler,
		Metrics:        p.metrics,
	}

	switch fitted := p.model.(type) {
	case *models.SVRSearch:
		best, _ := fitted.Best()
		if best == nil {
			return Model{}, ErrNotTrained
		}
		m.SVR = &SVRModel{
			Gamma:          best.Gamma(),
			Bias:           best.Bias(),
			Coef:           best.Coef(),
			SupportVectors: best.SupportVectors(),
		}
	case *models.LSTM:
		m.LSTM = fitted.Weights()
	default:
		return Model{}, ErrUnexportableModel
	}
	return m, nil
}

// Export writes the serialized model artifact.
func (p *Predictor) Export(w io.Writer) error {
	m, err := p.Model()
	if err != nil {
		return err
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("unable to serialize model, %w", err)
	}
	_, err = w.Write(buf)
	return err
}
