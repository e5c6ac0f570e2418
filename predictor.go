// Package predictor fits an adaptive time series model on an observation
// table and generates multi-step forecasts with confidence bounds. Small
// datasets get a grid-searched support vector regression, larger ones a
// recurrent network; the choice, sequence construction, and augmentation all
// key off the cleaned row count.
package predictor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/forecastkit/go-predictor/dataset"
	"github.com/forecastkit/go-predictor/feature"
	"github.com/forecastkit/go-predictor/models"
	"github.com/forecastkit/go-predictor/scale"
	"github.com/forecastkit/go-predictor/sequence"
)

var (
	ErrNotTrained       = errors.New("predictor has not been fitted")
	ErrNoTrainSequences = errors.New("no training sequences after the temporal split")
)

// MaxSequenceLength caps the training window width before the row-count
// based shrink kicks in.
const MaxSequenceLength = 30

// Predictor runs the full pipeline: feature engineering, scaling, sequence
// construction, model fitting, and autoregressive forecasting.
type Predictor struct {
	opt *Options

	schema  *feature.Schema
	xScaler *scale.MinMax
	yScaler *scale.MinMax

	model     models.Model
	modelType ModelType
	seqLen    int

	// residualStd is the held-out residual spread in scaled units,
	// converted to a physical confidence width at forecast time
	residualStd float64

	metrics   ReportMetrics
	diagnosis string

	lastWindow [][]float64
	lastIndex  int

	// fit traces in physical units for plotting
	fitActual    []float64
	fitPredicted []float64
}

// New creates a new instance of a Predictor using the provided options. If
// no options are provided a default is used.
func New(opt *Options) (*Predictor, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Predictor{opt: opt}, nil
}

// Fit cleans the table, derives features, and trains the selected model.
func (p *Predictor) Fit(t *dataset.Table) error {
	if t == nil || t.Len() == 0 {
		return dataset.ErrNoRows
	}
	if !t.Has(p.opt.TargetColumn) {
		return fmt.Errorf("%q, %w", p.opt.TargetColumn, feature.ErrNoTargetColumn)
	}

	// clean the target up front so the selection rule sees the same row
	// count the engineer will
	if err := t.CoerceNumeric(p.opt.TargetColumn); err != nil {
		return err
	}
	if err := t.DropNaN(p.opt.TargetColumn); err != nil {
		return err
	}
	n := t.Len()
	if n == 0 {
		return feature.ErrNoCleanRows
	}

	modelType, categoryCap := SelectModel(n)
	if p.opt.ModelType != ModelTypeAuto {
		modelType = p.opt.ModelType
		if modelType == ModelTypeSVR {
			categoryCap = SVRCategoryCap
		} else {
			categoryCap = LSTMCategoryCap
		}
	}
	p.modelType = modelType
	slog.Info("selected model",
		"model", modelType,
		"rows", n,
		"estimated_training_size", EstimateTrainingSize(n))

	step, cycles, err := timeScaleConfig(p.opt.TimeScale)
	if err != nil {
		return err
	}
	eng := feature.NewEngineer(&feature.EngineerOptions{
		Target:        p.opt.TargetColumn,
		Features:      p.opt.FeatureColumns,
		TimeStep:      step,
		Cycles:        cycles,
		MaxCategories: categoryCap,
	})
	x, schema, y, err := eng.Run(t)
	if err != nil {
		return err
	}
	p.schema = schema

	p.seqLen = p.opt.SequenceLength
	if p.seqLen == 0 {
		p.seqLen = n / 5
		if p.seqLen > MaxSequenceLength {
			p.seqLen = MaxSequenceLength
		}
		if p.seqLen < 1 {
			p.seqLen = 1
		}
	}

	p.xScaler = scale.NewMinMax()
	if err := p.xScaler.Fit(x); err != nil {
		return err
	}
	p.yScaler = scale.NewMinMax()
	if err := p.yScaler.FitVec(y); err != nil {
		return err
	}
	xs, err := p.xScaler.Transform(x)
	if err != nil {
		return err
	}
	ys, err := p.yScaler.TransformVec(y)
	if err != nil {
		return err
	}

	seqData, err := sequence.BuildAdaptive(xs, ys, p.seqLen, p.opt.Seed)
	if err != nil {
		return err
	}
	train, test := seqData.Split(0.8)
	if train.Len() == 0 {
		return ErrNoTrainSequences
	}

	switch modelType {
	case ModelTypeSVR:
		searchOpt := p.opt.SVRSearchOptions
		if searchOpt == nil {
			searchOpt = models.NewDefaultSVRSearchOptions()
		}
		search, err := models.NewSVRSearch(searchOpt)
		if err != nil {
			return err
		}
		if err := search.Fit(train.X, train.Y); err != nil {
			return fmt.Errorf("unable to fit svr, %w", err)
		}
		p.model = search
	case ModelTypeLSTM:
		lstmOpt := p.opt.LSTMOptions
		if lstmOpt == nil {
			lstmOpt = models.NewLSTMOptionsForSize(train.Len())
		}
		lstmOpt.Seed = p.opt.Seed
		lstm, err := models.NewLSTM(lstmOpt)
		if err != nil {
			return err
		}
		if err := lstm.Fit(train.X, train.Y); err != nil {
			return fmt.Errorf("unable to fit lstm, %w", err)
		}
		p.model = lstm
	}

	if err := p.score(train, test); err != nil {
		return err
	}

	// freeze the trailing window for the forecast loop
	rows, cols := xs.Dims()
	p.lastWindow = make([][]float64, 0, p.seqLen)
	for i := rows - p.seqLen; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = xs.At(i, j)
		}
		p.lastWindow = append(p.lastWindow, row)
	}
	p.lastIndex = rows - 1
	return nil
}

// score evaluates both partitions in physical units, records the residual
// spread, and classifies generalization quality.
func (p *Predictor) score(train, test *sequence.Dataset) error {
	trainPredScaled, err := models.PredictAll(p.model, train.X)
	if err != nil {
		return fmt.Errorf("unable to predict training partition, %w", err)
	}
	residualSrc := train
	residualPredScaled := trainPredScaled
	testPredScaled := trainPredScaled
	if test.Len() > 0 {
		testPredScaled, err = models.PredictAll(p.model, test.X)
		if err != nil {
			return fmt.Errorf("unable to predict test partition, %w", err)
		}
		residualSrc = test
		residualPredScaled = testPredScaled
	}

	residuals := make([]float64, residualSrc.Len())
	for i := range residuals {
		residuals[i] = residualSrc.Y[i] - residualPredScaled[i]
	}
	p.residualStd = stat.StdDev(residuals, nil)
	if math.IsNaN(p.residualStd) {
		p.residualStd = 0
	}

	trainPred, err := p.yScaler.InverseVec(trainPredScaled)
	if err != nil {
		return err
	}
	trainActual, err := p.yScaler.InverseVec(train.Y)
	if err != nil {
		return err
	}
	trainMetrics, err := NewMetrics(trainPred, trainActual)
	if err != nil {
		return err
	}

	testMetrics := trainMetrics
	testPred := trainPred
	testActual := trainActual
	if test.Len() > 0 {
		testPred, err = p.yScaler.InverseVec(testPredScaled)
		if err != nil {
			return err
		}
		testActual, err = p.yScaler.InverseVec(test.Y)
		if err != nil {
			return err
		}
		testMetrics, err = NewMetrics(testPred, testActual)
		if err != nil {
			return err
		}
	}

	p.metrics = ReportMetrics{
		TrainMAE:  trainMetrics.MAE,
		TrainRMSE: trainMetrics.RMSE,
		TrainMAPE: trainMetrics.MAPE,
		TrainR2:   trainMetrics.R2,
		TestMAE:   testMetrics.MAE,
		TestRMSE:  testMetrics.RMSE,
		TestMAPE:  testMetrics.MAPE,
		TestR2:    testMetrics.R2,
	}
	p.diagnosis = Diagnose(trainMetrics, testMetrics, trainActual)
	slog.Info("fit complete",
		"model", p.modelType,
		"train_rmse", trainMetrics.RMSE,
		"test_rmse", testMetrics.RMSE,
		"diagnosis", p.diagnosis)

	p.fitActual = append([]float64(nil), trainActual...)
	p.fitPredicted = append([]float64(nil), trainPred...)
	if test.Len() > 0 {
		p.fitActual = append(p.fitActual, testActual...)
		p.fitPredicted = append(p.fitPredicted, testPred...)
	}
	return nil
}

// Forecast generates the configured number of future steps with constant
// confidence bounds. Repeated calls regenerate the same forecast from the
// frozen trailing window.
func (p *Predictor) Forecast() (*Results, error) {
	if p.model == nil {
		return nil, ErrNotTrained
	}

	window := make([][]float64, len(p.lastWindow))
	for i, row := range p.lastWindow {
		window[i] = append([]float64(nil), row...)
	}
	engine := &forecastEngine{
		model:      p.model,
		schema:     p.schema,
		xScaler:    p.xScaler,
		yScaler:    p.yScaler,
		target:     p.opt.TargetColumn,
		lastWindow: window,
		lastIndex:  p.lastIndex,
	}
	preds, err := engine.run(p.opt.ForecastWindow)
	if err != nil {
		return nil, err
	}

	conf, err := p.yScaler.InverseMagnitude(p.residualStd)
	if err != nil {
		return nil, err
	}

	res := &Results{
		Metrics:        p.metrics,
		ModelType:      p.modelType,
		ForecastWindow: p.opt.ForecastWindow,
		Diagnosis:      p.diagnosis,
	}
	for i, v := range preds {
		res.Predictions = append(res.Predictions, Prediction{
			Step:       i + 1,
			Value:      v,
			Confidence: conf,
			LowerBound: v - conf,
			UpperBound: v + conf,
		})
	}
	return res, nil
}

// Run fits the table and generates the forecast in one call.
func (p *Predictor) Run(t *dataset.Table) (*Results, error) {
	if err := p.Fit(t); err != nil {
		return nil, err
	}
	return p.Forecast()
}

// Schema returns the frozen feature catalog after fitting.
func (p *Predictor) Schema() *feature.Schema {
	return p.schema
}

// Diagnosis returns the generalization classification after fitting.
func (p *Predictor) Diagnosis() string {
	return p.diagnosis
}

// Metrics returns the train and test scores after fitting.
func (p *Predictor) Metrics() ReportMetrics {
	return p.metrics
}
