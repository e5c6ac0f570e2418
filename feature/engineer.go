package feature

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/forecastkit/go-predictor/dataset"
)

var (
	ErrNoTargetColumn = errors.New("target column not found in table")
	ErrUnknownFeature = errors.New("feature column not found in table")
	ErrNoCleanRows    = errors.New("no rows remain after cleaning target column")
	ErrNoFeatures     = errors.New("no feature columns produced")
)

// EngineerOptions configures the derived-column pass. A nil or zero value
// field falls back to the default lag and rolling-window sets.
type EngineerOptions struct {
	Target         string   `json:"target"`
	Features       []string `json:"features"`
	TimeStep       TimeStep `json:"time_step"`
	Cycles         []string `json:"cycles"`
	MaxCategories  int      `json:"max_categories"`
	Lags           []int    `json:"lags"`
	RollingWindows []int    `json:"rolling_windows"`
}

func NewDefaultEngineerOptions() *EngineerOptions {
	return &EngineerOptions{
		TimeStep:       TimeStepDays,
		Cycles:         []string{"yearly"},
		MaxCategories:  20,
		Lags:           []int{1, 3, 7},
		RollingWindows: []int{3, 7},
	}
}

// Engineer derives the full feature catalog from a base table: raw numeric
// inputs, one-hot encoded categoricals, cyclical sin/cos pairs, lags, and
// trailing rolling statistics. The catalog order is fixed here once and
// reused verbatim by the scaler and the forecast loop.
type Engineer struct {
	opt *EngineerOptions
}

func NewEngineer(opt *EngineerOptions) *Engineer {
	if opt == nil {
		opt = NewDefaultEngineerOptions()
	}
	if len(opt.Lags) == 0 {
		opt.Lags = []int{1, 3, 7}
	}
	if len(opt.RollingWindows) == 0 {
		opt.RollingWindows = []int{3, 7}
	}
	return &Engineer{opt: opt}
}

// Run cleans the target column, appends every derived column to the table,
// and materializes the feature matrix along with its frozen schema and the
// cleaned target vector. The input table is augmented in place.
func (e *Engineer) Run(t *dataset.Table) (*mat.Dense, *Schema, []float64, error) {
	if !t.Has(e.opt.Target) {
		return nil, nil, nil, fmt.Errorf("%q, %w", e.opt.Target, ErrNoTargetColumn)
	}
	if err := t.CoerceNumeric(e.opt.Target); err != nil {
		return nil, nil, nil, err
	}
	if err := t.DropNaN(e.opt.Target); err != nil {
		return nil, nil, nil, err
	}
	if t.Len() == 0 {
		return nil, nil, nil, ErrNoCleanRows
	}
	if err := t.ClipOutliers(e.opt.Target); err != nil {
		return nil, nil, nil, err
	}

	featureCols := e.opt.Features
	if len(featureCols) == 0 {
		// Univariate run, the target predicts itself through its own
		// lag and rolling columns.
		featureCols = []string{e.opt.Target}
	}

	var feats []Feature
	var numericSources []string
	seenSource := make(map[string]struct{})

	for _, col := range featureCols {
		if !t.Has(col) {
			return nil, nil, nil, fmt.Errorf("%q, %w", col, ErrUnknownFeature)
		}
		if t.IsNumeric(col) {
			feats = append(feats, NewRaw(col))
			if _, exists := seenSource[col]; !exists {
				seenSource[col] = struct{}{}
				numericSources = append(numericSources, col)
			}
			continue
		}
		t.LimitCategories(col, e.opt.MaxCategories)
		cats := t.Categories(col)
		// Drop the first category so the indicator set stays linearly
		// independent of the bias.
		for _, cat := range cats[1:] {
			feats = append(feats, NewEncoded(col, cat))
		}
	}
	if _, exists := seenSource[e.opt.Target]; !exists {
		numericSources = append(numericSources, e.opt.Target)
	}

	n := t.Len()
	periods := CyclePeriods(e.opt.TimeStep)
	for _, cycle := range e.opt.Cycles {
		period, known := periods[cycle]
		if !known {
			continue
		}
		sinFeat := NewCyclical(cycle, FourierCompSin, period)
		cosFeat := NewCyclical(cycle, FourierCompCos, period)
		if err := t.AddNumeric(sinFeat.String(), sinFeat.Generate(n)); err != nil {
			return nil, nil, nil, err
		}
		if err := t.AddNumeric(cosFeat.String(), cosFeat.Generate(n)); err != nil {
			return nil, nil, nil, err
		}
		feats = append(feats, sinFeat, cosFeat)
	}

	for _, src := range numericSources {
		srcVals, _ := t.Numeric(src)
		for _, k := range e.opt.Lags {
			lagFeat := NewLag(src, k)
			if err := t.AddNumeric(lagFeat.String(), lagFeat.Generate(srcVals)); err != nil {
				return nil, nil, nil, err
			}
			feats = append(feats, lagFeat)
		}
	}
	for _, src := range numericSources {
		srcVals, _ := t.Numeric(src)
		for _, w := range e.opt.RollingWindows {
			for _, rstat := range []RollingStat{RollingStatMean, RollingStatStd} {
				rollFeat := NewRolling(src, w, rstat)
				if err := t.AddNumeric(rollFeat.String(), rollFeat.Generate(srcVals)); err != nil {
					return nil, nil, nil, err
				}
				feats = append(feats, rollFeat)
			}
		}
	}
	if len(feats) == 0 {
		return nil, nil, nil, ErrNoFeatures
	}

	// Lag and rolling heads are NaN; the forward fill cannot reach them so
	// the backward fill pulls the first defined value into the head, and the
	// median pass covers anything still open.
	t.FillForward()
	t.FillBackward()
	t.FillRemaining()

	schema := NewSchema(feats)
	x := mat.NewDense(n, schema.Len(), nil)
	for j, f := range feats {
		col, err := materialize(t, f, n)
		if err != nil {
			return nil, nil, nil, err
		}
		x.SetCol(j, col)
	}

	targetVals, _ := t.Numeric(e.opt.Target)
	y := make([]float64, n)
	copy(y, targetVals)
	return x, schema, y, nil
}

func materialize(t *dataset.Table, f Feature, n int) ([]float64, error) {
	if f.Type() == FeatureTypeEncoded {
		source, _ := f.Get("source")
		category, _ := f.Get("category")
		raw, ok := t.Categorical(source)
		if !ok {
			return nil, fmt.Errorf("%q, %w", source, ErrUnknownFeature)
		}
		col := make([]float64, n)
		for i, v := range raw {
			if v == category {
				col[i] = 1.0
			}
		}
		return col, nil
	}
	vals, ok := t.Numeric(f.String())
	if !ok {
		return nil, fmt.Errorf("%q, %w", f.String(), ErrUnknownFeature)
	}
	col := make([]float64, n)
	copy(col, vals)
	return col, nil
}
