package predictor

import (
	"errors"
	"fmt"

	"github.com/forecastkit/go-predictor/feature"
	"github.com/forecastkit/go-predictor/models"
)

var (
	ErrNoTargetColumn   = errors.New("no target column set")
	ErrInvalidHorizon   = errors.New("forecast window must be a positive number of steps")
	ErrUnknownModelType = errors.New("unrecognized model type")
	ErrUnknownTimeScale = errors.New("unrecognized time scale")
)

// ModelType selects which estimator the trainer fits.
type ModelType string

const (
	// ModelTypeAuto defers the choice to the size-based selection rule.
	ModelTypeAuto ModelType = "auto"
	ModelTypeSVR  ModelType = "svr"
	ModelTypeLSTM ModelType = "lstm"
)

// TimeScale is the resolution of the observation rows, fixing both the index
// unit and which seasonal cycles get encoded.
type TimeScale string

const (
	TimeScaleHourly    TimeScale = "Hourly"
	TimeScaleDaily     TimeScale = "Daily"
	TimeScaleWeekly    TimeScale = "Weekly"
	TimeScaleMonthly   TimeScale = "Monthly"
	TimeScaleQuarterly TimeScale = "Quarterly"
	TimeScaleYearly    TimeScale = "Yearly"
)

// timeScaleConfig maps a time scale to the row-index unit and the seasonal
// cycles worth encoding at that resolution.
func timeScaleConfig(ts TimeScale) (feature.TimeStep, []string, error) {
	switch ts {
	case TimeScaleHourly:
		return feature.TimeStepHours, []string{"daily", "weekly"}, nil
	case TimeScaleDaily:
		return feature.TimeStepDays, []string{"yearly", "weekly"}, nil
	case TimeScaleWeekly:
		return feature.TimeStepWeeks, []string{"yearly", "monthly"}, nil
	case TimeScaleMonthly:
		return feature.TimeStepMonths, []string{"yearly", "quarterly"}, nil
	case TimeScaleQuarterly:
		return feature.TimeStepQuarters, []string{"yearly"}, nil
	case TimeScaleYearly:
		return feature.TimeStepYears, []string{"decade"}, nil
	}
	return "", nil, fmt.Errorf("%q, %w", ts, ErrUnknownTimeScale)
}

// Options represents input options to configure a full pipeline run.
type Options struct {
	// TargetColumn is the required numeric column being forecast.
	TargetColumn string `json:"target_column"`

	// FeatureColumns are the input columns. Empty runs univariate with the
	// target as its own input.
	FeatureColumns []string `json:"feature_columns"`

	// ForecastWindow is the number of future steps to generate.
	ForecastWindow int `json:"forecast_window"`

	// TimeScale fixes the row-index unit and enabled seasonal cycles.
	TimeScale TimeScale `json:"time_scale"`

	// ModelType overrides the size-based selection rule when not auto.
	ModelType ModelType `json:"model_type"`

	// SequenceLength is the training window width. 0 resolves to
	// min(30, n_rows/5) after cleaning.
	SequenceLength int `json:"sequence_length"`

	// Seed drives jitter augmentation and network initialization.
	Seed uint64 `json:"seed"`

	SVRSearchOptions *models.SVRSearchOptions `json:"-"`

	// LSTMOptions overrides the size-scaled architecture when set.
	LSTMOptions *models.LSTMOptions `json:"-"`
}

// Validate runs basic validation on pipeline options
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.TargetColumn == "" {
		return nil, ErrNoTargetColumn
	}
	if o.ForecastWindow <= 0 {
		return nil, fmt.Errorf("%d, %w", o.ForecastWindow, ErrInvalidHorizon)
	}
	switch o.ModelType {
	case ModelTypeAuto, ModelTypeSVR, ModelTypeLSTM:
	case "":
		o.ModelType = ModelTypeAuto
	default:
		return nil, fmt.Errorf("%q, want one of %q %q %q, %w", o.ModelType, ModelTypeAuto, ModelTypeSVR, ModelTypeLSTM, ErrUnknownModelType)
	}
	if o.TimeScale == "" {
		o.TimeScale = TimeScaleDaily
	}
	if _, _, err := timeScaleConfig(o.TimeScale); err != nil {
		return nil, err
	}
	if o.SequenceLength < 0 {
		o.SequenceLength = 0
	}
	return o, nil
}

// NewDefaultOptions returns a default set of pipeline options
func NewDefaultOptions() *Options {
	return &Options{
		TargetColumn:   "value",
		ForecastWindow: 10,
		TimeScale:      TimeScaleDaily,
		ModelType:      ModelTypeAuto,
	}
}
