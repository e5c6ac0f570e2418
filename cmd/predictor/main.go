// Command predictor runs the forecasting pipeline over a CSV dataset and
// writes a self-delimited JSON result block to stdout. Diagnostics go to
// stderr so a calling process can extract the block from mixed output.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/profile"
	"gopkg.in/yaml.v2"

	predictor "github.com/forecastkit/go-predictor"
	"github.com/forecastkit/go-predictor/dataset"
	"github.com/forecastkit/go-predictor/feature"
	"github.com/forecastkit/go-predictor/models"
	"github.com/forecastkit/go-predictor/sequence"
)

// Exit codes per error class so the calling process can distinguish bad
// configuration from bad data from a failed fit.
const (
	exitConfigError  = 2
	exitDataError    = 3
	exitFitError     = 4
	exitUnknownError = 1
)

type config struct {
	Input          string   `yaml:"input"`
	TargetColumn   string   `yaml:"target_column"`
	FeatureColumns []string `yaml:"feature_columns"`
	ForecastWindow int      `yaml:"forecast_window"`
	ModelType      string   `yaml:"model_type"`
	TimeScale      string   `yaml:"time_scale"`
	SequenceLength int      `yaml:"sequence_length"`
	Seed           uint64   `yaml:"seed"`
	DateColumn     string   `yaml:"date_column"`
	Plot           string   `yaml:"plot"`
	Export         string   `yaml:"export"`
}

func defaultConfig() *config {
	return &config{
		Input:          "-",
		ForecastWindow: 10,
		ModelType:      string(predictor.ModelTypeAuto),
		TimeScale:      string(predictor.TimeScaleDaily),
	}
}

func (c *config) applyEnv() {
	if v := os.Getenv("TARGET_COLUMN"); v != "" {
		c.TargetColumn = v
	}
	if v := os.Getenv("FEATURE_COLUMNS"); v != "" {
		c.FeatureColumns = splitColumns(v)
	}
	if v := os.Getenv("FORECAST_WINDOW"); v != "" {
		if window, err := strconv.Atoi(v); err == nil {
			c.ForecastWindow = window
		}
	}
	if v := os.Getenv("MODEL_TYPE"); v != "" {
		c.ModelType = v
	}
	if v := os.Getenv("TIME_SCALE"); v != "" {
		c.TimeScale = v
	}
}

func splitColumns(v string) []string {
	parts := strings.Split(v, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	input := flag.String("input", "", "csv input path, - for stdin")
	target := flag.String("target", "", "target column to forecast")
	features := flag.String("features", "", "comma separated input columns")
	window := flag.Int("window", 0, "number of future steps to forecast")
	modelType := flag.String("model", "", "model override: auto, svr, or lstm")
	timeScale := flag.String("timescale", "", "row resolution: Hourly, Daily, Weekly, Monthly, Quarterly, Yearly")
	seqLen := flag.Int("seqlen", 0, "training window width, 0 for adaptive")
	seed := flag.Uint64("seed", 0, "rng seed for augmentation and weight init")
	dateColumn := flag.String("datecol", "", "date column to derive a holiday indicator from")
	plotPath := flag.String("plot", "", "write an html fit plot to this path")
	exportPath := flag.String("export", "", "write the model artifact to this path")
	profileRun := flag.Bool("profile", false, "write a cpu profile to the working directory")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *profileRun {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, cfg); err != nil {
			slog.Error("unable to load config", "path", *configPath, "error", err.Error())
			os.Exit(exitConfigError)
		}
	}
	cfg.applyEnv()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "target":
			cfg.TargetColumn = *target
		case "features":
			cfg.FeatureColumns = splitColumns(*features)
		case "window":
			cfg.ForecastWindow = *window
		case "model":
			cfg.ModelType = *modelType
		case "timescale":
			cfg.TimeScale = *timeScale
		case "seqlen":
			cfg.SequenceLength = *seqLen
		case "seed":
			cfg.Seed = *seed
		case "datecol":
			cfg.DateColumn = *dateColumn
		case "plot":
			cfg.Plot = *plotPath
		case "export":
			cfg.Export = *exportPath
		}
	})

	if err := run(cfg); err != nil {
		slog.Error("pipeline run failed", "error", err.Error())
		os.Exit(exitCode(err))
	}
}

func loadConfig(path string, cfg *config) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buf, cfg)
}

func run(cfg *config) error {
	var r io.Reader
	if cfg.Input == "-" || cfg.Input == "" {
		r = os.Stdin
	} else {
		file, err := os.Open(cfg.Input)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}

	t, err := dataset.ReadCSV(r)
	if err != nil {
		return err
	}
	slog.Info("loaded dataset", "rows", t.Len(), "columns", len(t.Columns()))

	featureCols := cfg.FeatureColumns
	if cfg.DateColumn != "" {
		featureCols, err = addHolidayColumn(t, cfg.DateColumn, cfg.TargetColumn, featureCols)
		if err != nil {
			return err
		}
	}

	p, err := predictor.New(&predictor.Options{
		TargetColumn:   cfg.TargetColumn,
		FeatureColumns: featureCols,
		ForecastWindow: cfg.ForecastWindow,
		TimeScale:      predictor.TimeScale(cfg.TimeScale),
		ModelType:      predictor.ModelType(cfg.ModelType),
		SequenceLength: cfg.SequenceLength,
		Seed:           cfg.Seed,
	})
	if err != nil {
		return err
	}

	res, err := p.Run(t)
	if err != nil {
		return err
	}
	if err := res.WriteBlock(os.Stdout); err != nil {
		return err
	}

	if cfg.Plot != "" {
		if err := p.PlotFit(cfg.Plot, res); err != nil {
			return err
		}
		slog.Info("wrote fit plot", "path", cfg.Plot)
	}
	if cfg.Export != "" {
		file, err := os.Create(cfg.Export)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := p.Export(file); err != nil {
			return err
		}
		slog.Info("wrote model artifact", "path", cfg.Export)
	}
	return nil
}

// addHolidayColumn parses the date column and appends a 0/1 US holiday
// indicator as an extra input column.
func addHolidayColumn(t *dataset.Table, dateCol, target string, featureCols []string) ([]string, error) {
	raw, ok := t.Categorical(dateCol)
	if !ok {
		return nil, fmt.Errorf("%q, %w", dateCol, dataset.ErrMissingColumn)
	}
	dates, ok := dataset.ParseDates(raw)
	if !ok {
		return nil, fmt.Errorf("%q, %w", dateCol, dataset.ErrNotNumeric)
	}
	const holidayCol = "is_holiday"
	if err := t.AddNumeric(holidayCol, dataset.HolidayIndicator(dates)); err != nil {
		return nil, err
	}
	if len(featureCols) == 0 {
		featureCols = []string{target}
	}
	return append(featureCols, holidayCol), nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, predictor.ErrNoTargetColumn),
		errors.Is(err, predictor.ErrInvalidHorizon),
		errors.Is(err, predictor.ErrUnknownModelType),
		errors.Is(err, predictor.ErrUnknownTimeScale),
		errors.Is(err, feature.ErrNoTargetColumn),
		errors.Is(err, feature.ErrUnknownFeature),
		errors.Is(err, dataset.ErrMissingColumn):
		return exitConfigError
	case errors.Is(err, feature.ErrNoCleanRows),
		errors.Is(err, dataset.ErrNoRows),
		errors.Is(err, dataset.ErrDuplicateHeader),
		errors.Is(err, dataset.ErrInconsistentRecord),
		errors.Is(err, dataset.ErrNotNumeric):
		return exitDataError
	case errors.Is(err, models.ErrNoTrainingData),
		errors.Is(err, models.ErrNotFitted),
		errors.Is(err, predictor.ErrNoTrainSequences),
		errors.Is(err, sequence.ErrTooFewRows):
		return exitFitError
	}
	return exitUnknownError
}
