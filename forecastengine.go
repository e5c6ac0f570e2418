package predictor

import (
	"errors"
	"fmt"

	"github.com/forecastkit/go-predictor/feature"
	"github.com/forecastkit/go-predictor/models"
	"github.com/forecastkit/go-predictor/scale"
)

var ErrNoWindow = errors.New("no trailing window to forecast from")

// forecastEngine rolls the fitted model forward autoregressively. Every step
// predicts from the trailing window, then rebuilds the next input row in
// physical units so cyclical phase, lag slots, and rolling statistics carry
// real-valued semantics before re-scaling.
type forecastEngine struct {
	model   models.Model
	schema  *feature.Schema
	xScaler *scale.MinMax
	yScaler *scale.MinMax

	target string

	// lastWindow holds the trailing scaled rows, lastIndex the row index of
	// the final historical observation. Both advance as steps generate.
	lastWindow [][]float64
	lastIndex  int
}

// run generates horizon steps and returns them in physical units. Step i
// depends only on steps before it and the trailing real window.
func (e *forecastEngine) run(horizon int) ([]float64, error) {
	if len(e.lastWindow) == 0 {
		return nil, ErrNoWindow
	}

	targetIdx, hasTarget := e.schema.Index(e.target)
	preds := make([]float64, 0, horizon)

	for step := 1; step <= horizon; step++ {
		predScaled, err := e.model.Predict(e.lastWindow)
		if err != nil {
			return nil, fmt.Errorf("unable to predict step %d, %w", step, err)
		}
		pred, err := e.yScaler.InverseVec([]float64{predScaled})
		if err != nil {
			return nil, fmt.Errorf("unable to inverse scale step %d, %w", step, err)
		}
		preds = append(preds, pred[0])

		// candidate next row starts as a copy of the newest row, moved back
		// to physical units so the feature updates below operate on real
		// values
		row := make([]float64, len(e.lastWindow[len(e.lastWindow)-1]))
		copy(row, e.lastWindow[len(e.lastWindow)-1])
		if err := e.xScaler.InverseRow(row); err != nil {
			return nil, fmt.Errorf("unable to inverse scale window row, %w", err)
		}

		futureIdx := e.lastIndex + step
		for j := 0; j < e.schema.Len(); j++ {
			switch f := e.schema.At(j).(type) {
			case *feature.Cyclical:
				row[j] = f.At(futureIdx)
			case *feature.Lag:
				if f.Source != e.target {
					continue
				}
				if f.Steps == 1 {
					row[j] = preds[step-1]
				} else if step > f.Steps {
					// far enough in that the lag lands on generated
					// history; before that the historical value stays
					row[j] = preds[step-1-f.Steps]
				}
			case *feature.Rolling:
				if f.Source != e.target {
					continue
				}
				if step >= f.Window {
					row[j] = f.Eval(preds[step-f.Window : step])
				}
			}
		}
		if hasTarget {
			row[targetIdx] = preds[step-1]
		}

		if err := e.xScaler.TransformRow(row); err != nil {
			return nil, fmt.Errorf("unable to re-scale window row, %w", err)
		}
		e.lastWindow = append(e.lastWindow[1:], row)
	}
	return preds, nil
}
