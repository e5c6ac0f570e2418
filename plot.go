package predictor

import (
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineSeries generates an echart multi-line chart for some arbitrary set of
// equal-length series plotted against the row index.
func LineSeries(title string, seriesName []string, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	var n int
	for _, series := range y {
		if len(series) > n {
			n = len(series)
		}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	line = line.SetXAxis(idx)
	for i, name := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(name, lineData)
	}
	return line
}

// LineForecast generates an echart line chart for a forecast result plotting
// the predicted values along with the upper and lower bounds.
func LineForecast(res *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Forecast",
			},
		),
	)

	steps := make([]int, 0, len(res.Predictions))
	lineDataValue := make([]opts.LineData, 0, len(res.Predictions))
	lineDataUpper := make([]opts.LineData, 0, len(res.Predictions))
	lineDataLower := make([]opts.LineData, 0, len(res.Predictions))
	for _, p := range res.Predictions {
		steps = append(steps, p.Step)
		lineDataValue = append(lineDataValue, opts.LineData{Value: p.Value})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: p.UpperBound})
		lineDataLower = append(lineDataLower, opts.LineData{Value: p.LowerBound})
	}

	line.SetXAxis(steps).
		AddSeries("Forecast", lineDataValue).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}

// PlotFit uses the Apache Echarts library to generate an html file showing
// the fit against the training and test partitions along with the forecast.
func (p *Predictor) PlotFit(path string, res *Results) error {
	if p.model == nil {
		return ErrNotTrained
	}

	page := components.NewPage()
	page.AddCharts(
		LineSeries(
			"Model Fit",
			[]string{"Actual", "Predicted"},
			[][]float64{p.fitActual, p.fitPredicted},
		),
	)
	if res != nil {
		page.AddCharts(LineForecast(res))
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return page.Render(io.MultiWriter(file))
}
