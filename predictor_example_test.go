package predictor

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/forecastkit/go-predictor/dataset"
)

func generateExampleTable() *dataset.Table {
	// two hundred days of a trending weekly cycle
	n := 200
	y := dataset.GenerateTrendY(n, 120.0, 0.3).
		Add(dataset.GenerateWaveY(n, 15.0, 7.0, 1.0, 0)).
		Add(dataset.GenerateNoise(n, 2.5, 1))

	tbl := dataset.New()
	if err := tbl.AddNumeric("demand", y); err != nil {
		panic(err)
	}
	return tbl
}

func recoverExamplePanic() {
	if r := recover(); r != nil {
		fmt.Printf("panic: %v\n", r)
		debug.PrintStack()
	}
}

func Example_predictorDaily() {
	tbl := generateExampleTable()

	opt := &Options{
		TargetColumn:   "demand",
		ForecastWindow: 14,
		TimeScale:      TimeScaleDaily,
		Seed:           1,
	}

	defer recoverExamplePanic()

	p, err := New(opt)
	if err != nil {
		panic(err)
	}
	res, err := p.Run(tbl)
	if err != nil {
		panic(err)
	}
	if err := res.WriteBlock(os.Stderr); err != nil {
		panic(err)
	}
	if err := p.PlotFit("examples/predictor_daily.html", res); err != nil {
		panic(err)
	}
	// Output:
}
