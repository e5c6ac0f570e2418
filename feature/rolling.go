package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

type RollingStat string

const (
	RollingStatMean RollingStat = "mean"
	RollingStatStd  RollingStat = "std"
)

// Rolling is a trailing-window summary statistic of a source column. The
// first Window-1 rows are undefined and left as NaN for the fill pass.
type Rolling struct {
	Source string      `json:"source"`
	Window int         `json:"window"`
	Stat   RollingStat `json:"stat"`
}

func NewRolling(source string, window int, rstat RollingStat) *Rolling {
	return &Rolling{source, window, rstat}
}

func (r Rolling) String() string {
	return fmt.Sprintf("%s_roll_%s_%d", r.Source, r.Stat, r.Window)
}

func (r Rolling) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "source":
		return r.Source, true
	case "window":
		return strconv.Itoa(r.Window), true
	case "stat":
		return string(r.Stat), true
	}
	return "", false
}

func (r Rolling) Type() FeatureType {
	return FeatureTypeRolling
}

func (r Rolling) Decode() map[string]string {
	res := make(map[string]string)
	res["source"] = r.Source
	res["window"] = strconv.Itoa(r.Window)
	res["stat"] = string(r.Stat)
	return res
}

// Generate computes the trailing statistic over src. The standard deviation
// is the sample standard deviation matching the training-time convention.
func (r Rolling) Generate(src []float64) []float64 {
	data := make([]float64, len(src))
	for i := 0; i < len(src); i++ {
		if i < r.Window-1 {
			data[i] = math.NaN()
			continue
		}
		data[i] = r.Eval(src[i-r.Window+1 : i+1])
	}
	return data
}

// Eval computes the statistic over a single trailing window of values.
func (r Rolling) Eval(window []float64) float64 {
	mean, std := stat.MeanStdDev(window, nil)
	if r.Stat == RollingStatStd {
		return std
	}
	return mean
}
