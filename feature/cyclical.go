package feature

import (
	"fmt"
	"math"
	"strings"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

// Cyclical is one half of a sin/cos pair encoding the phase of a seasonal
// cycle against the integer row index, e.g. sin_yearly with a period of
// 365.25 rows for daily data.
type Cyclical struct {
	Cycle       string      `json:"cycle"`
	FourierComp FourierComp `json:"fourier_component"`
	Period      float64     `json:"period"`
}

func NewCyclical(cycle string, fcomp FourierComp, period float64) *Cyclical {
	return &Cyclical{cycle, fcomp, period}
}

func (c Cyclical) String() string {
	return fmt.Sprintf("%s_%s", c.FourierComp, c.Cycle)
}

func (c Cyclical) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "cycle":
		return c.Cycle, true
	case "fourier_component":
		return string(c.FourierComp), true
	case "period":
		return fmt.Sprintf("%f", c.Period), true
	}
	return "", false
}

func (c Cyclical) Type() FeatureType {
	return FeatureTypeCyclical
}

func (c Cyclical) Decode() map[string]string {
	res := make(map[string]string)
	res["cycle"] = c.Cycle
	res["fourier_component"] = string(c.FourierComp)
	res["period"] = fmt.Sprintf("%f", c.Period)
	return res
}

// At evaluates the cyclical component at the given row index. The same
// function generates the historical column and ticks the phase forward
// during autoregressive forecasting.
func (c Cyclical) At(index int) float64 {
	phase := 2.0 * math.Pi * float64(index) / c.Period
	if c.FourierComp == FourierCompCos {
		return math.Cos(phase)
	}
	return math.Sin(phase)
}

// Generate evaluates the cyclical component over rows [0, n).
func (c Cyclical) Generate(n int) []float64 {
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = c.At(i)
	}
	return data
}
