package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Lag is the value of a source column shifted back a fixed number of rows.
// The first Steps rows are undefined and left as NaN for the fill pass.
type Lag struct {
	Source string `json:"source"`
	Steps  int    `json:"steps"`
}

func NewLag(source string, steps int) *Lag {
	return &Lag{source, steps}
}

func (l Lag) String() string {
	return fmt.Sprintf("%s_lag%d", l.Source, l.Steps)
}

func (l Lag) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "source":
		return l.Source, true
	case "steps":
		return strconv.Itoa(l.Steps), true
	}
	return "", false
}

func (l Lag) Type() FeatureType {
	return FeatureTypeLag
}

func (l Lag) Decode() map[string]string {
	res := make(map[string]string)
	res["source"] = l.Source
	res["steps"] = strconv.Itoa(l.Steps)
	return res
}

// Generate shifts src back by Steps rows, padding the head with NaN.
func (l Lag) Generate(src []float64) []float64 {
	data := make([]float64, len(src))
	for i := 0; i < len(src); i++ {
		if i < l.Steps {
			data[i] = math.NaN()
			continue
		}
		data[i] = src[i-l.Steps]
	}
	return data
}
