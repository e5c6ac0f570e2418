package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSVROptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *SVROptions
		err      error
		expected *SVROptions
	}{
		"nil":              {nil, nil, NewDefaultSVROptions()},
		"negative c":       {&SVROptions{C: -1}, ErrNegativeC, nil},
		"negative epsilon": {&SVROptions{C: 1, Epsilon: -0.1}, ErrNegativeEpsilon, nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, opt)
		})
	}
}

func TestSoftThreshold(t *testing.T) {
	testData := map[string]struct {
		x        float64
		gamma    float64
		expected float64
	}{
		"inside tube":    {0.05, 0.1, 0.0},
		"above tube":     {0.5, 0.1, 0.4},
		"below tube":     {-0.5, 0.1, -0.4},
		"exact boundary": {0.1, 0.1, 0.0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, td.expected, SoftThreshold(td.x, td.gamma), 1e-12)
		})
	}
}

// rampWindows builds windows over a slow linear ramp where the next value is
// always close to the window's last entry.
func rampWindows(n, seqLen, dim int) ([][][]float64, []float64) {
	x := make([][][]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		window := make([][]float64, seqLen)
		for w := 0; w < seqLen; w++ {
			row := make([]float64, dim)
			for j := 0; j < dim; j++ {
				row[j] = float64(i+w) / float64(n+seqLen)
			}
			window[w] = row
		}
		x = append(x, window)
		y = append(y, float64(i+seqLen)/float64(n+seqLen))
	}
	return x, y
}

func TestSVRFitPredict(t *testing.T) {
	x, y := rampWindows(40, 5, 2)

	reg, err := NewSVR(&SVROptions{
		C:          10.0,
		Gamma:      50.0,
		Epsilon:    0.01,
		Iterations: DefaultSVRIterations,
		Tolerance:  DefaultSVRTolerance,
	})
	require.Nil(t, err)
	require.Nil(t, reg.Fit(x, y))

	for i := 0; i < len(x); i += 7 {
		pred, err := reg.Predict(x[i])
		require.Nil(t, err)
		assert.InDelta(t, y[i], pred, 0.05)
	}
	assert.Greater(t, reg.Gamma(), 0.0)
	assert.Equal(t, len(x), len(reg.Coef()))
}

func TestSVRGammaScale(t *testing.T) {
	x, y := rampWindows(20, 3, 2)

	reg, err := NewSVR(nil)
	require.Nil(t, err)
	require.Nil(t, reg.Fit(x, y))

	// gamma 0 resolves to the scale heuristic at fit time
	assert.Greater(t, reg.Gamma(), 0.0)
}

func TestSVRErrors(t *testing.T) {
	reg, err := NewSVR(nil)
	require.Nil(t, err)

	assert.ErrorIs(t, reg.Fit(nil, nil), ErrNoTrainingData)

	x, y := rampWindows(5, 2, 1)
	assert.ErrorIs(t, reg.Fit(x, y[:3]), ErrTargetLenMismatch)

	_, err = reg.Predict(x[0])
	assert.ErrorIs(t, err, ErrNotFitted)

	require.Nil(t, reg.Fit(x, y))
	_, err = reg.Predict([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrWindowShapeMismatch)
}

func TestSVRSearchSkipsSmallSets(t *testing.T) {
	x, y := rampWindows(10, 3, 1)

	search, err := NewSVRSearch(nil)
	require.Nil(t, err)
	require.Nil(t, search.Fit(x, y))

	final, opt := search.Best()
	require.NotNil(t, final)
	assert.Equal(t, DefaultSVRC, opt.C)
	assert.Equal(t, DefaultSVREpsilon, opt.Epsilon)
}

func TestSVRSearchSelects(t *testing.T) {
	x, y := rampWindows(45, 4, 2)

	search, err := NewSVRSearch(nil)
	require.Nil(t, err)
	require.Nil(t, search.Fit(x, y))

	final, opt := search.Best()
	require.NotNil(t, final)
	assert.Contains(t, []float64{1.0, 10.0, 20.0}, opt.C)
	assert.Contains(t, []float64{0.01, 0.1}, opt.Gamma)
	assert.Contains(t, []float64{0.01, 0.1}, opt.Epsilon)

	pred, err := search.Predict(x[10])
	require.Nil(t, err)
	assert.InDelta(t, y[10], pred, 0.2)
}

func TestSVRSearchTwoFoldClamp(t *testing.T) {
	// 27 windows drops the fold count to the lower clamp of 2
	x, y := rampWindows(27, 4, 2)

	search, err := NewSVRSearch(nil)
	require.Nil(t, err)
	require.Nil(t, search.Fit(x, y))

	final, _ := search.Best()
	require.NotNil(t, final)

	_, err = search.Predict(x[0])
	assert.Nil(t, err)
}

func TestSVRSearchOptionsValidate(t *testing.T) {
	_, err := (&SVRSearchOptions{}).Validate()
	assert.ErrorIs(t, err, ErrNoSearchGrid)

	opt, err := (*SVRSearchOptions)(nil).Validate()
	require.Nil(t, err)
	assert.Equal(t, NewDefaultSVRSearchOptions(), opt)
}
