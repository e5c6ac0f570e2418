package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceNumeric(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.AddCategorical("qty", []string{"1.5", "bad", " 3 ", ""}))
	require.Nil(t, tbl.CoerceNumeric("qty"))

	vals, ok := tbl.Numeric("qty")
	require.True(t, ok)
	assert.Equal(t, 1.5, vals[0])
	assert.True(t, math.IsNaN(vals[1]))
	assert.Equal(t, 3.0, vals[2])
	assert.True(t, math.IsNaN(vals[3]))
}

func TestDropNaN(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.AddNumeric("y", []float64{1, math.NaN(), 3, math.NaN()}))
	require.Nil(t, tbl.AddCategorical("cat", []string{"a", "b", "c", "d"}))

	require.Nil(t, tbl.DropNaN("y"))
	assert.Equal(t, 2, tbl.Len())

	vals, _ := tbl.Numeric("y")
	assert.Equal(t, []float64{1, 3}, vals)
	cats, _ := tbl.Categorical("cat")
	assert.Equal(t, []string{"a", "c"}, cats)
}

func TestClipOutliers(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.AddNumeric("y", []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 100}))
	require.Nil(t, tbl.ClipOutliers("y"))

	vals, _ := tbl.Numeric("y")
	maxVal := vals[0]
	for _, v := range vals {
		if v > maxVal {
			maxVal = v
		}
	}
	// the single extreme point gets pulled down to the upper fence
	assert.Less(t, maxVal, 100.0)
	assert.Equal(t, 10.0, vals[0])
}

func TestClipOutliersZeroIQR(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.AddNumeric("y", []float64{5, 5, 5, 5, 50}))
	require.Nil(t, tbl.ClipOutliers("y"))

	vals, _ := tbl.Numeric("y")
	assert.Equal(t, []float64{5, 5, 5, 5, 50}, vals)
}

func TestFills(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.AddNumeric("a", []float64{math.NaN(), 2, math.NaN(), 4}))
	require.Nil(t, tbl.AddCategorical("c", []string{"", "x", "", "y"}))

	tbl.FillForward()
	tbl.FillBackward()
	tbl.FillRemaining()

	vals, _ := tbl.Numeric("a")
	assert.Equal(t, []float64{2, 2, 2, 4}, vals)
	cats, _ := tbl.Categorical("c")
	assert.Equal(t, []string{"x", "x", "x", "y"}, cats)
}

func TestFillRemainingMedian(t *testing.T) {
	tbl := New()
	// a column that stays open after both directional fills never happens
	// through the engineer path, exercise the median fill directly
	require.Nil(t, tbl.AddNumeric("a", []float64{1, 9, 5, math.NaN()}))

	tbl.FillRemaining()
	vals, _ := tbl.Numeric("a")
	assert.Equal(t, 5.0, vals[3])
}

func TestLimitCategories(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.AddCategorical("c", []string{"a", "a", "a", "b", "b", "c", "d"}))

	tbl.LimitCategories("c", 2)
	assert.Equal(t, []string{"Other", "a", "b"}, tbl.Categories("c"))

	cats, _ := tbl.Categorical("c")
	assert.Equal(t, []string{"a", "a", "a", "b", "b", "Other", "Other"}, cats)
}

func TestLimitCategoriesUnderCap(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.AddCategorical("c", []string{"a", "b", "a"}))

	tbl.LimitCategories("c", 20)
	assert.Equal(t, []string{"a", "b"}, tbl.Categories("c"))
}

func TestAddColumnErrors(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.AddNumeric("a", []float64{1, 2}))

	assert.ErrorIs(t, tbl.AddNumeric("a", []float64{3, 4}), ErrColumnExists)
	assert.ErrorIs(t, tbl.AddNumeric("b", []float64{1}), ErrRowLenMismatch)
	assert.ErrorIs(t, tbl.CoerceNumeric("missing"), ErrMissingColumn)
	assert.ErrorIs(t, tbl.DropNaN("missing"), ErrNotNumeric)
}
