package dataset

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := strings.Join([]string{
		"date, value ,region",
		"2024-01-01,10.5,east",
		"2024-01-02,,west",
		"2024-01-03,12.0,east",
	}, "\n")

	tbl, err := ReadCSV(strings.NewReader(in))
	require.Nil(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"date", "value", "region"}, tbl.Columns())

	require.True(t, tbl.IsNumeric("value"))
	vals, _ := tbl.Numeric("value")
	assert.Equal(t, 10.5, vals[0])
	assert.True(t, math.IsNaN(vals[1]))

	assert.False(t, tbl.IsNumeric("date"))
	assert.False(t, tbl.IsNumeric("region"))
}

func TestReadCSVErrors(t *testing.T) {
	testData := map[string]struct {
		in  string
		err error
	}{
		"duplicate header": {"a,a\n1,2\n", ErrDuplicateHeader},
		"ragged record":    {"a,b\n1\n", ErrInconsistentRecord},
		"no rows":          {"a,b\n", ErrNoRows},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(td.in))
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestParseDates(t *testing.T) {
	dates, ok := ParseDates([]string{"2024-07-04", "2024/07/05", ""})
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC), dates[1])
	assert.True(t, dates[2].IsZero())

	_, ok = ParseDates([]string{"not a date"})
	assert.False(t, ok)
}

func TestHolidayIndicator(t *testing.T) {
	dates := []time.Time{
		time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
	}
	ind := HolidayIndicator(dates)
	assert.Equal(t, []float64{0, 1, 1}, ind)
}
