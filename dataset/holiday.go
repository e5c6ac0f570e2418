package dataset

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// HolidayIndicator produces a 0/1 column marking US federal holidays on the
// observed date. Useful as an extra input column when a date column is
// present at daily resolution.
func HolidayIndicator(dates []time.Time) []float64 {
	return indicator(dates, us.Holidays)
}

func indicator(dates []time.Time, hols []*cal.Holiday) []float64 {
	observed := make(map[string]struct{})
	years := make(map[int]struct{})
	for _, d := range dates {
		years[d.Year()] = struct{}{}
	}
	for year := range years {
		for _, hol := range hols {
			_, obs := hol.Calc(year)
			if obs.IsZero() {
				continue
			}
			observed[obs.Format(time.DateOnly)] = struct{}{}
		}
	}

	data := make([]float64, len(dates))
	for i, d := range dates {
		if _, exists := observed[d.Format(time.DateOnly)]; exists {
			data[i] = 1.0
		}
	}
	return data
}

// ParseDates parses a categorical column of timestamps, trying a set of
// common layouts in order. Returns false when any defined value fails every
// layout.
func ParseDates(vals []string) ([]time.Time, bool) {
	layouts := []string{
		time.RFC3339,
		time.DateTime,
		time.DateOnly,
		"2006/01/02",
		"01/02/2006",
	}
	dates := make([]time.Time, len(vals))
	for i, v := range vals {
		if v == "" {
			continue
		}
		parsed := false
		for _, layout := range layouts {
			d, err := time.Parse(layout, v)
			if err == nil {
				dates[i] = d
				parsed = true
				break
			}
		}
		if !parsed {
			return nil, false
		}
	}
	return dates, true
}
