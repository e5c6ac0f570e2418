// Package dataset holds the ordered observation table consumed by the
// predictor: one row per time step, a numeric target column, and any number
// of numeric or categorical input columns. Rows are ordered by time and the
// integer row index is the time variable.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrColumnExists       = errors.New("column already exists in table")
	ErrMissingColumn      = errors.New("column not found in table")
	ErrNotNumeric         = errors.New("column is not numeric")
	ErrRowLenMismatch     = errors.New("column has a different length than the table")
	ErrNoRows             = errors.New("table has no rows")
	ErrDuplicateHeader    = errors.New("duplicate column header")
	ErrInconsistentRecord = errors.New("record has a different field count than the header")
)

// Table is an ordered set of equal-length columns. Numeric columns use NaN
// for missing values, categorical columns use the empty string.
type Table struct {
	cols        []string
	numeric     map[string][]float64
	categorical map[string][]string
	rows        int
}

func New() *Table {
	return &Table{
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
	}
}

func (t *Table) Len() int {
	return t.rows
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.cols))
	copy(cols, t.cols)
	return cols
}

func (t *Table) Has(name string) bool {
	_, numOk := t.numeric[name]
	_, catOk := t.categorical[name]
	return numOk || catOk
}

func (t *Table) IsNumeric(name string) bool {
	_, ok := t.numeric[name]
	return ok
}

// Numeric returns the backing slice of a numeric column. Callers treat the
// slice as read-only.
func (t *Table) Numeric(name string) ([]float64, bool) {
	vals, ok := t.numeric[name]
	return vals, ok
}

// Categorical returns the backing slice of a categorical column.
func (t *Table) Categorical(name string) ([]string, bool) {
	vals, ok := t.categorical[name]
	return vals, ok
}

func (t *Table) AddNumeric(name string, vals []float64) error {
	if t.Has(name) {
		return fmt.Errorf("%q, %w", name, ErrColumnExists)
	}
	if len(t.cols) > 0 && len(vals) != t.rows {
		return fmt.Errorf("%q has %d rows, table has %d, %w", name, len(vals), t.rows, ErrRowLenMismatch)
	}
	t.numeric[name] = vals
	t.cols = append(t.cols, name)
	t.rows = len(vals)
	return nil
}

func (t *Table) AddCategorical(name string, vals []string) error {
	if t.Has(name) {
		return fmt.Errorf("%q, %w", name, ErrColumnExists)
	}
	if len(t.cols) > 0 && len(vals) != t.rows {
		return fmt.Errorf("%q has %d rows, table has %d, %w", name, len(vals), t.rows, ErrRowLenMismatch)
	}
	t.categorical[name] = vals
	t.cols = append(t.cols, name)
	t.rows = len(vals)
	return nil
}

// CoerceNumeric converts a column to numeric in place, mapping unparseable
// values to NaN. Numeric columns pass through unchanged.
func (t *Table) CoerceNumeric(name string) error {
	if t.IsNumeric(name) {
		return nil
	}
	raw, ok := t.categorical[name]
	if !ok {
		return fmt.Errorf("%q, %w", name, ErrMissingColumn)
	}
	vals := make([]float64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = v
	}
	delete(t.categorical, name)
	t.numeric[name] = vals
	return nil
}

// DropNaN removes every row where the given numeric column is NaN.
func (t *Table) DropNaN(name string) error {
	vals, ok := t.numeric[name]
	if !ok {
		return fmt.Errorf("%q, %w", name, ErrNotNumeric)
	}
	keep := make([]int, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == t.rows {
		return nil
	}
	for col, data := range t.numeric {
		next := make([]float64, 0, len(keep))
		for _, i := range keep {
			next = append(next, data[i])
		}
		t.numeric[col] = next
	}
	for col, data := range t.categorical {
		next := make([]string, 0, len(keep))
		for _, i := range keep {
			next = append(next, data[i])
		}
		t.categorical[col] = next
	}
	t.rows = len(keep)
	return nil
}

// ClipOutliers clips a numeric column to [q1-1.5*IQR, q3+1.5*IQR] so a few
// extreme values do not dominate the loss on small datasets. No-op when the
// interquartile range is zero.
func (t *Table) ClipOutliers(name string) error {
	vals, ok := t.numeric[name]
	if !ok {
		return fmt.Errorf("%q, %w", name, ErrNotNumeric)
	}
	sorted := make([]float64, 0, len(vals))
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	if iqr <= 0 {
		return nil
	}
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr
	for i, v := range vals {
		if v < lower {
			vals[i] = lower
		} else if v > upper {
			vals[i] = upper
		}
	}
	return nil
}

// FillForward carries the last defined value forward through every column,
// then FillBackward fills any leading gap from the first defined value.
func (t *Table) FillForward() {
	for _, data := range t.numeric {
		last := math.NaN()
		for i, v := range data {
			if math.IsNaN(v) {
				data[i] = last
				continue
			}
			last = v
		}
	}
	for _, data := range t.categorical {
		last := ""
		for i, v := range data {
			if v == "" {
				data[i] = last
				continue
			}
			last = v
		}
	}
}

func (t *Table) FillBackward() {
	for _, data := range t.numeric {
		next := math.NaN()
		for i := len(data) - 1; i >= 0; i-- {
			if math.IsNaN(data[i]) {
				data[i] = next
				continue
			}
			next = data[i]
		}
	}
	for _, data := range t.categorical {
		next := ""
		for i := len(data) - 1; i >= 0; i-- {
			if data[i] == "" {
				data[i] = next
				continue
			}
			next = data[i]
		}
	}
}

// FillRemaining replaces any still-missing numeric value with the column
// median and any still-missing categorical value with "Unknown".
func (t *Table) FillRemaining() {
	for _, data := range t.numeric {
		defined := make([]float64, 0, len(data))
		for _, v := range data {
			if !math.IsNaN(v) {
				defined = append(defined, v)
			}
		}
		if len(defined) == 0 {
			continue
		}
		sort.Float64s(defined)
		median := stat.Quantile(0.5, stat.Empirical, defined, nil)
		for i, v := range data {
			if math.IsNaN(v) {
				data[i] = median
			}
		}
	}
	for _, data := range t.categorical {
		for i, v := range data {
			if v == "" {
				data[i] = "Unknown"
			}
		}
	}
}

// Categories returns the distinct values of a categorical column sorted
// lexically, the order used for one-hot encoding.
func (t *Table) Categories(name string) []string {
	data, ok := t.categorical[name]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	cats := make([]string, 0)
	for _, v := range data {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		cats = append(cats, v)
	}
	sort.Strings(cats)
	return cats
}

// LimitCategories keeps the top-k most frequent values of a categorical
// column and rewrites everything else to "Other". Ties break lexically for
// a deterministic encoding width.
func (t *Table) LimitCategories(name string, k int) {
	data, ok := t.categorical[name]
	if !ok {
		return
	}
	counts := make(map[string]int)
	for _, v := range data {
		counts[v]++
	}
	if len(counts) <= k {
		return
	}
	type catCount struct {
		cat   string
		count int
	}
	ranked := make([]catCount, 0, len(counts))
	for cat, count := range counts {
		ranked = append(ranked, catCount{cat, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].cat < ranked[j].cat
	})
	top := make(map[string]struct{}, k)
	for _, cc := range ranked[:k] {
		top[cc.cat] = struct{}{}
	}
	for i, v := range data {
		if _, exists := top[v]; !exists {
			data[i] = "Other"
		}
	}
}
