package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV loads a table from CSV, using the first record as column headers.
// A column parses as numeric when every non-empty field parses as a float,
// otherwise it stays categorical. Empty fields become missing values in
// either case.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv header, %w", err)
	}
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if _, exists := seen[header[i]]; exists {
			return nil, fmt.Errorf("%q, %w", header[i], ErrDuplicateHeader)
		}
		seen[header[i]] = struct{}{}
	}

	raw := make([][]string, len(header))
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read csv record, %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("record has %d fields, header has %d, %w", len(record), len(header), ErrInconsistentRecord)
		}
		for i, field := range record {
			raw[i] = append(raw[i], strings.TrimSpace(field))
		}
	}
	if len(raw[0]) == 0 {
		return nil, ErrNoRows
	}

	t := New()
	for i, name := range header {
		if isNumericColumn(raw[i]) {
			if err := t.AddCategorical(name, raw[i]); err != nil {
				return nil, err
			}
			if err := t.CoerceNumeric(name); err != nil {
				return nil, err
			}
			continue
		}
		if err := t.AddCategorical(name, raw[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func isNumericColumn(vals []string) bool {
	defined := 0
	for _, v := range vals {
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		defined++
	}
	return defined > 0
}
