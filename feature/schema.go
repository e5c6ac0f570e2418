package feature

// Schema is the ordered column catalog of the feature matrix, frozen when the
// scalers are fit. Every forward and inverse transform during training and
// forecasting indexes columns through the same Schema instance; the order is
// construction order and is never re-derived.
type Schema struct {
	idx      map[string]int
	features []Feature
}

func NewSchema(features []Feature) *Schema {
	idx := make(map[string]int)
	for i := 0; i < len(features); i++ {
		idx[features[i].String()] = i
	}
	return &Schema{
		idx:      idx,
		features: features,
	}
}

func (s *Schema) Len() int {
	return len(s.features)
}

// Features returns a copy of the ordered feature slice.
func (s *Schema) Features() []Feature {
	features := make([]Feature, len(s.features))
	copy(features, s.features)
	return features
}

// Columns returns the column names in matrix order.
func (s *Schema) Columns() []string {
	cols := make([]string, 0, len(s.features))
	for _, f := range s.features {
		cols = append(cols, f.String())
	}
	return cols
}

// Index returns the matrix column index for a column name.
func (s *Schema) Index(name string) (int, bool) {
	if idx, exists := s.idx[name]; exists {
		return idx, true
	}
	return -1, false
}

// At returns the feature at a matrix column index.
func (s *Schema) At(i int) Feature {
	return s.features[i]
}
