// Package feature derives the model input columns from an observation table.
// Each derived column is described by a Feature which carries enough
// information to regenerate or roll the column forward during forecasting.
package feature

type FeatureType string

const (
	FeatureTypeRaw      FeatureType = "raw"
	FeatureTypeEncoded  FeatureType = "encoded"
	FeatureTypeCyclical FeatureType = "cyclical"
	FeatureTypeLag      FeatureType = "lag"
	FeatureTypeRolling  FeatureType = "rolling"
)

// Feature describes a single column of the feature matrix. String returns the
// column name frozen into the Schema and must be stable across runs.
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}
