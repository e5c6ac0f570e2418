package feature

import (
	"fmt"
	"strings"
)

// Encoded is a one-hot indicator column produced from a categorical input,
// 1.0 where the source column equals Category and 0.0 elsewhere.
type Encoded struct {
	Source   string `json:"source"`
	Category string `json:"category"`
}

func NewEncoded(source, category string) *Encoded {
	return &Encoded{source, category}
}

func (e Encoded) String() string {
	return fmt.Sprintf("%s_%s", e.Source, e.Category)
}

func (e Encoded) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "source":
		return e.Source, true
	case "category":
		return e.Category, true
	}
	return "", false
}

func (e Encoded) Type() FeatureType {
	return FeatureTypeEncoded
}

func (e Encoded) Decode() map[string]string {
	res := make(map[string]string)
	res["source"] = e.Source
	res["category"] = e.Category
	return res
}
