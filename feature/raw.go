package feature

import "strings"

// Raw is a column passed through from the observation table without any
// derivation, e.g. the target history itself or an externally supplied
// numeric input.
type Raw struct {
	Name string `json:"name"`
}

func NewRaw(name string) *Raw {
	return &Raw{name}
}

func (r Raw) String() string {
	return r.Name
}

func (r Raw) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return r.Name, true
	}
	return "", false
}

func (r Raw) Type() FeatureType {
	return FeatureTypeRaw
}

func (r Raw) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = r.Name
	return res
}
