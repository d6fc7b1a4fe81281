package models

import (
	"encoding/json"
	"fmt"
)

// FeatureCount is the number of slots the classifier was trained on
const FeatureCount = 38

// FeatureNames lists the feature slots in model input order
var FeatureNames = [FeatureCount]string{
	"NA", "NT", "NOR", "ORR",
	"DCA_mean", "DCA_median", "DCA_std", "DCA_gini",
	"NAR_mean", "NAR_median", "NAR_gini", "NAR_IQR",
	"NTR_mean", "NTR_median", "NTR_std", "NTR_gini",
	"NCAR_mean", "NCAR_std", "NCAR_IQR",
	"DCAR_mean", "DCAR_median", "DCAR_std", "DCAR_IQR",
	"DAAR_mean", "DAAR_median", "DAAR_std", "DAAR_gini", "DAAR_IQR",
	"DCAT_mean", "DCAT_median", "DCAT_std", "DCAT_gini", "DCAT_IQR",
	"NAT_mean", "NAT_median", "NAT_std", "NAT_gini", "NAT_IQR",
}

// FeatureIndex returns the slot of a feature name
func FeatureIndex(name string) (int, bool) {
	for i, n := range FeatureNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// FeatureVector holds one value per entry of FeatureNames, in the same order
type FeatureVector [FeatureCount]float64

// Get returns the value of the named feature
func (v FeatureVector) Get(name string) float64 {
	i, ok := FeatureIndex(name)
	if !ok {
		panic(fmt.Sprintf("unknown feature %q", name))
	}
	return v[i]
}

// Map returns the vector keyed by feature name
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, FeatureCount)
	for i, name := range FeatureNames {
		m[name] = v[i]
	}
	return m
}

// MarshalJSON encodes the vector as an object keyed by feature name
func (v FeatureVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

// UnmarshalJSON decodes an object keyed by feature name; every slot must be present
func (v *FeatureVector) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for i, name := range FeatureNames {
		value, ok := m[name]
		if !ok {
			return fmt.Errorf("feature %s missing", name)
		}
		v[i] = value
	}
	return nil
}
