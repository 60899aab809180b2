package features

import (
	"math"
)

// Vector is a feature vector in the frozen schema order.
type Vector struct {
	Names  []string
	Values []float64
}

// Snapshot returns the vector as a name-to-value map for persistence.
func (v Vector) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(v.Names))
	for i, name := range v.Names {
		out[name] = v.Values[i]
	}
	return out
}

// Union merges named feature groups. Key collisions are a configuration bug
// caught in tests, not a runtime concern; later groups win.
func Union(groups ...map[string]float64) map[string]float64 {
	out := map[string]float64{}
	for _, g := range groups {
		for k, v := range g {
			out[k] = v
		}
	}
	return out
}

// BuildVector orders computed features by the frozen schema. Names present in
// the schema but absent from the computation are filled with 0 and reported in
// missing; this is a warning condition, never an error. Non-finite values are
// clamped to 0 so the vector is always safe to feed the scaler.
func BuildVector(schema []string, computed map[string]float64) (Vector, []string) {
	values := make([]float64, len(schema))
	var missing []string
	for i, name := range schema {
		v, ok := computed[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		values[i] = v
	}
	return Vector{Names: append([]string(nil), schema...), Values: values}, missing
}
