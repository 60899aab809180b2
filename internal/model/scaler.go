package model

import "fmt"

// Scaler is a fitted standard-scaling transform: (x - mean) / scale per
// feature position. Scale entries of 0 pass the centered value through
// unscaled, matching how the training pipeline handles constant features.
type Scaler struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

func (s *Scaler) validate(featureCount int) error {
	if len(s.Means) != featureCount || len(s.Scales) != featureCount {
		return fmt.Errorf("scaler fit on %d/%d features, metadata lists %d",
			len(s.Means), len(s.Scales), featureCount)
	}
	return nil
}

// Transform applies the scaling to one raw vector. The input is not mutated.
func (s *Scaler) Transform(raw []float64) ([]float64, error) {
	if len(raw) != len(s.Means) {
		return nil, fmt.Errorf("feature vector has %d values, scaler expects %d", len(raw), len(s.Means))
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		centered := v - s.Means[i]
		if s.Scales[i] != 0 {
			centered /= s.Scales[i]
		}
		out[i] = centered
	}
	return out, nil
}
