package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/studypulse/studypulse-backend/internal/features"
)

// importanceThreshold drops features that contributed less than 5% importance
// from explanations.
const importanceThreshold = 0.05

const topFactorLimit = 5

type Factor struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Importance float64 `json:"importance"`
	Impact     string  `json:"impact"`
}

type Explanation struct {
	Prediction string   `json:"prediction"`
	Confidence float64  `json:"confidence"`
	TopFactors []Factor `json:"top_factors"`
	Summary    string   `json:"summary"`
}

// Explain ranks the vector against the static importance table and composes a
// short summary naming the single most influential factor.
func (s *Service) Explain(vec features.Vector, predictedClass string, confidence float64) Explanation {
	var factors []Factor
	for i, name := range vec.Names {
		importance := s.meta.FeatureImportance[name]
		if importance <= importanceThreshold {
			continue
		}
		impact := "negative"
		if vec.Values[i] > 0 {
			impact = "positive"
		}
		factors = append(factors, Factor{
			Name:       name,
			Value:      vec.Values[i],
			Importance: importance,
			Impact:     impact,
		})
	}
	sort.Slice(factors, func(i, j int) bool { return factors[i].Importance > factors[j].Importance })
	if len(factors) > topFactorLimit {
		factors = factors[:topFactorLimit]
	}

	return Explanation{
		Prediction: predictedClass,
		Confidence: confidence,
		TopFactors: factors,
		Summary:    s.summarize(predictedClass, confidence, factors),
	}
}

func (s *Service) summarize(predictedClass string, confidence float64, factors []Factor) string {
	var summary string
	if predictedClass == s.PassClass() {
		if confidence > highConfidence {
			summary = "The model predicts a strong likelihood of passing based on current performance indicators."
		} else {
			summary = "The model predicts passing, but some areas need attention."
		}
	} else {
		if confidence > highConfidence {
			summary = "The model indicates significant risk of not passing. Immediate intervention recommended."
		} else {
			summary = "The model shows concerns about passing. Additional support may help improve outcomes."
		}
	}
	if len(factors) > 0 {
		topFactor := strings.ReplaceAll(factors[0].Name, "_", " ")
		summary += fmt.Sprintf(" The most influential factor is %s.", topFactor)
	}
	return summary
}
