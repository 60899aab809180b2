package model

import (
	"fmt"
	"math"
)

// Classifier is a fitted binary logistic-regression model. The decision
// function scores the probability of Classes[1]; Classes[0] is the
// complement.
type Classifier struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Classes      [2]string `json:"classes"`
}

func (c *Classifier) validate(featureCount int) error {
	if len(c.Coefficients) != featureCount {
		return fmt.Errorf("classifier fit on %d features, metadata lists %d",
			len(c.Coefficients), featureCount)
	}
	if c.Classes[0] == "" || c.Classes[1] == "" {
		return fmt.Errorf("classifier artifact is missing class labels")
	}
	return nil
}

// PredictProba returns the class probabilities [p(Classes[0]), p(Classes[1])]
// for one scaled vector.
func (c *Classifier) PredictProba(scaled []float64) [2]float64 {
	z := c.Intercept
	for i, w := range c.Coefficients {
		z += w * scaled[i]
	}
	p1 := 1 / (1 + math.Exp(-z))
	return [2]float64{1 - p1, p1}
}

// Predict returns the argmax class and its probability as the confidence.
func (c *Classifier) Predict(scaled []float64) (string, float64) {
	proba := c.PredictProba(scaled)
	if proba[1] >= proba[0] {
		return c.Classes[1], proba[1]
	}
	return c.Classes[0], proba[0]
}
