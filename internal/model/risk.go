package model

import (
	domain "github.com/studypulse/studypulse-backend/internal/domain/prediction"
)

// Confidence band boundaries for the risk table.
const (
	highConfidence   = 0.8
	mediumConfidence = 0.6
)

// DeriveRiskLevel maps (predicted class, confidence band) to a risk level.
// The table is asymmetric: an under-confident fail stays at medium, never
// dropping to low.
func DeriveRiskLevel(passPredicted bool, confidence float64) string {
	if passPredicted {
		switch {
		case confidence > highConfidence:
			return domain.RiskLow
		case confidence > mediumConfidence:
			return domain.RiskMedium
		default:
			return domain.RiskHigh
		}
	}
	if confidence > mediumConfidence {
		return domain.RiskHigh
	}
	return domain.RiskMedium
}
