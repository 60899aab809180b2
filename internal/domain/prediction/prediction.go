package prediction

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskOrdinal maps a risk level to its ordering for trend comparisons.
// Unknown levels rank lowest.
func RiskOrdinal(level string) int {
	switch level {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// Prediction is one scoring event. Rows are append-only; the history for an
// enrollment is ordered by PredictedAt and read newest-first.
type Prediction struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;index:idx_predictions_enrollment_predicted_at" json:"enrollment_id"`

	PredictedAt     time.Time      `gorm:"column:predicted_at;not null;index:idx_predictions_enrollment_predicted_at" json:"predicted_at"`
	PredictedClass  string         `gorm:"column:predicted_class;not null" json:"predicted_class"`
	Confidence      float64        `gorm:"column:confidence;not null" json:"confidence"`
	RiskLevel       string         `gorm:"column:risk_level;not null;index" json:"risk_level"`
	ModelVersion    string         `gorm:"column:model_version;not null" json:"model_version"`
	FeatureSnapshot datatypes.JSON `gorm:"column:feature_snapshot;type:jsonb" json:"feature_snapshot,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Prediction) TableName() string { return "predictions" }
