package prediction

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FeatureStaging is a pre-computed feature vector snapshot awaiting scoring.
// One row per (enrollment, calculation_date); re-staging the same day
// overwrites the vector. IsProcessed moves from false to true exactly once,
// after the prediction built from this snapshot has been durably persisted.
type FeatureStaging struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_feature_staging_enrollment_date" json:"enrollment_id"`
	CalculationDate time.Time `gorm:"column:calculation_date;type:date;not null;uniqueIndex:idx_feature_staging_enrollment_date" json:"calculation_date"`

	FeatureData datatypes.JSON `gorm:"column:feature_data;type:jsonb;not null" json:"feature_data"`
	IsProcessed bool           `gorm:"column:is_processed;not null;default:false;index" json:"is_processed"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (FeatureStaging) TableName() string { return "feature_staging" }
