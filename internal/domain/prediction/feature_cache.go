package prediction

import (
	"time"

	"github.com/google/uuid"
)

// FeatureCacheEntry memoizes a fixed subset of computed feature values per
// (enrollment, date). One row per pair; recomputation for the same date updates
// the row in place. Retention is an external concern; this core never deletes.
type FeatureCacheEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_feature_cache_enrollment_date" json:"enrollment_id"`
	FeatureDate  time.Time `gorm:"column:feature_date;type:date;not null;uniqueIndex:idx_feature_cache_enrollment_date" json:"feature_date"`

	DaysActive            float64 `gorm:"column:days_active;not null;default:0" json:"days_active"`
	TotalClicks           float64 `gorm:"column:total_clicks;not null;default:0" json:"total_clicks"`
	ActivityRate          float64 `gorm:"column:activity_rate;not null;default:0" json:"activity_rate"`
	AvgClicksPerActiveDay float64 `gorm:"column:avg_clicks_per_active_day;not null;default:0" json:"avg_clicks_per_active_day"`
	ActivityRegularity    float64 `gorm:"column:activity_regularity;not null;default:0" json:"activity_regularity"`
	LongestInactivityGap  float64 `gorm:"column:longest_inactivity_gap;not null;default:0" json:"longest_inactivity_gap"`
	WeekendActivityRatio  float64 `gorm:"column:weekend_activity_ratio;not null;default:0" json:"weekend_activity_ratio"`
	ActivityTrend         float64 `gorm:"column:activity_trend;not null;default:0" json:"activity_trend"`
	SubmissionRate        float64 `gorm:"column:submission_rate;not null;default:0" json:"submission_rate"`
	AvgScore              float64 `gorm:"column:avg_score;not null;default:0" json:"avg_score"`

	CalculatedAt time.Time `gorm:"column:calculated_at;not null;default:now()" json:"calculated_at"`
}

func (FeatureCacheEntry) TableName() string { return "feature_cache" }

// CachedFeatureColumns maps feature-vector names to the cache columns that
// persist them. Names absent from a computed vector leave the column at zero.
var CachedFeatureColumns = map[string]string{
	"days_active":               "days_active",
	"total_clicks":              "total_clicks",
	"activity_rate":             "activity_rate",
	"avg_clicks_per_active_day": "avg_clicks_per_active_day",
	"activity_regularity":       "activity_regularity",
	"longest_inactivity_gap":    "longest_inactivity_gap",
	"weekend_activity_ratio":    "weekend_activity_ratio",
	"activity_trend":            "activity_trend",
	"submission_rate":           "submission_rate",
	"avg_score":                 "avg_score",
}
