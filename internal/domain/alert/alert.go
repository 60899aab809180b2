package alert

import (
	"time"

	"github.com/google/uuid"
)

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert types emitted by the rule engine. The type string doubles as the
// deduplication key per enrollment.
const (
	TypeLowAttendance      = "low_attendance"
	TypeLowEngagement      = "low_engagement"
	TypeGradeRisk          = "grade_risk"
	TypeMissingAssignments = "missing_assignments"
	TypeDecliningTrend     = "declining_trend"
)

// Alert is one triggered rule instance. Append-only except for the
// read/resolved flags, which the UI layer mutates.
type Alert struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;index:idx_alerts_enrollment_type" json:"enrollment_id"`

	AlertType   string    `gorm:"column:alert_type;not null;index:idx_alerts_enrollment_type" json:"alert_type"`
	Severity    string    `gorm:"column:severity;not null" json:"severity"`
	Message     string    `gorm:"column:message;type:text;not null" json:"message"`
	TriggeredAt time.Time `gorm:"column:triggered_at;not null;index" json:"triggered_at"`

	IsRead     bool       `gorm:"column:is_read;not null;default:false" json:"is_read"`
	ReadAt     *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	IsResolved bool       `gorm:"column:is_resolved;not null;default:false" json:"is_resolved"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy string     `gorm:"column:resolved_by" json:"resolved_by,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Alert) TableName() string { return "alerts" }
