package tracking

import (
	"time"

	"github.com/google/uuid"
)

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

type AttendanceRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"enrollment_id"`

	AttendanceDate time.Time `gorm:"column:attendance_date;type:date;not null;index" json:"attendance_date"`
	Status         string    `gorm:"column:status;not null" json:"status"`
	RecordedBy     string    `gorm:"column:recorded_by" json:"recorded_by,omitempty"`
	Notes          string    `gorm:"column:notes;type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (AttendanceRecord) TableName() string { return "attendance_records" }

// Attended reports whether the status counts toward the present-rate used by
// the low-attendance alert rule. Late counts as attended here even though it
// carries a reduced click weight in the feature pipeline.
func (a AttendanceRecord) Attended() bool {
	return a.Status == AttendancePresent || a.Status == AttendanceLate
}
