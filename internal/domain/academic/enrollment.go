package academic

import (
	"time"

	"github.com/google/uuid"
)

const (
	EnrollmentStatusEnrolled  = "enrolled"
	EnrollmentStatusDropped   = "dropped"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment binds one student to one course offering for one term. Rows are
// written by the enrollment CRUD layer; this core only reads them.
type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	OfferingID uuid.UUID `gorm:"type:uuid;not null;index" json:"offering_id"`

	Status        string    `gorm:"column:status;not null;default:'enrolled';index" json:"status"`
	TermStartDate time.Time `gorm:"column:term_start_date;type:date;not null" json:"term_start_date"`
	EnrolledAt    time.Time `gorm:"column:enrolled_at;not null;default:now()" json:"enrolled_at"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollments" }
