package assessment

import (
	"time"

	"github.com/google/uuid"
)

type Assessment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OfferingID uuid.UUID `gorm:"type:uuid;not null;index" json:"offering_id"`

	TypeName    string    `gorm:"column:type_name;not null" json:"type_name"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	DueDate     time.Time `gorm:"column:due_date;type:date;not null;index" json:"due_date"`
	Weight      float64   `gorm:"column:weight;not null;default:0" json:"weight"`
	IsPublished bool      `gorm:"column:is_published;not null;default:false" json:"is_published"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Assessment) TableName() string { return "assessments" }

// Submission is one student's submission for an assessment. Score is nil until
// graded; an ungraded submission still counts as submitted everywhere in the
// pipeline.
type Submission struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"assessment_id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"enrollment_id"`

	Score       *float64  `gorm:"column:score" json:"score,omitempty"`
	SubmittedAt time.Time `gorm:"column:submitted_at;not null" json:"submitted_at"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Submission) TableName() string { return "assessment_submissions" }
