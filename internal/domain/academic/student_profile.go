package academic

import (
	"time"

	"github.com/google/uuid"
)

// StudentProfile carries the demographic fields the feature calculator encodes.
// Band and education values outside the known enumerations fall back to the
// encoder defaults rather than erroring.
type StudentProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"student_id"`

	AgeBand          string `gorm:"column:age_band" json:"age_band"`
	HighestEducation string `gorm:"column:highest_education" json:"highest_education"`
	NumPrevAttempts  int    `gorm:"column:num_prev_attempts;not null;default:0" json:"num_prev_attempts"`
	StudiedCredits   int    `gorm:"column:studied_credits;not null;default:60" json:"studied_credits"`
	HasDisability    bool   `gorm:"column:has_disability;not null;default:false" json:"has_disability"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StudentProfile) TableName() string { return "student_profiles" }
