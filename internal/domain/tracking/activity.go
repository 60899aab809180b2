package tracking

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityResourceView   = "resource_view"
	ActivityForumPost      = "forum_post"
	ActivityForumReply     = "forum_reply"
	ActivityAssignmentView = "assignment_view"
	ActivityQuizAttempt    = "quiz_attempt"
	ActivityVideoWatch     = "video_watch"
	ActivityFileDownload   = "file_download"
	ActivityPageView       = "page_view"
)

// ActivityEvent is one learning-platform interaction. ResourceID may be empty
// for events that do not touch a specific resource; the normalizer falls back
// to a synthetic site token in that case.
type ActivityEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"enrollment_id"`

	Kind       string    `gorm:"column:kind;not null" json:"kind"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	ResourceID string    `gorm:"column:resource_id" json:"resource_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ActivityEvent) TableName() string { return "activity_events" }
