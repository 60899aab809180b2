package tracking

import (
	"time"

	"github.com/google/uuid"
)

// DailySummary is the per-day rollup of activity events for one enrollment.
// One row per (enrollment_id, summary_date); regenerating a day overwrites the
// counts in place.
type DailySummary struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_summary_enrollment_date" json:"enrollment_id"`
	SummaryDate  time.Time `gorm:"column:summary_date;type:date;not null;uniqueIndex:idx_daily_summary_enrollment_date" json:"summary_date"`

	ResourceViews   int `gorm:"column:resource_views;not null;default:0" json:"resource_views"`
	ForumPosts      int `gorm:"column:forum_posts;not null;default:0" json:"forum_posts"`
	ForumReplies    int `gorm:"column:forum_replies;not null;default:0" json:"forum_replies"`
	QuizAttempts    int `gorm:"column:quiz_attempts;not null;default:0" json:"quiz_attempts"`
	VideosWatched   int `gorm:"column:videos_watched;not null;default:0" json:"videos_watched"`
	FilesDownloaded int `gorm:"column:files_downloaded;not null;default:0" json:"files_downloaded"`
	PagesViewed     int `gorm:"column:pages_viewed;not null;default:0" json:"pages_viewed"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DailySummary) TableName() string { return "daily_summaries" }

// TotalActivities is the engagement count the low-engagement alert rule
// averages over a trailing window.
func (s DailySummary) TotalActivities() int {
	return s.ResourceViews + s.ForumPosts + s.ForumReplies + s.QuizAttempts +
		s.VideosWatched + s.FilesDownloaded + s.PagesViewed
}
