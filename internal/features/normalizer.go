package features

import (
	"fmt"
	"math"
	"time"

	"github.com/studypulse/studypulse-backend/internal/domain/tracking"
)

// Click weights for attendance statuses. Absent and excused contribute no
// record at all, not a zero-weight one.
const (
	presentClickWeight = 30
	lateClickWeight    = 15
)

// clickWeights translates an activity kind into its click weight. Kinds not in
// the table default to weight 1.
var clickWeights = map[string]int{
	tracking.ActivityResourceView:   1,
	tracking.ActivityForumPost:      5,
	tracking.ActivityForumReply:     3,
	tracking.ActivityAssignmentView: 2,
	tracking.ActivityQuizAttempt:    10,
	tracking.ActivityVideoWatch:     1,
	tracking.ActivityFileDownload:   2,
	tracking.ActivityPageView:       1,
}

const defaultClickWeight = 1

// DayOffset converts an event time to whole days since term start. Events
// before the term start produce negative offsets.
func DayOffset(event, termStart time.Time) int {
	delta := event.Sub(startOfDay(termStart)).Hours() / 24
	return int(math.Floor(delta))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Normalize flattens attendance and activity rows into canonical activity
// records. The transform is pure: no side effects, stable under re-ordering
// and repetition of inputs.
func Normalize(attendance []tracking.AttendanceRecord, activities []tracking.ActivityEvent, termStart time.Time) []ActivityRecord {
	out := make([]ActivityRecord, 0, len(attendance)+len(activities))
	out = append(out, NormalizeAttendance(attendance, termStart)...)
	out = append(out, NormalizeActivities(activities, termStart)...)
	return out
}

// NormalizeAttendance maps attendance rows onto click weights: present counts
// as 30 clicks, late as 15. Absent and excused rows are dropped.
func NormalizeAttendance(rows []tracking.AttendanceRecord, termStart time.Time) []ActivityRecord {
	out := make([]ActivityRecord, 0, len(rows))
	for _, row := range rows {
		var weight int
		switch row.Status {
		case tracking.AttendancePresent:
			weight = presentClickWeight
		case tracking.AttendanceLate:
			weight = lateClickWeight
		default:
			continue
		}
		out = append(out, ActivityRecord{
			EnrollmentID: row.EnrollmentID,
			DayOffset:    DayOffset(row.AttendanceDate, termStart),
			SiteID:       fmt.Sprintf("attendance_%s", row.ID),
			Weight:       weight,
		})
	}
	return out
}

// NormalizeActivities maps learning-platform events onto click weights via the
// static kind table; unknown kinds default to weight 1. Events without a
// resource fall back to a synthetic site token so unique_materials still
// counts them once each.
func NormalizeActivities(rows []tracking.ActivityEvent, termStart time.Time) []ActivityRecord {
	out := make([]ActivityRecord, 0, len(rows))
	for _, row := range rows {
		weight, ok := clickWeights[row.Kind]
		if !ok {
			weight = defaultClickWeight
		}
		siteID := row.ResourceID
		if siteID == "" {
			siteID = fmt.Sprintf("activity_%s", row.ID)
		}
		out = append(out, ActivityRecord{
			EnrollmentID: row.EnrollmentID,
			DayOffset:    DayOffset(row.OccurredAt, termStart),
			SiteID:       siteID,
			Weight:       weight,
		})
	}
	return out
}
