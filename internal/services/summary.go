package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	"github.com/studypulse/studypulse-backend/internal/domain/tracking"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

// SummaryService rolls raw activity events up into per-day counts. The
// low-engagement alert rule reads these rollups instead of scanning events.
type SummaryService interface {
	GenerateDaily(ctx context.Context, day time.Time) (*BatchReport, error)
}

type summaryService struct {
	enrollments repos.EnrollmentRepo
	activities  repos.ActivityEventRepo
	summaries   repos.DailySummaryRepo
	log         *logger.Logger
}

func NewSummaryService(
	enrollments repos.EnrollmentRepo,
	activities repos.ActivityEventRepo,
	summaries repos.DailySummaryRepo,
	baseLog *logger.Logger,
) SummaryService {
	return &summaryService{
		enrollments: enrollments,
		activities:  activities,
		summaries:   summaries,
		log:         baseLog.With("service", "SummaryService"),
	}
}

// GenerateDaily aggregates each active enrollment's events for the given day.
// Re-running for the same day overwrites the counts in place.
func (s *summaryService) GenerateDaily(ctx context.Context, day time.Time) (*BatchReport, error) {
	enrollments, err := s.enrollments.ListActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	from := startOfDayUTC(day)
	to := from.AddDate(0, 0, 1)

	report := &BatchReport{Total: len(enrollments)}
	for _, enr := range enrollments {
		err := s.generateOne(ctx, enr.ID, from, to)
		item := ItemOutcome{EnrollmentID: enr.ID, OK: err == nil}
		if err != nil {
			item.Error = err.Error()
			report.Failed++
			s.log.Error("daily summary failed", "enrollment_id", enr.ID, "error", err)
		}
		report.Items = append(report.Items, item)
	}
	s.log.Info("daily summary pass done", "day", from.Format(time.DateOnly), "total", report.Total, "failed", report.Failed)
	return report, nil
}

func (s *summaryService) generateOne(ctx context.Context, enrollmentID uuid.UUID, from, to time.Time) error {
	events, err := s.activities.ListByEnrollmentBetween(ctx, nil, enrollmentID, from, to)
	if err != nil {
		return err
	}
	summary := tracking.DailySummary{
		EnrollmentID: enrollmentID,
		SummaryDate:  from,
	}
	for _, ev := range events {
		switch ev.Kind {
		case tracking.ActivityResourceView:
			summary.ResourceViews++
		case tracking.ActivityForumPost:
			summary.ForumPosts++
		case tracking.ActivityForumReply:
			summary.ForumReplies++
		case tracking.ActivityQuizAttempt:
			summary.QuizAttempts++
		case tracking.ActivityVideoWatch:
			summary.VideosWatched++
		case tracking.ActivityFileDownload:
			summary.FilesDownloaded++
		default:
			summary.PagesViewed++
		}
	}
	return s.summaries.Upsert(ctx, nil, &summary)
}
