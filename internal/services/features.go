package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	"github.com/studypulse/studypulse-backend/internal/domain/academic"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/features"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

// FeatureService computes the full named feature map for one enrollment as of
// a point in time. Data sparsity is not an error: a brand-new enrollment
// yields the neutral defaults from the underlying calculators.
type FeatureService interface {
	Compute(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) (map[string]float64, *academic.Enrollment, error)
}

type featureService struct {
	enrollments EnrollmentReader
	profiles    repos.StudentProfileRepo
	attendance  repos.AttendanceRepo
	activities  repos.ActivityEventRepo
	assessments repos.AssessmentRepo
	submissions repos.SubmissionRepo
	log         *logger.Logger
}

// EnrollmentReader is the slice of the enrollment repo the calculator needs.
type EnrollmentReader interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*academic.Enrollment, error)
}

func NewFeatureService(
	enrollments repos.EnrollmentRepo,
	profiles repos.StudentProfileRepo,
	attendance repos.AttendanceRepo,
	activities repos.ActivityEventRepo,
	assessments repos.AssessmentRepo,
	submissions repos.SubmissionRepo,
	baseLog *logger.Logger,
) FeatureService {
	return &featureService{
		enrollments: enrollments,
		profiles:    profiles,
		attendance:  attendance,
		activities:  activities,
		assessments: assessments,
		submissions: submissions,
		log:         baseLog.With("service", "FeatureService"),
	}
}

func (s *featureService) Compute(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) (map[string]float64, *academic.Enrollment, error) {
	enr, err := s.enrollments.GetByID(ctx, tx, enrollmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load enrollment %s: %w", enrollmentID, err)
	}

	attendance, err := s.attendance.ListByEnrollmentUpTo(ctx, tx, enrollmentID, asOf)
	if err != nil {
		return nil, nil, fmt.Errorf("load attendance: %w", err)
	}
	activities, err := s.activities.ListByEnrollmentUpTo(ctx, tx, enrollmentID, asOf)
	if err != nil {
		return nil, nil, fmt.Errorf("load activity events: %w", err)
	}

	records := features.Normalize(attendance, activities, enr.TermStartDate)
	asOfDay := features.DayOffset(asOf, enr.TermStartDate)
	activityFeats := features.ActivityFeatures(records, asOfDay)

	assessments, err := s.assessments.ListPublishedByOffering(ctx, tx, enr.OfferingID)
	if err != nil {
		return nil, nil, fmt.Errorf("load assessments: %w", err)
	}
	submissions, err := s.submissions.ListByEnrollmentUpTo(ctx, tx, enrollmentID, asOf)
	if err != nil {
		return nil, nil, fmt.Errorf("load submissions: %w", err)
	}
	assessmentFeats := features.AssessmentFeatures(assessments, submissions, asOf)

	profile, err := s.profiles.GetByStudentID(ctx, tx, enr.StudentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load student profile: %w", err)
	}
	demographicFeats := features.DemographicFeatures(profile)

	return features.Union(activityFeats, assessmentFeats, demographicFeats), enr, nil
}

// cacheEntryFrom maps the computed feature values onto the fixed cache
// columns. Names absent from the map leave the column at zero.
func cacheEntryFrom(enrollmentID uuid.UUID, featureDate time.Time, computed map[string]float64, calculatedAt time.Time) *prediction.FeatureCacheEntry {
	return &prediction.FeatureCacheEntry{
		EnrollmentID:          enrollmentID,
		FeatureDate:           featureDate,
		DaysActive:            computed["days_active"],
		TotalClicks:           computed["total_clicks"],
		ActivityRate:          computed["activity_rate"],
		AvgClicksPerActiveDay: computed["avg_clicks_per_active_day"],
		ActivityRegularity:    computed["activity_regularity"],
		LongestInactivityGap:  computed["longest_inactivity_gap"],
		WeekendActivityRatio:  computed["weekend_activity_ratio"],
		ActivityTrend:         computed["activity_trend"],
		SubmissionRate:        computed["submission_rate"],
		AvgScore:              computed["avg_score"],
		CalculatedAt:          calculatedAt,
	}
}
