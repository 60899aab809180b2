package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/app"
	"github.com/studypulse/studypulse-backend/internal/data/repos"
	"github.com/studypulse/studypulse-backend/internal/domain/alert"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

// AlertService runs the risk rules for one enrollment. Each rule fires at
// most once per its dedup window; rules are independent and a failing rule
// does not suppress its siblings.
type AlertService interface {
	Evaluate(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]alert.Alert, error)
	Dispatch(ctx context.Context, created []alert.Alert)
	ForStudent(ctx context.Context, studentID uuid.UUID, unreadOnly bool) ([]alert.Alert, error)
	Summary(ctx context.Context, since time.Time) (map[string]int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) error
}

type alertService struct {
	thresholds app.Thresholds
	passClass  string

	enrollments repos.EnrollmentRepo
	attendance  repos.AttendanceRepo
	summaries   repos.DailySummaryRepo
	assessments repos.AssessmentRepo
	submissions repos.SubmissionRepo
	predictions repos.PredictionRepo
	alerts      repos.AlertRepo
	notifier    Notifier
	log         *logger.Logger
}

func NewAlertService(
	thresholds app.Thresholds,
	passClass string,
	enrollments repos.EnrollmentRepo,
	attendance repos.AttendanceRepo,
	summaries repos.DailySummaryRepo,
	assessments repos.AssessmentRepo,
	submissions repos.SubmissionRepo,
	predictions repos.PredictionRepo,
	alerts repos.AlertRepo,
	notifier Notifier,
	baseLog *logger.Logger,
) AlertService {
	return &alertService{
		thresholds:  thresholds,
		passClass:   passClass,
		enrollments: enrollments,
		attendance:  attendance,
		summaries:   summaries,
		assessments: assessments,
		submissions: submissions,
		predictions: predictions,
		alerts:      alerts,
		notifier:    notifier,
		log:         baseLog.With("service", "AlertService"),
	}
}

type ruleResult struct {
	severity string
	message  string
}

// Evaluate runs all five rules inside the caller's transaction (nil for the
// default connection). Returns the alerts created in this pass; notification
// dispatch is a separate step so a rolled-back transaction never notifies.
func (s *alertService) Evaluate(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]alert.Alert, error) {
	enr, err := s.enrollments.GetByID(ctx, tx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment %s: %w", enrollmentID, err)
	}
	now := time.Now().UTC()

	type rule struct {
		alertType  string
		windowDays int
		check      func() (*ruleResult, error)
	}
	rules := []rule{
		{alert.TypeLowAttendance, s.thresholds.DedupAttendanceDays, func() (*ruleResult, error) {
			return s.checkLowAttendance(ctx, tx, enrollmentID, now)
		}},
		{alert.TypeLowEngagement, s.thresholds.DedupEngagementDays, func() (*ruleResult, error) {
			return s.checkLowEngagement(ctx, tx, enr.ID, enr.OfferingID, now)
		}},
		{alert.TypeGradeRisk, s.thresholds.DedupGradeRiskDays, func() (*ruleResult, error) {
			return s.checkGradeRisk(ctx, tx, enrollmentID)
		}},
		{alert.TypeMissingAssignments, s.thresholds.DedupMissingDays, func() (*ruleResult, error) {
			return s.checkMissingAssignments(ctx, tx, enr.ID, enr.OfferingID, now)
		}},
		{alert.TypeDecliningTrend, s.thresholds.DedupTrendDays, func() (*ruleResult, error) {
			return s.checkDecliningTrend(ctx, tx, enrollmentID)
		}},
	}

	var created []alert.Alert
	for _, r := range rules {
		suppressed, err := s.withinDedupWindow(ctx, tx, enrollmentID, r.alertType, r.windowDays, now)
		if err != nil {
			return created, err
		}
		if suppressed {
			continue
		}
		res, err := r.check()
		if err != nil {
			s.log.Error("alert rule failed",
				"enrollment_id", enrollmentID,
				"alert_type", r.alertType,
				"error", err,
			)
			continue
		}
		if res == nil {
			continue
		}
		a := alert.Alert{
			EnrollmentID: enrollmentID,
			AlertType:    r.alertType,
			Severity:     res.severity,
			Message:      res.message,
			TriggeredAt:  now,
		}
		if err := s.alerts.Create(ctx, tx, &a); err != nil {
			return created, err
		}
		created = append(created, a)
	}
	return created, nil
}

// Dispatch pushes critical alerts to the notifier. Best-effort: a delivery
// failure is logged, never propagated, since the alert row is already durable.
func (s *alertService) Dispatch(ctx context.Context, created []alert.Alert) {
	for _, a := range created {
		if a.Severity != alert.SeverityCritical {
			continue
		}
		if err := s.notifier.Notify(ctx, a.EnrollmentID.String(), a.Severity, a.Message); err != nil {
			s.log.Error("notification dispatch failed", "alert_id", a.ID, "error", err)
		}
	}
}

func (s *alertService) withinDedupWindow(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, alertType string, windowDays int, now time.Time) (bool, error) {
	last, err := s.alerts.LatestByType(ctx, tx, enrollmentID, alertType)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	return now.Sub(last.TriggeredAt) < time.Duration(windowDays)*24*time.Hour, nil
}

func (s *alertService) checkLowAttendance(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, now time.Time) (*ruleResult, error) {
	since := now.AddDate(0, 0, -s.thresholds.AttendanceWindowDays)
	records, err := s.attendance.ListByEnrollmentSince(ctx, tx, enrollmentID, since)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	attended := 0
	for _, rec := range records {
		if rec.Attended() {
			attended++
		}
	}
	rate := float64(attended) / float64(len(records))
	if rate >= s.thresholds.AttendanceRate {
		return nil, nil
	}
	return &ruleResult{
		severity: alert.SeverityWarning,
		message: fmt.Sprintf("Attendance rate %.0f%% over the last %d days is below the %.0f%% threshold",
			rate*100, s.thresholds.AttendanceWindowDays, s.thresholds.AttendanceRate*100),
	}, nil
}

func (s *alertService) checkLowEngagement(ctx context.Context, tx *gorm.DB, enrollmentID, offeringID uuid.UUID, now time.Time) (*ruleResult, error) {
	windowDays := s.thresholds.EngagementWindowDays
	since := now.AddDate(0, 0, -windowDays)

	own, err := s.summaries.ListByEnrollmentSince(ctx, tx, enrollmentID, since)
	if err != nil {
		return nil, err
	}
	// No summaries at all is absent data, not low engagement.
	if len(own) == 0 {
		return nil, nil
	}
	ownTotal := 0
	for _, d := range own {
		ownTotal += d.TotalActivities()
	}
	ownMean := float64(ownTotal) / float64(windowDays)

	courseMean, err := s.courseMeanDailyActivity(ctx, tx, offeringID, since, windowDays)
	if err != nil {
		return nil, err
	}

	floor := s.thresholds.EngagementFraction * courseMean
	if ownMean >= floor {
		return nil, nil
	}
	return &ruleResult{
		severity: alert.SeverityInfo,
		message: fmt.Sprintf("Mean daily activity %.1f over the last %d days is below %.0f%% of the course average (%.1f)",
			ownMean, windowDays, s.thresholds.EngagementFraction*100, courseMean),
	}, nil
}

// courseMeanDailyActivity averages daily totals across every enrollment that
// produced summaries in the window. Falls back to the configured value when
// the offering has no summaries yet.
func (s *alertService) courseMeanDailyActivity(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID, since time.Time, windowDays int) (float64, error) {
	rows, err := s.summaries.ListByOfferingSince(ctx, tx, offeringID, since)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return s.thresholds.EngagementCourseFallback, nil
	}
	total := 0
	seen := map[uuid.UUID]struct{}{}
	for _, d := range rows {
		total += d.TotalActivities()
		seen[d.EnrollmentID] = struct{}{}
	}
	return float64(total) / float64(len(seen)*windowDays), nil
}

func (s *alertService) checkGradeRisk(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*ruleResult, error) {
	latest, err := s.predictions.Latest(ctx, tx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}
	failing := latest.PredictedClass != s.passClass
	if !failing && latest.RiskLevel != prediction.RiskHigh {
		return nil, nil
	}
	return &ruleResult{
		severity: alert.SeverityCritical,
		message: fmt.Sprintf("Latest prediction is %s with %s risk (confidence %.0f%%)",
			latest.PredictedClass, latest.RiskLevel, latest.Confidence*100),
	}, nil
}

func (s *alertService) checkMissingAssignments(ctx context.Context, tx *gorm.DB, enrollmentID, offeringID uuid.UUID, now time.Time) (*ruleResult, error) {
	due, err := s.assessments.ListPublishedDueUpTo(ctx, tx, offeringID, now)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return nil, nil
	}
	subs, err := s.submissions.ListByEnrollment(ctx, tx, enrollmentID)
	if err != nil {
		return nil, err
	}
	submitted := make(map[uuid.UUID]struct{}, len(subs))
	for _, sub := range subs {
		// An ungraded submission still counts as submitted.
		submitted[sub.AssessmentID] = struct{}{}
	}
	missing := 0
	for _, a := range due {
		if _, ok := submitted[a.ID]; !ok {
			missing++
		}
	}
	if missing < s.thresholds.MissingAssignmentsMin {
		return nil, nil
	}
	return &ruleResult{
		severity: alert.SeverityWarning,
		message:  fmt.Sprintf("%d past-due assessments have no submission", missing),
	}, nil
}

func (s *alertService) checkDecliningTrend(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*ruleResult, error) {
	recent, err := s.predictions.ListByEnrollment(ctx, tx, enrollmentID, s.thresholds.TrendRecentCount)
	if err != nil {
		return nil, err
	}
	if len(recent) < s.thresholds.TrendMinPredictions {
		return nil, nil
	}
	newest := recent[0]
	oldest := recent[len(recent)-1]
	if prediction.RiskOrdinal(newest.RiskLevel) <= prediction.RiskOrdinal(oldest.RiskLevel) {
		return nil, nil
	}
	if prediction.RiskOrdinal(newest.RiskLevel) < prediction.RiskOrdinal(prediction.RiskMedium) {
		return nil, nil
	}
	return &ruleResult{
		severity: alert.SeverityWarning,
		message: fmt.Sprintf("Risk level rose from %s to %s over the last %d predictions",
			oldest.RiskLevel, newest.RiskLevel, len(recent)),
	}, nil
}

func (s *alertService) ForStudent(ctx context.Context, studentID uuid.UUID, unreadOnly bool) ([]alert.Alert, error) {
	return s.alerts.ListByStudent(ctx, nil, studentID, unreadOnly)
}

func (s *alertService) Summary(ctx context.Context, since time.Time) (map[string]int64, error) {
	return s.alerts.CountUnresolvedBySeverity(ctx, nil, since)
}

func (s *alertService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.alerts.MarkRead(ctx, nil, id)
}

func (s *alertService) Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) error {
	return s.alerts.Resolve(ctx, nil, id, resolvedBy)
}
