package services

import (
	"context"
	"testing"
	"time"

	"github.com/studypulse/studypulse-backend/internal/app"
	"github.com/studypulse/studypulse-backend/internal/data/repos"
	"github.com/studypulse/studypulse-backend/internal/data/repos/testutil"
	"github.com/studypulse/studypulse-backend/internal/domain/alert"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/domain/tracking"
)

type recordingNotifier struct {
	sent []string
}

func (n *recordingNotifier) Notify(ctx context.Context, recipient, severity, message string) error {
	n.sent = append(n.sent, severity)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func newAlertServiceForTest(t *testing.T, notifier Notifier) AlertService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewAlertService(
		app.DefaultThresholds(), "Pass",
		repos.NewEnrollmentRepo(db, log),
		repos.NewAttendanceRepo(db, log),
		repos.NewDailySummaryRepo(db, log),
		repos.NewAssessmentRepo(db, log),
		repos.NewSubmissionRepo(db, log),
		repos.NewPredictionRepo(db, log),
		repos.NewAlertRepo(db, log),
		notifier, log,
	)
}

func alertTypes(alerts []alert.Alert) map[string]bool {
	out := map[string]bool{}
	for _, a := range alerts {
		out[a.AlertType] = true
	}
	return out
}

func TestAlertEngineGradeRiskAndDedup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	notifier := &recordingNotifier{}
	svc := newAlertServiceForTest(t, notifier)

	termStart := time.Now().UTC().AddDate(0, 0, -60)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	testutil.SeedPrediction(t, ctx, tx, enr.ID, prediction.RiskHigh, 0.9, time.Now().UTC().Add(-time.Hour))

	created, err := svc.Evaluate(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	types := alertTypes(created)
	if !types[alert.TypeGradeRisk] {
		t.Fatalf("grade_risk did not fire for a high-risk prediction; fired: %v", types)
	}
	for _, a := range created {
		if a.AlertType == alert.TypeGradeRisk && a.Severity != alert.SeverityCritical {
			t.Fatalf("grade_risk severity = %s, want critical", a.Severity)
		}
	}

	svc.Dispatch(ctx, created)
	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1 (critical only)", len(notifier.sent))
	}

	// Second evaluation inside the dedup window creates nothing new.
	again, err := svc.Evaluate(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("re-evaluation created %d alerts inside dedup windows, want 0", len(again))
	}
}

func TestAlertEngineLowAttendance(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	svc := newAlertServiceForTest(t, &recordingNotifier{})

	termStart := time.Now().UTC().AddDate(0, 0, -60)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)

	// 1 present out of 4 recent classes: 25%, below the 70% default.
	now := time.Now().UTC()
	testutil.SeedAttendance(t, ctx, tx, enr.ID, now.AddDate(0, 0, -4), tracking.AttendancePresent)
	for i := 1; i <= 3; i++ {
		testutil.SeedAttendance(t, ctx, tx, enr.ID, now.AddDate(0, 0, -4+i), tracking.AttendanceAbsent)
	}

	created, err := svc.Evaluate(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !alertTypes(created)[alert.TypeLowAttendance] {
		t.Fatalf("low_attendance did not fire at 25%% present rate")
	}
}

func TestAlertEngineNoAttendanceDataIsQuiet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	svc := newAlertServiceForTest(t, &recordingNotifier{})

	termStart := time.Now().UTC().AddDate(0, 0, -60)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)

	created, err := svc.Evaluate(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if alertTypes(created)[alert.TypeLowAttendance] {
		t.Fatalf("low_attendance fired with no attendance records at all")
	}
	if alertTypes(created)[alert.TypeGradeRisk] {
		t.Fatalf("grade_risk fired with no predictions")
	}
	// A zero-summary enrollment must not be read as zero engagement against
	// the course-average fallback.
	if alertTypes(created)[alert.TypeLowEngagement] {
		t.Fatalf("low_engagement fired with no daily summaries at all")
	}
}

func TestAlertEngineMissingAssignments(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	svc := newAlertServiceForTest(t, &recordingNotifier{})

	termStart := time.Now().UTC().AddDate(0, 0, -60)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	now := time.Now().UTC()

	a1 := testutil.SeedAssessment(t, ctx, tx, enr.OfferingID, "Quiz", now.AddDate(0, 0, -10))
	testutil.SeedAssessment(t, ctx, tx, enr.OfferingID, "TMA", now.AddDate(0, 0, -5))
	testutil.SeedAssessment(t, ctx, tx, enr.OfferingID, "Quiz", now.AddDate(0, 0, -2))

	// One ungraded submission still counts as submitted, leaving 2 missing.
	testutil.SeedSubmission(t, ctx, tx, a1.ID, enr.ID, nil, now.AddDate(0, 0, -11))

	created, err := svc.Evaluate(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !alertTypes(created)[alert.TypeMissingAssignments] {
		t.Fatalf("missing_assignments did not fire with 2 unsubmitted past-due assessments")
	}
}

func TestAlertEngineDecliningTrend(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	svc := newAlertServiceForTest(t, &recordingNotifier{})

	termStart := time.Now().UTC().AddDate(0, 0, -60)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	now := time.Now().UTC()

	// Low -> medium -> high over three predictions. The newest prediction is
	// high risk, which also trips grade_risk; the trend rule must fire too.
	testutil.SeedPrediction(t, ctx, tx, enr.ID, prediction.RiskLow, 0.9, now.Add(-72*time.Hour))
	testutil.SeedPrediction(t, ctx, tx, enr.ID, prediction.RiskMedium, 0.7, now.Add(-48*time.Hour))
	testutil.SeedPrediction(t, ctx, tx, enr.ID, prediction.RiskHigh, 0.85, now.Add(-24*time.Hour))

	created, err := svc.Evaluate(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !alertTypes(created)[alert.TypeDecliningTrend] {
		t.Fatalf("declining_trend did not fire for low->high over 3 predictions")
	}
}

func TestAlertEngineTrendNeedsHistory(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	svc := newAlertServiceForTest(t, &recordingNotifier{})

	termStart := time.Now().UTC().AddDate(0, 0, -60)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	now := time.Now().UTC()

	testutil.SeedPrediction(t, ctx, tx, enr.ID, prediction.RiskLow, 0.9, now.Add(-48*time.Hour))
	testutil.SeedPrediction(t, ctx, tx, enr.ID, prediction.RiskHigh, 0.85, now.Add(-24*time.Hour))

	created, err := svc.Evaluate(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if alertTypes(created)[alert.TypeDecliningTrend] {
		t.Fatalf("declining_trend fired with only 2 predictions, needs 3")
	}
}
