package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/domain/academic"
	"github.com/studypulse/studypulse-backend/internal/domain/assessment"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/domain/tracking"
)

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, termStart time.Time) *academic.Enrollment {
	tb.Helper()
	e := &academic.Enrollment{
		ID:            uuid.New(),
		StudentID:     uuid.New(),
		OfferingID:    uuid.New(),
		Status:        academic.EnrollmentStatusEnrolled,
		TermStartDate: termStart,
		EnrolledAt:    termStart,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID uuid.UUID, ageBand string) *academic.StudentProfile {
	tb.Helper()
	p := &academic.StudentProfile{
		ID:               uuid.New(),
		StudentID:        studentID,
		AgeBand:          ageBand,
		HighestEducation: "A Level or Equivalent",
		StudiedCredits:   60,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedAttendance(tb testing.TB, ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, date time.Time, status string) *tracking.AttendanceRecord {
	tb.Helper()
	rec := &tracking.AttendanceRecord{
		ID:             uuid.New(),
		EnrollmentID:   enrollmentID,
		AttendanceDate: date,
		Status:         status,
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed attendance: %v", err)
	}
	return rec
}

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, kind string, at time.Time) *tracking.ActivityEvent {
	tb.Helper()
	ev := &tracking.ActivityEvent{
		ID:           uuid.New(),
		EnrollmentID: enrollmentID,
		Kind:         kind,
		OccurredAt:   at,
	}
	if err := tx.WithContext(ctx).Create(ev).Error; err != nil {
		tb.Fatalf("seed activity event: %v", err)
	}
	return ev
}

func SeedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, offeringID uuid.UUID, typeName string, due time.Time) *assessment.Assessment {
	tb.Helper()
	a := &assessment.Assessment{
		ID:          uuid.New(),
		OfferingID:  offeringID,
		TypeName:    typeName,
		Title:       "assessment",
		DueDate:     due,
		Weight:      10,
		IsPublished: true,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	return a
}

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uuid.UUID, score *float64, at time.Time) *assessment.Submission {
	tb.Helper()
	s := &assessment.Submission{
		ID:           uuid.New(),
		AssessmentID: assessmentID,
		EnrollmentID: enrollmentID,
		Score:        score,
		SubmittedAt:  at,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}

func SeedPrediction(tb testing.TB, ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, riskLevel string, confidence float64, at time.Time) *prediction.Prediction {
	tb.Helper()
	p := &prediction.Prediction{
		ID:              uuid.New(),
		EnrollmentID:    enrollmentID,
		PredictedAt:     at,
		PredictedClass:  "Pass",
		Confidence:      confidence,
		RiskLevel:       riskLevel,
		ModelVersion:    "test",
		FeatureSnapshot: datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed prediction: %v", err)
	}
	return p
}

func SeedStaging(tb testing.TB, ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, day time.Time, payload []byte) *prediction.FeatureStaging {
	tb.Helper()
	snap := &prediction.FeatureStaging{
		ID:              uuid.New(),
		EnrollmentID:    enrollmentID,
		CalculationDate: day,
		FeatureData:     datatypes.JSON(payload),
	}
	if err := tx.WithContext(ctx).Create(snap).Error; err != nil {
		tb.Fatalf("seed staging snapshot: %v", err)
	}
	return snap
}
