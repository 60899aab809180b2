package features

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/assessment"
)

func score(v float64) *float64 { return &v }

func TestAssessmentFeaturesNothingDue(t *testing.T) {
	asOf := day(10)
	future := assessment.Assessment{
		ID:       uuid.New(),
		TypeName: "Quiz",
		DueDate:  day(20),
	}
	feats := AssessmentFeatures([]assessment.Assessment{future}, nil, asOf)

	if feats["submission_rate"] != 100 {
		t.Fatalf("submission_rate = %v, want 100 when nothing is due", feats["submission_rate"])
	}
	if feats["avg_score"] != 0 {
		t.Fatalf("avg_score = %v, want 0", feats["avg_score"])
	}
}

func TestAssessmentFeaturesRateAndScores(t *testing.T) {
	enrollmentID := uuid.New()
	quiz := assessment.Assessment{ID: uuid.New(), TypeName: "Quiz", DueDate: day(3)}
	tma := assessment.Assessment{ID: uuid.New(), TypeName: "TMA", DueDate: day(6)}
	exam := assessment.Assessment{ID: uuid.New(), TypeName: "Final Exam", DueDate: day(9)}
	all := []assessment.Assessment{quiz, tma, exam}

	subs := []assessment.Submission{
		{ID: uuid.New(), AssessmentID: quiz.ID, EnrollmentID: enrollmentID, Score: score(80), SubmittedAt: day(2)},
		{ID: uuid.New(), AssessmentID: tma.ID, EnrollmentID: enrollmentID, Score: score(60), SubmittedAt: day(8)},
	}

	feats := AssessmentFeatures(all, subs, day(10))

	if math.Abs(feats["submission_rate"]-200.0/3.0) > 1e-9 {
		t.Fatalf("submission_rate = %v, want %v", feats["submission_rate"], 200.0/3.0)
	}
	if feats["avg_score"] != 70 {
		t.Fatalf("avg_score = %v, want 70", feats["avg_score"])
	}
	if feats["avg_score_cma"] != 80 {
		t.Fatalf("avg_score_cma = %v, want 80", feats["avg_score_cma"])
	}
	if feats["avg_score_tma"] != 60 {
		t.Fatalf("avg_score_tma = %v, want 60", feats["avg_score_tma"])
	}
	if feats["avg_score_exam"] != 0 {
		t.Fatalf("avg_score_exam = %v, want 0 with no exam submission", feats["avg_score_exam"])
	}

	// Quiz was a day early, TMA two days late.
	if feats["on_time_submissions"] != 1 || feats["late_submission_count"] != 1 {
		t.Fatalf("on_time/late = (%v, %v), want (1, 1)",
			feats["on_time_submissions"], feats["late_submission_count"])
	}
	if math.Abs(feats["avg_days_early"]-(-0.5)) > 1e-9 {
		t.Fatalf("avg_days_early = %v, want -0.5", feats["avg_days_early"])
	}
}

func TestAssessmentFeaturesUngradedCountsAsSubmitted(t *testing.T) {
	enrollmentID := uuid.New()
	quiz := assessment.Assessment{ID: uuid.New(), TypeName: "Quiz", DueDate: day(3)}

	subs := []assessment.Submission{
		{ID: uuid.New(), AssessmentID: quiz.ID, EnrollmentID: enrollmentID, Score: nil, SubmittedAt: day(2)},
	}
	feats := AssessmentFeatures([]assessment.Assessment{quiz}, subs, day(10))

	if feats["submission_rate"] != 100 {
		t.Fatalf("submission_rate = %v, want 100 for submitted-but-ungraded", feats["submission_rate"])
	}
	if feats["avg_score"] != 0 {
		t.Fatalf("avg_score = %v, want 0 with no graded scores", feats["avg_score"])
	}
	if feats["submitted_assessments"] != 1 {
		t.Fatalf("submitted_assessments = %v, want 1", feats["submitted_assessments"])
	}
}

func TestAssessmentFeaturesFutureSubmissionExcluded(t *testing.T) {
	enrollmentID := uuid.New()
	quiz := assessment.Assessment{ID: uuid.New(), TypeName: "Quiz", DueDate: day(3)}
	subs := []assessment.Submission{
		{ID: uuid.New(), AssessmentID: quiz.ID, EnrollmentID: enrollmentID, Score: score(90), SubmittedAt: day(15)},
	}
	feats := AssessmentFeatures([]assessment.Assessment{quiz}, subs, day(10))

	if feats["submission_rate"] != 0 {
		t.Fatalf("submission_rate = %v, want 0 when the only submission is after asOf", feats["submission_rate"])
	}
}
