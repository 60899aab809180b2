package features

import (
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/domain/assessment"
)

// Assessment categories the classifier was trained on.
const (
	CategoryCMA  = "CMA"
	CategoryTMA  = "TMA"
	CategoryExam = "Exam"
)

// assessmentCategories is the canonical type-to-category table. Canonical
// names map to themselves; unmapped types are excluded from the per-category
// averages entirely.
var assessmentCategories = map[string]string{
	"CMA":           CategoryCMA,
	"Quiz":          CategoryCMA,
	"Assignment":    CategoryCMA,
	"Participation": CategoryCMA,

	"TMA":          CategoryTMA,
	"Midterm Exam": CategoryTMA,

	"Exam":       CategoryExam,
	"Final Exam": CategoryExam,
}

// AssessmentFeatures computes the assessment feature group over submissions
// for assessments due on or before asOf. With nothing due the submission rate
// is 100, not 0: a student cannot be behind on assessments that do not exist.
func AssessmentFeatures(assessments []assessment.Assessment, submissions []assessment.Submission, asOf time.Time) map[string]float64 {
	due := make(map[uuid.UUID]assessment.Assessment)
	for _, a := range assessments {
		if !a.DueDate.After(asOf) {
			due[a.ID] = a
		}
	}

	considered := make([]assessment.Submission, 0, len(submissions))
	for _, s := range submissions {
		if _, ok := due[s.AssessmentID]; !ok {
			continue
		}
		if s.SubmittedAt.After(asOf) {
			continue
		}
		considered = append(considered, s)
	}

	features := map[string]float64{
		"submitted_assessments": float64(len(considered)),
	}
	if len(due) == 0 {
		features["submission_rate"] = 100
	} else {
		features["submission_rate"] = float64(len(considered)) / float64(len(due)) * 100
	}

	var allScores []float64
	catScores := map[string][]float64{}
	for _, s := range considered {
		if s.Score == nil {
			continue
		}
		allScores = append(allScores, *s.Score)
		a := due[s.AssessmentID]
		if cat, ok := assessmentCategories[a.TypeName]; ok {
			catScores[cat] = append(catScores[cat], *s.Score)
		}
	}
	features["avg_score"] = mean(allScores)
	features["avg_score_cma"] = mean(catScores[CategoryCMA])
	features["avg_score_tma"] = mean(catScores[CategoryTMA])
	features["avg_score_exam"] = mean(catScores[CategoryExam])

	// Timing: days early is due day minus submission day; negative means
	// late and stays negative in the average.
	var onTime, late float64
	var daysEarly []float64
	for _, s := range considered {
		a := due[s.AssessmentID]
		diff := float64(DayOffset(a.DueDate, s.SubmittedAt))
		daysEarly = append(daysEarly, diff)
		if diff >= 0 {
			onTime++
		} else {
			late++
		}
	}
	features["on_time_submissions"] = onTime
	features["late_submission_count"] = late
	features["avg_days_early"] = mean(daysEarly)

	return features
}
