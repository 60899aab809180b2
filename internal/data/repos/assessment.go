package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/domain/assessment"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type AssessmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *assessment.Assessment) error
	ListPublishedByOffering(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID) ([]assessment.Assessment, error)
	ListPublishedDueUpTo(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID, asOf time.Time) ([]assessment.Assessment, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (r *assessmentRepo) Create(ctx context.Context, tx *gorm.DB, a *assessment.Assessment) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(a).Error; err != nil {
		r.log.Error("create assessment failed", "error", err)
		return err
	}
	return nil
}

func (r *assessmentRepo) ListPublishedByOffering(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID) ([]assessment.Assessment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []assessment.Assessment
	if err := t.WithContext(ctx).
		Where("offering_id = ? AND is_published = ?", offeringID, true).
		Order("due_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) ListPublishedDueUpTo(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID, asOf time.Time) ([]assessment.Assessment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []assessment.Assessment
	if err := t.WithContext(ctx).
		Where("offering_id = ? AND is_published = ? AND due_date <= ?", offeringID, true, asOf).
		Order("due_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type SubmissionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *assessment.Submission) error
	ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]assessment.Submission, error)
	ListByEnrollmentUpTo(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) ([]assessment.Submission, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) Create(ctx context.Context, tx *gorm.DB, s *assessment.Submission) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(s).Error; err != nil {
		r.log.Error("create submission failed", "error", err)
		return err
	}
	return nil
}

func (r *submissionRepo) ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]assessment.Submission, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []assessment.Submission
	if err := t.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("submitted_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) ListByEnrollmentUpTo(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) ([]assessment.Submission, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []assessment.Submission
	if err := t.WithContext(ctx).
		Where("enrollment_id = ? AND submitted_at <= ?", enrollmentID, asOf).
		Order("submitted_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
