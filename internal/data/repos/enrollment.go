package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/domain/academic"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type EnrollmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, e *academic.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*academic.Enrollment, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]academic.Enrollment, error)
	ListActiveByOffering(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID) ([]academic.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, e *academic.Enrollment) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(e).Error; err != nil {
		r.log.Error("create enrollment failed", "error", err)
		return err
	}
	return nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*academic.Enrollment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var e academic.Enrollment
	if err := t.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]academic.Enrollment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []academic.Enrollment
	if err := t.WithContext(ctx).
		Where("status = ?", academic.EnrollmentStatusEnrolled).
		Order("enrolled_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListActiveByOffering(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID) ([]academic.Enrollment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []academic.Enrollment
	if err := t.WithContext(ctx).
		Where("offering_id = ? AND status = ?", offeringID, academic.EnrollmentStatusEnrolled).
		Order("enrolled_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
