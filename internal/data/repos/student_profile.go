package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/domain/academic"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type StudentProfileRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, p *academic.StudentProfile) error
	GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*academic.StudentProfile, error)
}

type studentProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentProfileRepo(db *gorm.DB, baseLog *logger.Logger) StudentProfileRepo {
	return &studentProfileRepo{db: db, log: baseLog.With("repo", "StudentProfileRepo")}
}

func (r *studentProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, p *academic.StudentProfile) error {
	t := tx
	if t == nil {
		t = r.db
	}
	var existing academic.StudentProfile
	err := t.WithContext(ctx).First(&existing, "student_id = ?", p.StudentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return t.WithContext(ctx).Create(p).Error
	}
	if err != nil {
		return err
	}
	p.ID = existing.ID
	return t.WithContext(ctx).Save(p).Error
}

// GetByStudentID returns nil without error when no profile exists; callers
// substitute demographic defaults.
func (r *studentProfileRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*academic.StudentProfile, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var p academic.StudentProfile
	err := t.WithContext(ctx).First(&p, "student_id = ?", studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
