package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type PredictionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, p *prediction.Prediction) error
	ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, limit int) ([]prediction.Prediction, error)
	Latest(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*prediction.Prediction, error)
	LatestUpTo(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) (*prediction.Prediction, error)
	LatestPerEnrollmentAtRisk(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID, riskLevels []string) ([]prediction.Prediction, error)
}

type predictionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	return &predictionRepo{db: db, log: baseLog.With("repo", "PredictionRepo")}
}

func (r *predictionRepo) Create(ctx context.Context, tx *gorm.DB, p *prediction.Prediction) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(p).Error; err != nil {
		r.log.Error("create prediction failed", "error", err)
		return err
	}
	return nil
}

func (r *predictionRepo) ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, limit int) ([]prediction.Prediction, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("predicted_at DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []prediction.Prediction
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns nil without error when the enrollment has no predictions yet.
// Equal timestamps break ties on created_at, newest insert winning.
func (r *predictionRepo) Latest(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*prediction.Prediction, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var p prediction.Prediction
	err := t.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("predicted_at DESC, created_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestUpTo returns the newest prediction at or before asOf, or nil.
func (r *predictionRepo) LatestUpTo(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) (*prediction.Prediction, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var p prediction.Prediction
	err := t.WithContext(ctx).
		Where("enrollment_id = ? AND predicted_at <= ?", enrollmentID, asOf).
		Order("predicted_at DESC, created_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestPerEnrollmentAtRisk returns the newest prediction per enrollment in
// the offering, filtered to the given risk levels.
func (r *predictionRepo) LatestPerEnrollmentAtRisk(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID, riskLevels []string) ([]prediction.Prediction, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	latest := t.Session(&gorm.Session{NewDB: true}).
		Model(&prediction.Prediction{}).
		Select("enrollment_id, MAX(predicted_at) AS max_predicted_at").
		Group("enrollment_id")
	var out []prediction.Prediction
	err := t.WithContext(ctx).
		Model(&prediction.Prediction{}).
		Joins("JOIN (?) latest ON latest.enrollment_id = predictions.enrollment_id AND latest.max_predicted_at = predictions.predicted_at", latest).
		Joins("JOIN enrollments ON enrollments.id = predictions.enrollment_id").
		Where("enrollments.offering_id = ? AND predictions.risk_level IN ?", offeringID, riskLevels).
		Order("predictions.confidence DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
