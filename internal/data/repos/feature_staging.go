package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type FeatureStagingRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, snap *prediction.FeatureStaging) error
	ListUnprocessed(ctx context.Context, tx *gorm.DB, limit int) ([]prediction.FeatureStaging, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteProcessedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type featureStagingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeatureStagingRepo(db *gorm.DB, baseLog *logger.Logger) FeatureStagingRepo {
	return &featureStagingRepo{db: db, log: baseLog.With("repo", "FeatureStagingRepo")}
}

// Upsert replaces the snapshot payload for (enrollment_id, calculation_date).
// is_processed is deliberately excluded from the update set: once a snapshot
// is marked processed, re-staging the same day never flips it back.
func (r *featureStagingRepo) Upsert(ctx context.Context, tx *gorm.DB, snap *prediction.FeatureStaging) error {
	t := tx
	if t == nil {
		t = r.db
	}
	err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "calculation_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"feature_data"}),
	}).Create(snap).Error
	if err != nil {
		r.log.Error("upsert staging snapshot failed", "error", err)
	}
	return err
}

func (r *featureStagingRepo) ListUnprocessed(ctx context.Context, tx *gorm.DB, limit int) ([]prediction.FeatureStaging, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).
		Where("is_processed = ?", false).
		Order("calculation_date ASC, created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []prediction.FeatureStaging
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *featureStagingRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&prediction.FeatureStaging{}).
		Where("id = ?", id).
		Update("is_processed", true).Error
}

func (r *featureStagingRepo) DeleteProcessedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Where("is_processed = ? AND calculation_date < ?", true, cutoff).
		Delete(&prediction.FeatureStaging{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
