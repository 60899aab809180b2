package repos

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type FeatureCacheRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, entry *prediction.FeatureCacheEntry) error
	GetLatest(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*prediction.FeatureCacheEntry, error)
}

type featureCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeatureCacheRepo(db *gorm.DB, baseLog *logger.Logger) FeatureCacheRepo {
	return &featureCacheRepo{db: db, log: baseLog.With("repo", "FeatureCacheRepo")}
}

// Upsert writes the cache row for (enrollment_id, feature_date). A second
// write for the same day overwrites the values in place so the unique index
// holds a single row per enrollment per day.
func (r *featureCacheRepo) Upsert(ctx context.Context, tx *gorm.DB, entry *prediction.FeatureCacheEntry) error {
	t := tx
	if t == nil {
		t = r.db
	}
	cols := make([]string, 0, len(prediction.CachedFeatureColumns)+1)
	for _, col := range prediction.CachedFeatureColumns {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	cols = append(cols, "calculated_at")
	err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "feature_date"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(entry).Error
	if err != nil {
		r.log.Error("upsert feature cache entry failed", "error", err)
	}
	return err
}

// GetLatest returns nil without error on cache miss.
func (r *featureCacheRepo) GetLatest(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*prediction.FeatureCacheEntry, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var entry prediction.FeatureCacheEntry
	err := t.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("feature_date DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
