package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/data/repos/testutil"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
)

func TestFeatureCacheRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewFeatureCacheRepo(db, testutil.Logger(t))

	termStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	featureDate := termStart.AddDate(0, 0, 30)

	first := &prediction.FeatureCacheEntry{
		EnrollmentID: enr.ID,
		FeatureDate:  featureDate,
		DaysActive:   3,
		TotalClicks:  75,
		CalculatedAt: time.Now().UTC(),
	}
	if err := repo.Upsert(ctx, tx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := &prediction.FeatureCacheEntry{
		EnrollmentID: enr.ID,
		FeatureDate:  featureDate,
		DaysActive:   4,
		TotalClicks:  105,
		CalculatedAt: time.Now().UTC(),
	}
	if err := repo.Upsert(ctx, tx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := tx.Model(&prediction.FeatureCacheEntry{}).
		Where("enrollment_id = ?", enr.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows = %d, want 1 after same-day upsert", count)
	}

	got, err := repo.GetLatest(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got == nil {
		t.Fatalf("expected a cache entry")
	}
	if got.DaysActive != 4 || got.TotalClicks != 105 {
		t.Fatalf("entry = (%v, %v), want updated values (4, 105)", got.DaysActive, got.TotalClicks)
	}
}

func TestFeatureCacheRepoGetLatestOrdering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewFeatureCacheRepo(db, testutil.Logger(t))

	termStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)

	for i, clicks := range []float64{10, 20, 30} {
		err := repo.Upsert(ctx, tx, &prediction.FeatureCacheEntry{
			EnrollmentID: enr.ID,
			FeatureDate:  termStart.AddDate(0, 0, i),
			TotalClicks:  clicks,
			CalculatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("upsert day %d: %v", i, err)
		}
	}

	got, err := repo.GetLatest(ctx, tx, enr.ID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got.TotalClicks != 30 {
		t.Fatalf("latest total_clicks = %v, want 30 (newest feature_date)", got.TotalClicks)
	}
}

func TestFeatureCacheRepoMiss(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewFeatureCacheRepo(db, testutil.Logger(t))
	got, err := repo.GetLatest(context.Background(), tx, uuid.New())
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil on cache miss, got %+v", got)
	}
}
