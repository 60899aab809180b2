package repos

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/studypulse/studypulse-backend/internal/data/repos/testutil"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
)

func TestFeatureStagingRepoUpsertIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewFeatureStagingRepo(db, testutil.Logger(t))

	termStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	day := termStart.AddDate(0, 0, 10)

	for _, payload := range []string{`{"days_active":3}`, `{"days_active":4}`} {
		err := repo.Upsert(ctx, tx, &prediction.FeatureStaging{
			EnrollmentID:    enr.ID,
			CalculationDate: day,
			FeatureData:     datatypes.JSON([]byte(payload)),
		})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	var rows []prediction.FeatureStaging
	if err := tx.Where("enrollment_id = ?", enr.ID).Find(&rows).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want exactly 1 after re-staging the same day", len(rows))
	}
	if string(rows[0].FeatureData) != `{"days_active":4}` {
		t.Fatalf("feature_data = %s, want the last payload", rows[0].FeatureData)
	}
}

func TestFeatureStagingRepoProcessedFlagMonotonic(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewFeatureStagingRepo(db, testutil.Logger(t))

	termStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	day := termStart.AddDate(0, 0, 10)
	snap := testutil.SeedStaging(t, ctx, tx, enr.ID, day, []byte(`{"days_active":3}`))

	if err := repo.MarkProcessed(ctx, tx, snap.ID); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	// Re-staging the same day must not flip the flag back.
	err := repo.Upsert(ctx, tx, &prediction.FeatureStaging{
		EnrollmentID:    enr.ID,
		CalculationDate: day,
		FeatureData:     datatypes.JSON([]byte(`{"days_active":5}`)),
	})
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	var got prediction.FeatureStaging
	if err := tx.First(&got, "id = ?", snap.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.IsProcessed {
		t.Fatalf("is_processed flipped back to false after re-staging")
	}
	if string(got.FeatureData) != `{"days_active":5}` {
		t.Fatalf("feature_data = %s, want the re-staged payload", got.FeatureData)
	}
}

func TestFeatureStagingRepoListAndCleanup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewFeatureStagingRepo(db, testutil.Logger(t))

	termStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)

	oldProcessed := testutil.SeedStaging(t, ctx, tx, enr.ID, termStart.AddDate(0, 0, 1), []byte(`{}`))
	oldUnprocessed := testutil.SeedStaging(t, ctx, tx, enr.ID, termStart.AddDate(0, 0, 2), []byte(`{}`))
	testutil.SeedStaging(t, ctx, tx, enr.ID, termStart.AddDate(0, 0, 60), []byte(`{}`))

	if err := repo.MarkProcessed(ctx, tx, oldProcessed.ID); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	unprocessed, err := repo.ListUnprocessed(ctx, tx, 10)
	if err != nil {
		t.Fatalf("list unprocessed: %v", err)
	}
	if len(unprocessed) != 2 {
		t.Fatalf("unprocessed = %d, want 2", len(unprocessed))
	}
	if unprocessed[0].ID != oldUnprocessed.ID {
		t.Fatalf("expected oldest unprocessed snapshot first")
	}

	limited, err := repo.ListUnprocessed(ctx, tx, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited = %d, want 1", len(limited))
	}

	cutoff := termStart.AddDate(0, 0, 30)
	deleted, err := repo.DeleteProcessedBefore(ctx, tx, cutoff)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1 (only the old processed row)", deleted)
	}

	var remaining []prediction.FeatureStaging
	if err := tx.Where("enrollment_id = ?", enr.ID).Find(&remaining).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2 (unprocessed rows never deleted)", len(remaining))
	}
	for _, r := range remaining {
		if r.ID == oldProcessed.ID {
			t.Fatalf("old processed row survived cleanup")
		}
	}
}
