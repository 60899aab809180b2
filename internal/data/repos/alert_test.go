package repos

import (
	"context"
	"testing"
	"time"

	"github.com/studypulse/studypulse-backend/internal/data/repos/testutil"
	"github.com/studypulse/studypulse-backend/internal/domain/alert"
)

func TestAlertRepoLatestByType(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewAlertRepo(db, testutil.Logger(t))

	termStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	now := time.Now().UTC()

	older := &alert.Alert{
		EnrollmentID: enr.ID,
		AlertType:    alert.TypeLowAttendance,
		Severity:     alert.SeverityWarning,
		Message:      "older",
		TriggeredAt:  now.Add(-48 * time.Hour),
	}
	newer := &alert.Alert{
		EnrollmentID: enr.ID,
		AlertType:    alert.TypeLowAttendance,
		Severity:     alert.SeverityWarning,
		Message:      "newer",
		TriggeredAt:  now.Add(-2 * time.Hour),
	}
	other := &alert.Alert{
		EnrollmentID: enr.ID,
		AlertType:    alert.TypeGradeRisk,
		Severity:     alert.SeverityCritical,
		Message:      "other type",
		TriggeredAt:  now.Add(-1 * time.Hour),
	}
	for _, a := range []*alert.Alert{older, newer, other} {
		if err := repo.Create(ctx, tx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.LatestByType(ctx, tx, enr.ID, alert.TypeLowAttendance)
	if err != nil {
		t.Fatalf("latest by type: %v", err)
	}
	if got == nil || got.Message != "newer" {
		t.Fatalf("latest = %+v, want the newer low_attendance alert", got)
	}

	missing, err := repo.LatestByType(ctx, tx, enr.ID, alert.TypeDecliningTrend)
	if err != nil {
		t.Fatalf("latest by type: %v", err)
	}
	if missing != nil {
		t.Fatalf("latest = %+v, want nil for a type never fired", missing)
	}
}

func TestAlertRepoListByStudentAndFlags(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewAlertRepo(db, testutil.Logger(t))

	termStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	enr := testutil.SeedEnrollment(t, ctx, tx, termStart)
	now := time.Now().UTC()

	a := &alert.Alert{
		EnrollmentID: enr.ID,
		AlertType:    alert.TypeLowEngagement,
		Severity:     alert.SeverityInfo,
		Message:      "m",
		TriggeredAt:  now,
	}
	if err := repo.Create(ctx, tx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	unread, err := repo.ListByStudent(ctx, tx, enr.StudentID, true)
	if err != nil {
		t.Fatalf("list by student: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("unread = %d, want 1", len(unread))
	}

	if err := repo.MarkRead(ctx, tx, a.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err = repo.ListByStudent(ctx, tx, enr.StudentID, true)
	if err != nil {
		t.Fatalf("list by student: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("unread = %d after mark read, want 0", len(unread))
	}

	counts, err := repo.CountUnresolvedBySeverity(ctx, tx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[alert.SeverityInfo] != 1 {
		t.Fatalf("info count = %d, want 1", counts[alert.SeverityInfo])
	}

	if err := repo.Resolve(ctx, tx, a.ID, "advisor-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var reloaded alert.Alert
	if err := tx.First(&reloaded, "id = ?", a.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsResolved || reloaded.ResolvedBy != "advisor-1" || reloaded.ResolvedAt == nil {
		t.Fatalf("resolved row = %+v, want resolved flags set", reloaded)
	}

	// Resolution closes the alert; summary counts only open ones.
	counts, err = repo.CountUnresolvedBySeverity(ctx, tx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("counts after resolve: %v", err)
	}
	if counts[alert.SeverityInfo] != 0 {
		t.Fatalf("info count = %d after resolve, want 0", counts[alert.SeverityInfo])
	}
}
