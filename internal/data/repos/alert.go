package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/domain/alert"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type AlertRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *alert.Alert) error
	LatestByType(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, alertType string) (*alert.Alert, error)
	ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, unreadOnly bool) ([]alert.Alert, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, unreadOnly bool) ([]alert.Alert, error)
	CountUnresolvedBySeverity(ctx context.Context, tx *gorm.DB, since time.Time) (map[string]int64, error)
	MarkRead(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Resolve(ctx context.Context, tx *gorm.DB, id uuid.UUID, resolvedBy string) error
}

type alertRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAlertRepo(db *gorm.DB, baseLog *logger.Logger) AlertRepo {
	return &alertRepo{db: db, log: baseLog.With("repo", "AlertRepo")}
}

func (r *alertRepo) Create(ctx context.Context, tx *gorm.DB, a *alert.Alert) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(a).Error; err != nil {
		r.log.Error("create alert failed", "error", err)
		return err
	}
	return nil
}

// LatestByType returns the newest alert of the given type for the enrollment,
// or nil when none exists. The rule engine uses it for window dedup.
func (r *alertRepo) LatestByType(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, alertType string) (*alert.Alert, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var a alert.Alert
	err := t.WithContext(ctx).
		Where("enrollment_id = ? AND alert_type = ?", enrollmentID, alertType).
		Order("triggered_at DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *alertRepo) ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, unreadOnly bool) ([]alert.Alert, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []alert.Alert
	if err := q.Order("triggered_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *alertRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, unreadOnly bool) ([]alert.Alert, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.id = alerts.enrollment_id").
		Where("enrollments.student_id = ?", studentID)
	if unreadOnly {
		q = q.Where("alerts.is_read = ?", false)
	}
	var out []alert.Alert
	if err := q.Order("alerts.triggered_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnresolvedBySeverity counts open alerts triggered at or after since.
// Resolved alerts are excluded regardless of when they fired.
func (r *alertRepo) CountUnresolvedBySeverity(ctx context.Context, tx *gorm.DB, since time.Time) (map[string]int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	type row struct {
		Severity string
		Count    int64
	}
	var rows []row
	err := t.WithContext(ctx).
		Model(&alert.Alert{}).
		Select("severity, COUNT(*) AS count").
		Where("is_resolved = ? AND triggered_at >= ?", false, since).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Severity] = rw.Count
	}
	return out, nil
}

func (r *alertRepo) MarkRead(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	return t.WithContext(ctx).
		Model(&alert.Alert{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error
}

func (r *alertRepo) Resolve(ctx context.Context, tx *gorm.DB, id uuid.UUID, resolvedBy string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	return t.WithContext(ctx).
		Model(&alert.Alert{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_resolved": true, "resolved_at": now, "resolved_by": resolvedBy}).Error
}
