package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studypulse/studypulse-backend/internal/domain/tracking"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type AttendanceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *tracking.AttendanceRecord) error
	ListByEnrollmentUpTo(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) ([]tracking.AttendanceRecord, error)
	ListByEnrollmentSince(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, since time.Time) ([]tracking.AttendanceRecord, error)
}

type attendanceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttendanceRepo(db *gorm.DB, baseLog *logger.Logger) AttendanceRepo {
	return &attendanceRepo{db: db, log: baseLog.With("repo", "AttendanceRepo")}
}

func (r *attendanceRepo) Create(ctx context.Context, tx *gorm.DB, rec *tracking.AttendanceRecord) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(rec).Error; err != nil {
		r.log.Error("create attendance record failed", "error", err)
		return err
	}
	return nil
}

func (r *attendanceRepo) ListByEnrollmentUpTo(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) ([]tracking.AttendanceRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []tracking.AttendanceRecord
	if err := t.WithContext(ctx).
		Where("enrollment_id = ? AND attendance_date <= ?", enrollmentID, asOf).
		Order("attendance_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attendanceRepo) ListByEnrollmentSince(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, since time.Time) ([]tracking.AttendanceRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []tracking.AttendanceRecord
	if err := t.WithContext(ctx).
		Where("enrollment_id = ? AND attendance_date >= ?", enrollmentID, since).
		Order("attendance_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type ActivityEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ev *tracking.ActivityEvent) error
	ListByEnrollmentUpTo(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) ([]tracking.ActivityEvent, error)
	ListByEnrollmentBetween(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, from, to time.Time) ([]tracking.ActivityEvent, error)
}

type activityEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityEventRepo(db *gorm.DB, baseLog *logger.Logger) ActivityEventRepo {
	return &activityEventRepo{db: db, log: baseLog.With("repo", "ActivityEventRepo")}
}

func (r *activityEventRepo) Create(ctx context.Context, tx *gorm.DB, ev *tracking.ActivityEvent) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(ev).Error; err != nil {
		r.log.Error("create activity event failed", "error", err)
		return err
	}
	return nil
}

func (r *activityEventRepo) ListByEnrollmentUpTo(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, asOf time.Time) ([]tracking.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []tracking.ActivityEvent
	if err := t.WithContext(ctx).
		Where("enrollment_id = ? AND occurred_at <= ?", enrollmentID, asOf).
		Order("occurred_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *activityEventRepo) ListByEnrollmentBetween(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, from, to time.Time) ([]tracking.ActivityEvent, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []tracking.ActivityEvent
	if err := t.WithContext(ctx).
		Where("enrollment_id = ? AND occurred_at >= ? AND occurred_at < ?", enrollmentID, from, to).
		Order("occurred_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type DailySummaryRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, s *tracking.DailySummary) error
	ListByEnrollmentSince(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, since time.Time) ([]tracking.DailySummary, error)
	ListByOfferingSince(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID, since time.Time) ([]tracking.DailySummary, error)
}

type dailySummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailySummaryRepo(db *gorm.DB, baseLog *logger.Logger) DailySummaryRepo {
	return &dailySummaryRepo{db: db, log: baseLog.With("repo", "DailySummaryRepo")}
}

func (r *dailySummaryRepo) Upsert(ctx context.Context, tx *gorm.DB, s *tracking.DailySummary) error {
	t := tx
	if t == nil {
		t = r.db
	}
	err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "enrollment_id"}, {Name: "summary_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"resource_views", "forum_posts", "forum_replies", "quiz_attempts",
			"videos_watched", "files_downloaded", "pages_viewed", "updated_at",
		}),
	}).Create(s).Error
	if err != nil {
		r.log.Error("upsert daily summary failed", "error", err)
	}
	return err
}

func (r *dailySummaryRepo) ListByEnrollmentSince(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, since time.Time) ([]tracking.DailySummary, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []tracking.DailySummary
	if err := t.WithContext(ctx).
		Where("enrollment_id = ? AND summary_date >= ?", enrollmentID, since).
		Order("summary_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dailySummaryRepo) ListByOfferingSince(ctx context.Context, tx *gorm.DB, offeringID uuid.UUID, since time.Time) ([]tracking.DailySummary, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []tracking.DailySummary
	if err := t.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.id = daily_summaries.enrollment_id").
		Where("enrollments.offering_id = ? AND daily_summaries.summary_date >= ?", offeringID, since).
		Order("daily_summaries.summary_date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
