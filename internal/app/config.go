package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/studypulse/studypulse-backend/internal/platform/envutil"
)

// Thresholds holds the alert rule knobs. Resolved once at startup; the alert
// engine never re-reads configuration per evaluation.
type Thresholds struct {
	AttendanceRate       float64 `yaml:"attendance_rate"`
	AttendanceWindowDays int     `yaml:"attendance_window_days"`

	EngagementFraction       float64 `yaml:"engagement_fraction"`
	EngagementWindowDays     int     `yaml:"engagement_window_days"`
	EngagementCourseFallback float64 `yaml:"engagement_course_fallback"`

	MissingAssignmentsMin int `yaml:"missing_assignments_min"`

	TrendRecentCount    int `yaml:"trend_recent_count"`
	TrendMinPredictions int `yaml:"trend_min_predictions"`

	// Dedup windows in days, per rule.
	DedupAttendanceDays int `yaml:"dedup_attendance_days"`
	DedupEngagementDays int `yaml:"dedup_engagement_days"`
	DedupGradeRiskDays  int `yaml:"dedup_grade_risk_days"`
	DedupMissingDays    int `yaml:"dedup_missing_days"`
	DedupTrendDays      int `yaml:"dedup_trend_days"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		AttendanceRate:       0.70,
		AttendanceWindowDays: 30,

		EngagementFraction:       0.5,
		EngagementWindowDays:     7,
		EngagementCourseFallback: 10,

		MissingAssignmentsMin: 2,

		TrendRecentCount:    5,
		TrendMinPredictions: 3,

		DedupAttendanceDays: 7,
		DedupEngagementDays: 7,
		DedupGradeRiskDays:  3,
		DedupMissingDays:    7,
		DedupTrendDays:      7,
	}
}

// Config is the process configuration for the prediction pipeline.
type Config struct {
	Mode     string
	ModelDir string

	BatchSize     int
	RetentionDays int
	Concurrency   int

	Alerts Thresholds
}

// Load resolves configuration from the environment, layering an optional YAML
// thresholds file (ALERT_THRESHOLDS_FILE) under per-field env overrides.
// Malformed YAML is a startup error, not a silent default.
func Load() (Config, error) {
	thresholds := DefaultThresholds()
	if path := os.Getenv("ALERT_THRESHOLDS_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read thresholds file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &thresholds); err != nil {
			return Config{}, fmt.Errorf("parse thresholds file %s: %w", path, err)
		}
	}
	applyThresholdEnv(&thresholds)
	if err := thresholds.validate(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Mode:          envutil.Str("APP_MODE", "dev"),
		ModelDir:      envutil.Str("MODEL_DIR", "model_artifacts"),
		BatchSize:     envutil.Int("BATCH_SIZE", 100),
		RetentionDays: envutil.Int("STAGING_RETENTION_DAYS", 30),
		Concurrency:   envutil.Int("STAGE_CONCURRENCY", 8),
		Alerts:        thresholds,
	}
	if cfg.BatchSize <= 0 {
		return Config{}, fmt.Errorf("BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Concurrency <= 0 {
		return Config{}, fmt.Errorf("STAGE_CONCURRENCY must be positive, got %d", cfg.Concurrency)
	}
	return cfg, nil
}

func applyThresholdEnv(t *Thresholds) {
	t.AttendanceRate = envutil.Float("ALERT_ATTENDANCE_RATE", t.AttendanceRate)
	t.AttendanceWindowDays = envutil.Int("ALERT_ATTENDANCE_WINDOW_DAYS", t.AttendanceWindowDays)
	t.EngagementFraction = envutil.Float("ALERT_ENGAGEMENT_FRACTION", t.EngagementFraction)
	t.EngagementWindowDays = envutil.Int("ALERT_ENGAGEMENT_WINDOW_DAYS", t.EngagementWindowDays)
	t.EngagementCourseFallback = envutil.Float("ALERT_ENGAGEMENT_COURSE_FALLBACK", t.EngagementCourseFallback)
	t.MissingAssignmentsMin = envutil.Int("ALERT_MISSING_ASSIGNMENTS_MIN", t.MissingAssignmentsMin)
	t.TrendRecentCount = envutil.Int("ALERT_TREND_RECENT_COUNT", t.TrendRecentCount)
	t.TrendMinPredictions = envutil.Int("ALERT_TREND_MIN_PREDICTIONS", t.TrendMinPredictions)
	t.DedupAttendanceDays = envutil.Int("ALERT_DEDUP_ATTENDANCE_DAYS", t.DedupAttendanceDays)
	t.DedupEngagementDays = envutil.Int("ALERT_DEDUP_ENGAGEMENT_DAYS", t.DedupEngagementDays)
	t.DedupGradeRiskDays = envutil.Int("ALERT_DEDUP_GRADE_RISK_DAYS", t.DedupGradeRiskDays)
	t.DedupMissingDays = envutil.Int("ALERT_DEDUP_MISSING_DAYS", t.DedupMissingDays)
	t.DedupTrendDays = envutil.Int("ALERT_DEDUP_TREND_DAYS", t.DedupTrendDays)
}

func (t Thresholds) validate() error {
	if t.AttendanceRate < 0 || t.AttendanceRate > 1 {
		return fmt.Errorf("attendance_rate must be in [0,1], got %v", t.AttendanceRate)
	}
	if t.EngagementFraction < 0 || t.EngagementFraction > 1 {
		return fmt.Errorf("engagement_fraction must be in [0,1], got %v", t.EngagementFraction)
	}
	if t.MissingAssignmentsMin < 1 {
		return fmt.Errorf("missing_assignments_min must be at least 1, got %d", t.MissingAssignmentsMin)
	}
	if t.TrendRecentCount < t.TrendMinPredictions {
		return fmt.Errorf("trend_recent_count %d below trend_min_predictions %d", t.TrendRecentCount, t.TrendMinPredictions)
	}
	return nil
}
