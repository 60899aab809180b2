package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Alerts.AttendanceRate != 0.70 {
		t.Fatalf("attendance_rate = %v, want 0.70", cfg.Alerts.AttendanceRate)
	}
	if cfg.Alerts.DedupGradeRiskDays != 3 {
		t.Fatalf("grade-risk dedup = %d days, want 3", cfg.Alerts.DedupGradeRiskDays)
	}
	if cfg.BatchSize != 100 {
		t.Fatalf("batch size = %d, want 100", cfg.BatchSize)
	}
	if cfg.RetentionDays != 30 {
		t.Fatalf("retention = %d, want 30", cfg.RetentionDays)
	}
}

func TestLoadYAMLFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	yaml := "attendance_rate: 0.80\nmissing_assignments_min: 3\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("ALERT_THRESHOLDS_FILE", path)
	// Env wins over the file.
	t.Setenv("ALERT_MISSING_ASSIGNMENTS_MIN", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Alerts.AttendanceRate != 0.80 {
		t.Fatalf("attendance_rate = %v, want 0.80 from file", cfg.Alerts.AttendanceRate)
	}
	if cfg.Alerts.MissingAssignmentsMin != 4 {
		t.Fatalf("missing_assignments_min = %d, want env override 4", cfg.Alerts.MissingAssignmentsMin)
	}
	// Fields the file does not set keep their defaults.
	if cfg.Alerts.DedupTrendDays != 7 {
		t.Fatalf("trend dedup = %d, want default 7", cfg.Alerts.DedupTrendDays)
	}
}

func TestLoadMalformedYAMLFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	if err := os.WriteFile(path, []byte("attendance_rate: [not a number"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("ALERT_THRESHOLDS_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed thresholds file")
	}
}

func TestLoadRejectsOutOfRangeThresholds(t *testing.T) {
	t.Setenv("ALERT_ATTENDANCE_RATE", "1.5")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for attendance_rate above 1")
	}
}
