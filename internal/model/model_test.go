package model

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/features"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func writeArtifacts(t *testing.T, dir string, meta Metadata, scaler Scaler, classifier Classifier) {
	t.Helper()
	for name, v := range map[string]interface{}{
		"metadata.json":   meta,
		"scaler.json":     scaler,
		"classifier.json": classifier,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func validArtifacts() (Metadata, Scaler, Classifier) {
	meta := Metadata{
		ModelName:    "grade_risk",
		ModelVersion: "1.2.0",
		FeatureOrder: []string{"days_active", "avg_score"},
		FeatureImportance: map[string]float64{
			"days_active": 0.30,
			"avg_score":   0.25,
		},
	}
	scaler := Scaler{Means: []float64{10, 50}, Scales: []float64{5, 20}}
	classifier := Classifier{
		Coefficients: []float64{1.5, 2.0},
		Intercept:    0.1,
		Classes:      [2]string{"Fail", "Pass"},
	}
	return meta, scaler, classifier
}

func TestDeriveRiskLevel(t *testing.T) {
	cases := []struct {
		pass       bool
		confidence float64
		want       string
	}{
		{true, 0.95, prediction.RiskLow},
		{true, 0.70, prediction.RiskMedium},
		{true, 0.55, prediction.RiskHigh},
		{false, 0.95, prediction.RiskHigh},
		{false, 0.70, prediction.RiskHigh},
		// Under-confident fail stays at medium, never low.
		{false, 0.55, prediction.RiskMedium},
		{false, 0.10, prediction.RiskMedium},
	}
	for _, c := range cases {
		if got := DeriveRiskLevel(c.pass, c.confidence); got != c.want {
			t.Fatalf("DeriveRiskLevel(%v, %v) = %s, want %s", c.pass, c.confidence, got, c.want)
		}
	}
}

func TestScalerTransform(t *testing.T) {
	s := Scaler{Means: []float64{10, 4}, Scales: []float64{2, 0}}
	out, err := s.Transform([]float64{14, 7})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out[0] != 2 {
		t.Fatalf("out[0] = %v, want 2", out[0])
	}
	// Zero scale passes the centered value through.
	if out[1] != 3 {
		t.Fatalf("out[1] = %v, want 3", out[1])
	}

	if _, err := s.Transform([]float64{1}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestClassifierPredict(t *testing.T) {
	c := Classifier{
		Coefficients: []float64{2},
		Intercept:    0,
		Classes:      [2]string{"Fail", "Pass"},
	}

	class, confidence := c.Predict([]float64{3})
	if class != "Pass" {
		t.Fatalf("class = %s, want Pass for positive decision value", class)
	}
	wantP := 1 / (1 + math.Exp(-6))
	if math.Abs(confidence-wantP) > 1e-12 {
		t.Fatalf("confidence = %v, want %v", confidence, wantP)
	}

	class, confidence = c.Predict([]float64{-3})
	if class != "Fail" {
		t.Fatalf("class = %s, want Fail for negative decision value", class)
	}
	if confidence <= 0.5 {
		t.Fatalf("confidence = %v, want argmax probability above 0.5", confidence)
	}

	proba := c.PredictProba([]float64{0})
	if math.Abs(proba[0]-0.5) > 1e-12 || math.Abs(proba[1]-0.5) > 1e-12 {
		t.Fatalf("proba = %v, want [0.5 0.5] at the decision boundary", proba)
	}
}

func TestLoadAndPredict(t *testing.T) {
	dir := t.TempDir()
	meta, scaler, classifier := validArtifacts()
	writeArtifacts(t, dir, meta, scaler, classifier)

	svc, err := Load(dir, testLogger(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if svc.Version() != "1.2.0" {
		t.Fatalf("version = %s, want 1.2.0", svc.Version())
	}
	if svc.PassClass() != "Pass" {
		t.Fatalf("pass class = %s, want Pass", svc.PassClass())
	}

	// Strong positive signal: well above the means on both features.
	class, confidence, risk, err := svc.Predict([]float64{40, 100})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if class != "Pass" {
		t.Fatalf("class = %s, want Pass", class)
	}
	if confidence <= 0.8 {
		t.Fatalf("confidence = %v, want above 0.8", confidence)
	}
	if risk != prediction.RiskLow {
		t.Fatalf("risk = %s, want low", risk)
	}

	if _, _, _, err := svc.Predict([]float64{1}); err == nil {
		t.Fatalf("expected error for wrong vector length")
	}
}

func TestLoadFeatureCountMismatchFatal(t *testing.T) {
	dir := t.TempDir()
	meta, scaler, classifier := validArtifacts()
	scaler.Means = []float64{1}
	scaler.Scales = []float64{1}
	writeArtifacts(t, dir, meta, scaler, classifier)

	if _, err := Load(dir, testLogger(t)); err == nil {
		t.Fatalf("expected error on scaler/metadata feature-count mismatch")
	}
}

func TestLoadMissingArtifactFatal(t *testing.T) {
	dir := t.TempDir()
	meta, scaler, classifier := validArtifacts()
	writeArtifacts(t, dir, meta, scaler, classifier)
	if err := os.Remove(filepath.Join(dir, "classifier.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := Load(dir, testLogger(t)); err == nil {
		t.Fatalf("expected error on missing classifier artifact")
	}
}

func TestExplain(t *testing.T) {
	dir := t.TempDir()
	meta, scaler, classifier := validArtifacts()
	meta.FeatureOrder = []string{"days_active", "avg_score", "noise"}
	meta.FeatureImportance = map[string]float64{
		"days_active": 0.40,
		"avg_score":   0.20,
		"noise":       0.01, // below the 5% cutoff
	}
	scaler.Means = []float64{0, 0, 0}
	scaler.Scales = []float64{1, 1, 1}
	classifier.Coefficients = []float64{1, 1, 1}
	writeArtifacts(t, dir, meta, scaler, classifier)

	svc, err := Load(dir, testLogger(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	vec, _ := features.BuildVector(meta.FeatureOrder, map[string]float64{
		"days_active": 12,
		"avg_score":   -3,
		"noise":       99,
	})
	expl := svc.Explain(vec, "Pass", 0.9)

	if len(expl.TopFactors) != 2 {
		t.Fatalf("top factors = %d, want 2 (noise below threshold)", len(expl.TopFactors))
	}
	if expl.TopFactors[0].Name != "days_active" {
		t.Fatalf("top factor = %s, want days_active", expl.TopFactors[0].Name)
	}
	if expl.TopFactors[1].Impact != "negative" {
		t.Fatalf("impact = %s, want negative for value below zero", expl.TopFactors[1].Impact)
	}
	if !strings.Contains(expl.Summary, "days active") {
		t.Fatalf("summary %q does not name the top factor", expl.Summary)
	}
}
