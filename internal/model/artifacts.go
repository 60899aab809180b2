package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

// Metadata is the companion document shipped next to the fitted artifacts. It
// freezes the feature-name ordering the scaler and classifier were fit on.
type Metadata struct {
	ModelName         string             `json:"model_name"`
	ModelVersion      string             `json:"model_version"`
	FeatureOrder      []string           `json:"feature_order"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
}

// Service bundles the frozen scaler, classifier and metadata. It is built once
// at process start, is immutable afterwards, and is safe for concurrent
// read-only inference.
type Service struct {
	scaler     *Scaler
	classifier *Classifier
	meta       Metadata
	log        *logger.Logger
}

// Load reads the artifact set from dir (scaler.json, classifier.json,
// metadata.json). Any missing file or any feature-count mismatch between the
// three documents is a configuration error; callers treat it as startup-fatal.
func Load(dir string, baseLog *logger.Logger) (*Service, error) {
	log := baseLog.With("service", "ModelService")

	var meta Metadata
	if err := readJSON(filepath.Join(dir, "metadata.json"), &meta); err != nil {
		return nil, fmt.Errorf("load model metadata: %w", err)
	}
	if len(meta.FeatureOrder) == 0 {
		return nil, fmt.Errorf("model metadata %s has an empty feature order", dir)
	}

	var scaler Scaler
	if err := readJSON(filepath.Join(dir, "scaler.json"), &scaler); err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	if err := scaler.validate(len(meta.FeatureOrder)); err != nil {
		return nil, err
	}

	var classifier Classifier
	if err := readJSON(filepath.Join(dir, "classifier.json"), &classifier); err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	if err := classifier.validate(len(meta.FeatureOrder)); err != nil {
		return nil, err
	}

	log.Info("Model artifacts loaded",
		"model_name", meta.ModelName,
		"model_version", meta.ModelVersion,
		"feature_count", len(meta.FeatureOrder),
	)
	return &Service{
		scaler:     &scaler,
		classifier: &classifier,
		meta:       meta,
		log:        log,
	}, nil
}

func readJSON(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// FeatureOrder returns the frozen feature-name ordering.
func (s *Service) FeatureOrder() []string { return s.meta.FeatureOrder }

// Version identifies the loaded artifact set.
func (s *Service) Version() string { return s.meta.ModelVersion }

// PassClass is the class label treated as passing by the risk table.
func (s *Service) PassClass() string { return s.classifier.Classes[1] }

// FeatureImportance returns the static importance table from the metadata.
func (s *Service) FeatureImportance() map[string]float64 { return s.meta.FeatureImportance }

// Predict scales the raw vector, runs the classifier, and derives the risk
// level from the predicted class and confidence band.
func (s *Service) Predict(raw []float64) (class string, confidence float64, risk string, err error) {
	scaled, err := s.scaler.Transform(raw)
	if err != nil {
		return "", 0, "", err
	}
	class, confidence = s.classifier.Predict(scaled)
	risk = DeriveRiskLevel(class == s.PassClass(), confidence)
	return class, confidence, risk, nil
}
