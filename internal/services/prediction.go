package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	"github.com/studypulse/studypulse-backend/internal/domain/alert"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/features"
	"github.com/studypulse/studypulse-backend/internal/model"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

// PredictionResult is the outcome of one scoring call.
type PredictionResult struct {
	EnrollmentID   uuid.UUID         `json:"enrollment_id"`
	PredictedClass string            `json:"predicted_class"`
	Confidence     float64           `json:"confidence"`
	RiskLevel      string            `json:"risk_level"`
	ModelVersion   string            `json:"model_version"`
	PredictedAt    time.Time         `json:"predicted_at"`
	Features       features.Vector   `json:"-"`
	Explanation    model.Explanation `json:"explanation"`
	Persisted      bool              `json:"persisted"`
}

// CompareResult describes how an enrollment's outlook moved between two dates.
type CompareResult struct {
	Earlier         *prediction.Prediction `json:"earlier"`
	Later           *prediction.Prediction `json:"later"`
	ClassChanged    bool                   `json:"class_changed"`
	ConfidenceDelta float64                `json:"confidence_delta"`
	RiskDirection   string                 `json:"risk_direction"`
}

// ItemOutcome is one entry in a batch manifest. Batch operations always
// report per-item success/failure rather than an all-or-nothing status.
type ItemOutcome struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	OK           bool      `json:"ok"`
	Error        string    `json:"error,omitempty"`
}

type PredictionService interface {
	Predict(ctx context.Context, enrollmentID uuid.UUID, persist bool) (*PredictionResult, error)
	PredictFromSnapshot(ctx context.Context, enrollmentID uuid.UUID, computed map[string]float64, asOf time.Time) (*PredictionResult, error)
	History(ctx context.Context, enrollmentID uuid.UUID, limit int) ([]prediction.Prediction, error)
	Latest(ctx context.Context, enrollmentID uuid.UUID) (*prediction.Prediction, error)
	AtRisk(ctx context.Context, offeringID uuid.UUID, riskLevels []string) ([]prediction.Prediction, error)
	Compare(ctx context.Context, enrollmentID uuid.UUID, earlier, later time.Time) (*CompareResult, error)
	RefreshCacheForOffering(ctx context.Context, offeringID uuid.UUID) ([]ItemOutcome, error)
}

type predictionService struct {
	model       *model.Service
	featureSvc  FeatureService
	txRunner    repos.TxRunner
	enrollments repos.EnrollmentRepo
	predictions repos.PredictionRepo
	cache       repos.FeatureCacheRepo
	alerts      AlertService
	log         *logger.Logger
}

func NewPredictionService(
	modelSvc *model.Service,
	featureSvc FeatureService,
	txRunner repos.TxRunner,
	enrollments repos.EnrollmentRepo,
	predictions repos.PredictionRepo,
	cache repos.FeatureCacheRepo,
	alerts AlertService,
	baseLog *logger.Logger,
) PredictionService {
	return &predictionService{
		model:       modelSvc,
		featureSvc:  featureSvc,
		txRunner:    txRunner,
		enrollments: enrollments,
		predictions: predictions,
		cache:       cache,
		alerts:      alerts,
		log:         baseLog.With("service", "PredictionService"),
	}
}

// Predict computes features as of now, scores them, and optionally persists
// the prediction, cache refresh, and alert evaluation as one transaction.
func (s *predictionService) Predict(ctx context.Context, enrollmentID uuid.UUID, persist bool) (*PredictionResult, error) {
	now := time.Now().UTC()
	computed, _, err := s.featureSvc.Compute(ctx, nil, enrollmentID, now)
	if err != nil {
		return nil, err
	}
	return s.score(ctx, enrollmentID, computed, now, persist)
}

// PredictFromSnapshot scores an already-computed feature map, persisting the
// result. The score pass uses it so a staged vector is scored exactly as it
// was captured, not recomputed from live data. asOf is the snapshot's
// calculation date and sets only the cache day; the prediction row itself
// carries the scoring time.
func (s *predictionService) PredictFromSnapshot(ctx context.Context, enrollmentID uuid.UUID, computed map[string]float64, asOf time.Time) (*PredictionResult, error) {
	return s.score(ctx, enrollmentID, computed, asOf, true)
}

func (s *predictionService) score(ctx context.Context, enrollmentID uuid.UUID, computed map[string]float64, asOf time.Time, persist bool) (*PredictionResult, error) {
	vec, missing := features.BuildVector(s.model.FeatureOrder(), computed)
	if len(missing) > 0 {
		s.log.Warn("feature names zero-filled", "enrollment_id", enrollmentID, "missing", missing)
	}

	class, confidence, risk, err := s.model.Predict(vec.Values)
	if err != nil {
		return nil, fmt.Errorf("predict enrollment %s: %w", enrollmentID, err)
	}

	// The prediction is stamped at scoring time, not at the feature date, so
	// history ordering follows processing order even when a backlog of staged
	// snapshots is scored after a live prediction.
	scoredAt := time.Now().UTC()
	result := &PredictionResult{
		EnrollmentID:   enrollmentID,
		PredictedClass: class,
		Confidence:     confidence,
		RiskLevel:      risk,
		ModelVersion:   s.model.Version(),
		PredictedAt:    scoredAt,
		Features:       vec,
		Explanation:    s.model.Explain(vec, class, confidence),
	}
	if !persist {
		return result, nil
	}

	snapshot, err := json.Marshal(vec.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal feature snapshot: %w", err)
	}

	row := prediction.Prediction{
		EnrollmentID:    enrollmentID,
		PredictedAt:     scoredAt,
		PredictedClass:  class,
		Confidence:      confidence,
		RiskLevel:       risk,
		ModelVersion:    s.model.Version(),
		FeatureSnapshot: datatypes.JSON(snapshot),
	}
	cacheEntry := cacheEntryFrom(enrollmentID, startOfDayUTC(asOf), computed, scoredAt)

	var triggered []alert.Alert
	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.predictions.Create(ctx, tx, &row); err != nil {
			return err
		}
		if err := s.cache.Upsert(ctx, tx, cacheEntry); err != nil {
			return err
		}
		if risk == prediction.RiskMedium || risk == prediction.RiskHigh {
			var err error
			triggered, err = s.alerts.Evaluate(ctx, tx, enrollmentID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist prediction for %s: %w", enrollmentID, err)
	}
	// Dispatch only after commit; a rolled-back evaluation must not notify.
	s.alerts.Dispatch(ctx, triggered)
	result.Persisted = true
	return result, nil
}

func (s *predictionService) History(ctx context.Context, enrollmentID uuid.UUID, limit int) ([]prediction.Prediction, error) {
	return s.predictions.ListByEnrollment(ctx, nil, enrollmentID, limit)
}

func (s *predictionService) Latest(ctx context.Context, enrollmentID uuid.UUID) (*prediction.Prediction, error) {
	return s.predictions.Latest(ctx, nil, enrollmentID)
}

func (s *predictionService) AtRisk(ctx context.Context, offeringID uuid.UUID, riskLevels []string) ([]prediction.Prediction, error) {
	if len(riskLevels) == 0 {
		riskLevels = []string{prediction.RiskMedium, prediction.RiskHigh}
	}
	return s.predictions.LatestPerEnrollmentAtRisk(ctx, nil, offeringID, riskLevels)
}

func (s *predictionService) Compare(ctx context.Context, enrollmentID uuid.UUID, earlier, later time.Time) (*CompareResult, error) {
	if !earlier.Before(later) {
		return nil, fmt.Errorf("earlier date %s is not before later date %s", earlier.Format(time.DateOnly), later.Format(time.DateOnly))
	}
	a, err := s.predictions.LatestUpTo(ctx, nil, enrollmentID, earlier)
	if err != nil {
		return nil, err
	}
	b, err := s.predictions.LatestUpTo(ctx, nil, enrollmentID, later)
	if err != nil {
		return nil, err
	}
	res := &CompareResult{Earlier: a, Later: b, RiskDirection: "unchanged"}
	if a == nil || b == nil {
		return res, nil
	}
	res.ClassChanged = a.PredictedClass != b.PredictedClass
	res.ConfidenceDelta = b.Confidence - a.Confidence
	switch {
	case prediction.RiskOrdinal(b.RiskLevel) > prediction.RiskOrdinal(a.RiskLevel):
		res.RiskDirection = "increased"
	case prediction.RiskOrdinal(b.RiskLevel) < prediction.RiskOrdinal(a.RiskLevel):
		res.RiskDirection = "decreased"
	}
	return res, nil
}

// RefreshCacheForOffering recomputes and caches features for every active
// enrollment in the offering. Per-item failures are recorded in the manifest
// and do not abort siblings.
func (s *predictionService) RefreshCacheForOffering(ctx context.Context, offeringID uuid.UUID) ([]ItemOutcome, error) {
	enrollments, err := s.enrollments.ListActiveByOffering(ctx, nil, offeringID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	out := make([]ItemOutcome, 0, len(enrollments))
	for _, enr := range enrollments {
		computed, _, err := s.featureSvc.Compute(ctx, nil, enr.ID, now)
		if err == nil {
			err = s.cache.Upsert(ctx, nil, cacheEntryFrom(enr.ID, startOfDayUTC(now), computed, now))
		}
		item := ItemOutcome{EnrollmentID: enr.ID, OK: err == nil}
		if err != nil {
			item.Error = err.Error()
			s.log.Error("cache refresh failed", "enrollment_id", enr.ID, "error", err)
		}
		out = append(out, item)
	}
	return out, nil
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
