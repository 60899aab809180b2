package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/studypulse/studypulse-backend/internal/data/repos"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

// BatchReport is the manifest a staging pass returns: per-item outcomes plus
// totals, never an all-or-nothing status.
type BatchReport struct {
	Total  int           `json:"total"`
	Failed int           `json:"failed"`
	Items  []ItemOutcome `json:"items"`
}

// StagingService runs the two independent cohort passes: the stage pass
// snapshots feature vectors, the score pass turns unprocessed snapshots into
// predictions. The passes have separate failure domains and retry policies.
type StagingService interface {
	Stage(ctx context.Context) (*BatchReport, error)
	Score(ctx context.Context, batchSize int) (*BatchReport, error)
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

type stagingService struct {
	featureSvc  FeatureService
	predictions PredictionService
	enrollments repos.EnrollmentRepo
	staging     repos.FeatureStagingRepo
	concurrency int
	log         *logger.Logger
}

func NewStagingService(
	featureSvc FeatureService,
	predictions PredictionService,
	enrollments repos.EnrollmentRepo,
	staging repos.FeatureStagingRepo,
	concurrency int,
	baseLog *logger.Logger,
) StagingService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &stagingService{
		featureSvc:  featureSvc,
		predictions: predictions,
		enrollments: enrollments,
		staging:     staging,
		concurrency: concurrency,
		log:         baseLog.With("service", "StagingService"),
	}
}

// Stage computes and snapshots today's feature vector for every active
// enrollment. Re-running overwrites same-day snapshots rather than
// duplicating. Per-item failures never abort sibling items.
func (s *stagingService) Stage(ctx context.Context) (*BatchReport, error) {
	enrollments, err := s.enrollments.ListActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	now := time.Now().UTC()
	today := startOfDayUTC(now)

	report := &BatchReport{Total: len(enrollments), Items: make([]ItemOutcome, len(enrollments))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, enr := range enrollments {
		i, enr := i, enr
		g.Go(func() error {
			err := s.stageOne(gctx, enr.ID, now, today)
			item := ItemOutcome{EnrollmentID: enr.ID, OK: err == nil}
			if err != nil {
				item.Error = err.Error()
				s.log.Error("stage failed", "enrollment_id", enr.ID, "error", err)
			}
			mu.Lock()
			report.Items[i] = item
			if err != nil {
				report.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	s.log.Info("stage pass done", "total", report.Total, "failed", report.Failed)
	return report, nil
}

func (s *stagingService) stageOne(ctx context.Context, enrollmentID uuid.UUID, asOf, day time.Time) error {
	computed, _, err := s.featureSvc.Compute(ctx, nil, enrollmentID, asOf)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(computed)
	if err != nil {
		return fmt.Errorf("marshal feature data: %w", err)
	}
	return s.staging.Upsert(ctx, nil, &prediction.FeatureStaging{
		EnrollmentID:    enrollmentID,
		CalculationDate: day,
		FeatureData:     datatypes.JSON(raw),
	})
}

// Score claims up to batchSize unprocessed snapshots and scores each one.
// A snapshot is marked processed only after its prediction transaction has
// committed; a crash between the two writes leaves the snapshot unprocessed
// and it is simply scored again on the next run.
func (s *stagingService) Score(ctx context.Context, batchSize int) (*BatchReport, error) {
	snapshots, err := s.staging.ListUnprocessed(ctx, nil, batchSize)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed snapshots: %w", err)
	}

	report := &BatchReport{Total: len(snapshots)}
	for _, snap := range snapshots {
		err := s.scoreOne(ctx, snap)
		item := ItemOutcome{EnrollmentID: snap.EnrollmentID, OK: err == nil}
		if err != nil {
			item.Error = err.Error()
			report.Failed++
			s.log.Error("score failed", "enrollment_id", snap.EnrollmentID, "staging_id", snap.ID, "error", err)
		}
		report.Items = append(report.Items, item)
	}
	s.log.Info("score pass done", "total", report.Total, "failed", report.Failed)
	return report, nil
}

func (s *stagingService) scoreOne(ctx context.Context, snap prediction.FeatureStaging) error {
	var computed map[string]float64
	if err := json.Unmarshal(snap.FeatureData, &computed); err != nil {
		return fmt.Errorf("unmarshal feature data: %w", err)
	}
	if _, err := s.predictions.PredictFromSnapshot(ctx, snap.EnrollmentID, computed, snap.CalculationDate); err != nil {
		return err
	}
	return s.staging.MarkProcessed(ctx, nil, snap.ID)
}

// Cleanup deletes processed snapshots older than the retention window.
// Unprocessed rows are never deleted regardless of age.
func (s *stagingService) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}
	cutoff := startOfDayUTC(time.Now().UTC()).AddDate(0, 0, -retentionDays)
	deleted, err := s.staging.DeleteProcessedBefore(ctx, nil, cutoff)
	if err != nil {
		return 0, err
	}
	s.log.Info("cleanup pass done", "deleted", deleted, "cutoff", cutoff.Format(time.DateOnly))
	return deleted, nil
}
