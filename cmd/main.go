package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/studypulse/studypulse-backend/internal/app"
	"github.com/studypulse/studypulse-backend/internal/data/repos"
	"github.com/studypulse/studypulse-backend/internal/db"
	"github.com/studypulse/studypulse-backend/internal/model"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
	"github.com/studypulse/studypulse-backend/internal/services"
)

type application struct {
	cfg         app.Config
	log         *logger.Logger
	predictions services.PredictionService
	staging     services.StagingService
	alerts      services.AlertService
	summaries   services.SummaryService
	enrollments repos.EnrollmentRepo
	notifier    services.Notifier
}

func buildApp() (*application, error) {
	_ = godotenv.Load()

	cfg, err := app.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("postgres auto migration: %w", err)
	}
	thePG := postgresService.DB()

	// Repos
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
	profileRepo := repos.NewStudentProfileRepo(thePG, log)
	attendanceRepo := repos.NewAttendanceRepo(thePG, log)
	activityRepo := repos.NewActivityEventRepo(thePG, log)
	summaryRepo := repos.NewDailySummaryRepo(thePG, log)
	assessmentRepo := repos.NewAssessmentRepo(thePG, log)
	submissionRepo := repos.NewSubmissionRepo(thePG, log)
	predictionRepo := repos.NewPredictionRepo(thePG, log)
	cacheRepo := repos.NewFeatureCacheRepo(thePG, log)
	stagingRepo := repos.NewFeatureStagingRepo(thePG, log)
	alertRepo := repos.NewAlertRepo(thePG, log)
	txRunner := repos.NewGormTxRunner(thePG)

	// Model artifacts. Missing or mismatched artifacts are fatal here; the
	// process never serves predictions with a partial model.
	modelSvc, err := model.Load(cfg.ModelDir, log)
	if err != nil {
		return nil, fmt.Errorf("load model artifacts: %w", err)
	}

	// Notifier: redis when configured, log-only otherwise.
	notifier, err := services.NewRedisNotifier(log)
	if err != nil {
		log.Warn("redis notifier unavailable, falling back to log notifier", "error", err)
		notifier = services.NewLogNotifier(log)
	}

	// Services
	featureSvc := services.NewFeatureService(
		enrollmentRepo, profileRepo, attendanceRepo, activityRepo,
		assessmentRepo, submissionRepo, log,
	)
	alertSvc := services.NewAlertService(
		cfg.Alerts, modelSvc.PassClass(),
		enrollmentRepo, attendanceRepo, summaryRepo,
		assessmentRepo, submissionRepo, predictionRepo, alertRepo,
		notifier, log,
	)
	predictionSvc := services.NewPredictionService(
		modelSvc, featureSvc, txRunner,
		enrollmentRepo, predictionRepo, cacheRepo, alertSvc, log,
	)
	stagingSvc := services.NewStagingService(
		featureSvc, predictionSvc, enrollmentRepo, stagingRepo,
		cfg.Concurrency, log,
	)
	summarySvc := services.NewSummaryService(enrollmentRepo, activityRepo, summaryRepo, log)

	return &application{
		cfg:         cfg,
		log:         log,
		predictions: predictionSvc,
		staging:     stagingSvc,
		alerts:      alertSvc,
		summaries:   summarySvc,
		enrollments: enrollmentRepo,
		notifier:    notifier,
	}, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	scoreBatchSize int
	scoreLoop      bool
	retentionDays  int
	persistFlag    bool

	rootCmd = &cobra.Command{
		Use:           "studypulse",
		Short:         "Grade-risk prediction pipeline for the StudyPulse platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	stageCmd = &cobra.Command{
		Use:   "stage",
		Short: "Snapshot today's feature vectors for every active enrollment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			report, err := a.staging.Stage(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "Score unprocessed staging snapshots in bounded batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			size := scoreBatchSize
			if size <= 0 {
				size = a.cfg.BatchSize
			}
			if !scoreLoop {
				report, err := a.staging.Score(cmd.Context(), size)
				if err != nil {
					return err
				}
				return printJSON(report)
			}
			return scoreUntilDrained(cmd.Context(), a.staging, size, func(r *services.BatchReport) error {
				return printJSON(r)
			})
		},
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Delete processed staging snapshots past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			days := retentionDays
			if days <= 0 {
				days = a.cfg.RetentionDays
			}
			deleted, err := a.staging.Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}
			return printJSON(map[string]int64{"deleted": deleted})
		},
	}

	predictCmd = &cobra.Command{
		Use:   "predict <enrollment-id>",
		Short: "Score one enrollment from live data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid enrollment id %q: %w", args[0], err)
			}
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			result, err := a.predictions.Predict(cmd.Context(), id, persistFlag)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	alertsCmd = &cobra.Command{
		Use:   "alerts <enrollment-id>",
		Short: "Run the alert rules for one enrollment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid enrollment id %q: %w", args[0], err)
			}
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			created, err := a.alerts.Evaluate(cmd.Context(), nil, id)
			if err != nil {
				return err
			}
			a.alerts.Dispatch(cmd.Context(), created)
			return printJSON(created)
		},
	}

	dailyCmd = &cobra.Command{
		Use:   "daily",
		Short: "Run the daily pipeline: summaries, staging, scoring, alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			return a.runDaily(cmd.Context())
		},
	}
)

// scoreUntilDrained repeats score passes until no snapshots remain. A pass
// where every snapshot failed stops with an error: those snapshots stay
// unprocessed, so another pass would claim the same batch again.
func scoreUntilDrained(ctx context.Context, staging services.StagingService, batchSize int, each func(*services.BatchReport) error) error {
	for {
		report, err := staging.Score(ctx, batchSize)
		if err != nil {
			return err
		}
		if each != nil {
			if err := each(report); err != nil {
				return err
			}
		}
		if report.Total == 0 {
			return nil
		}
		if report.Failed == report.Total {
			return fmt.Errorf("score pass made no progress on %d snapshots", report.Total)
		}
	}
}

// runDaily is the scheduler entrypoint. Every step is idempotent for the same
// day, so hour-level re-runs after a partial failure are safe.
func (a *application) runDaily(ctx context.Context) error {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	if report, err := a.summaries.GenerateDaily(ctx, yesterday); err != nil {
		return err
	} else if report.Failed > 0 {
		a.log.Warn("daily summaries had failures", "failed", report.Failed)
	}

	if report, err := a.staging.Stage(ctx); err != nil {
		return err
	} else if report.Failed > 0 {
		a.log.Warn("stage pass had failures", "failed", report.Failed)
	}

	err := scoreUntilDrained(ctx, a.staging, a.cfg.BatchSize, func(r *services.BatchReport) error {
		if r.Failed > 0 {
			a.log.Warn("score pass had failures", "failed", r.Failed)
		}
		return nil
	})
	if err != nil {
		return err
	}

	enrollments, err := a.enrollments.ListActive(ctx, nil)
	if err != nil {
		return err
	}
	for _, enr := range enrollments {
		created, err := a.alerts.Evaluate(ctx, nil, enr.ID)
		if err != nil {
			a.log.Error("alert evaluation failed", "enrollment_id", enr.ID, "error", err)
			continue
		}
		a.alerts.Dispatch(ctx, created)
	}

	if _, err := a.staging.Cleanup(ctx, a.cfg.RetentionDays); err != nil {
		return err
	}
	return nil
}

func main() {
	scoreCmd.Flags().IntVar(&scoreBatchSize, "batch-size", 0, "snapshots per batch (default from BATCH_SIZE)")
	scoreCmd.Flags().BoolVar(&scoreLoop, "loop", false, "keep scoring batches until none remain")
	cleanupCmd.Flags().IntVar(&retentionDays, "retention-days", 0, "retention window in days (default from STAGING_RETENTION_DAYS)")
	predictCmd.Flags().BoolVar(&persistFlag, "persist", false, "persist the prediction, cache refresh and alerts")

	rootCmd.AddCommand(stageCmd, scoreCmd, cleanupCmd, predictCmd, alertsCmd, dailyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
