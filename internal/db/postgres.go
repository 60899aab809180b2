package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/studypulse/studypulse-backend/internal/domain/academic"
	"github.com/studypulse/studypulse-backend/internal/domain/alert"
	"github.com/studypulse/studypulse-backend/internal/domain/assessment"
	"github.com/studypulse/studypulse-backend/internal/domain/prediction"
	"github.com/studypulse/studypulse-backend/internal/domain/tracking"
	"github.com/studypulse/studypulse-backend/internal/platform/envutil"
	"github.com/studypulse/studypulse-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.Str("POSTGRES_HOST", "localhost")
	postgresPort := envutil.Str("POSTGRES_PORT", "5432")
	postgresUser := envutil.Str("POSTGRES_USER", "postgres")
	postgresPassword := envutil.Str("POSTGRES_PASSWORD", "")
	postgresName := envutil.Str("POSTGRES_NAME", "studypulse")

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser,
		postgresPassword,
		postgresHost,
		postgresPort,
		postgresName,
	)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&academic.Enrollment{},
		&academic.StudentProfile{},

		&tracking.AttendanceRecord{},
		&tracking.ActivityEvent{},
		&tracking.DailySummary{},

		&assessment.Assessment{},
		&assessment.Submission{},

		&prediction.Prediction{},
		&prediction.FeatureCacheEntry{},
		&prediction.FeatureStaging{},

		&alert.Alert{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }
