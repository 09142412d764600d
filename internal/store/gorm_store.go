// Package store provides the gorm-backed implementation of the lifecycle
// Store interface.
package store

import (
	"context"
	"errors"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/audit"
	"recruitment-service/internal/lifecycle"
	"recruitment-service/internal/model"

	"gorm.io/gorm"
)

// GormStore wraps a gorm handle. Transact hands callbacks a store bound to
// the transaction handle, so every write inside commits or rolls back
// together.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetJob(ctx context.Context, id uint) (*model.Job, error) {
	var job model.Job
	if err := s.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("job")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load job", err)
	}
	return &job, nil
}

func (s *GormStore) SaveJob(ctx context.Context, job *model.Job) error {
	if err := s.db.WithContext(ctx).Save(job).Error; err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to save job", err)
	}
	return nil
}

func (s *GormStore) ExpiredPublishedJobs(ctx context.Context, now time.Time) ([]model.Job, error) {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var jobs []model.Job
	err := s.db.WithContext(ctx).
		Where("job_status = ? AND last_date < ? AND selected_applicant_id IS NULL",
			model.JobStatusPublished, today).
		Find(&jobs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to list expired jobs", err)
	}
	return jobs, nil
}

func (s *GormStore) GetApplication(ctx context.Context, id uint) (*model.Application, error) {
	var app model.Application
	if err := s.db.WithContext(ctx).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("application")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load application", err)
	}
	return &app, nil
}

func (s *GormStore) CreateApplication(ctx context.Context, app *model.Application) error {
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.DuplicateApplication()
		}
		return apperr.Wrap(apperr.CodeInternal, "failed to create application", err)
	}
	return nil
}

func (s *GormStore) SaveApplication(ctx context.Context, app *model.Application) error {
	if err := s.db.WithContext(ctx).Save(app).Error; err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to save application", err)
	}
	return nil
}

func (s *GormStore) ApplicationExists(ctx context.Context, jobID, applicantID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Application{}).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, "failed to check existing application", err)
	}
	return count > 0, nil
}

func (s *GormStore) GetApplicant(ctx context.Context, id uint) (*model.Applicant, error) {
	var applicant model.Applicant
	if err := s.db.WithContext(ctx).First(&applicant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("applicant")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load applicant", err)
	}
	return &applicant, nil
}

func (s *GormStore) Audit() audit.Recorder {
	return audit.NewGormRecorder(s.db)
}

func (s *GormStore) Transact(ctx context.Context, fn func(lifecycle.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
