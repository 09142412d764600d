package lifecycle

import (
	"context"
	"fmt"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/model"
	"recruitment-service/internal/policy"

	"go.uber.org/zap"
)

// JobService drives the job posting workflow:
// draft -> pending_approval -> published -> closed | archived.
type JobService struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewJobService(store Store, log *zap.Logger) *JobService {
	return &JobService{store: store, log: log, now: time.Now}
}

// Create persists a new posting in draft status with the actor as creator.
func (s *JobService) Create(ctx context.Context, actor Actor, job *model.Job) (*model.Job, error) {
	if !policy.CanCreateJob(actor.Principal) {
		return nil, apperr.PermissionDenied("only a head of department can create job postings")
	}
	if !job.JobType.Valid() {
		return nil, apperr.New(apperr.CodeValidation, "invalid job type")
	}
	if job.Priority == "" {
		job.Priority = model.JobPriorityMedium
	}
	if !job.Priority.Valid() {
		return nil, apperr.New(apperr.CodeValidation, "invalid priority")
	}

	job.JobStatus = model.JobStatusDraft
	job.CreatedByID = actor.userID()
	job.ApprovedByID = nil
	job.SelectedApplicantID = nil
	job.PublishedAt = nil
	job.ClosedAt = nil

	err := s.store.Transact(ctx, func(tx Store) error {
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, actor.entry(model.ActionCreate, model.EntityJob, job.ID,
			fmt.Sprintf("Created job: %s", job.Title)))
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitForApproval moves a draft posting to pending_approval.
func (s *JobService) SubmitForApproval(ctx context.Context, actor Actor, jobID uint) (*model.Job, error) {
	var job *model.Job
	err := s.store.Transact(ctx, func(tx Store) error {
		var err error
		job, err = tx.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if !policy.CanManageJob(actor.Principal, job) {
			return apperr.PermissionDenied("")
		}
		if job.JobStatus != model.JobStatusDraft {
			return apperr.InvalidTransition(fmt.Sprintf("job must be in draft status, got %s", job.JobStatus))
		}

		job.JobStatus = model.JobStatusPendingApproval
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, actor.entry(model.ActionUpdate, model.EntityJob, job.ID,
			fmt.Sprintf("Submitted job for approval: %s", job.Title)))
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ApproveAndPublish publishes a pending posting. ApprovedBy and PublishedAt
// are set exactly once, here.
func (s *JobService) ApproveAndPublish(ctx context.Context, actor Actor, jobID uint) (*model.Job, error) {
	var job *model.Job
	err := s.store.Transact(ctx, func(tx Store) error {
		var err error
		job, err = tx.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if !policy.CanApproveJob(actor.Principal, job) {
			return apperr.PermissionDenied("only HR can approve job postings")
		}
		if job.JobStatus != model.JobStatusPendingApproval {
			return apperr.InvalidTransition(fmt.Sprintf("job must be in pending_approval status, got %s", job.JobStatus))
		}

		now := s.now()
		job.JobStatus = model.JobStatusPublished
		job.ApprovedByID = actor.userID()
		job.PublishedAt = &now
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, actor.entry(model.ActionApprove, model.EntityJob, job.ID,
			fmt.Sprintf("Approved and published job: %s", job.Title)))
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Archive is the administrative override moving any non-archived posting to
// archived.
func (s *JobService) Archive(ctx context.Context, actor Actor, jobID uint) (*model.Job, error) {
	var job *model.Job
	err := s.store.Transact(ctx, func(tx Store) error {
		var err error
		job, err = tx.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if actor.Principal == nil ||
			(actor.Principal.Role != model.RoleSuperAdmin && actor.Principal.Role != model.RoleInstitutionAdmin) {
			return apperr.PermissionDenied("only administrators can archive job postings")
		}
		if actor.Principal.Role == model.RoleInstitutionAdmin && !policy.CanManageJob(actor.Principal, job) {
			return apperr.PermissionDenied("")
		}
		if job.JobStatus == model.JobStatusArchived {
			return apperr.InvalidTransition("job is already archived")
		}

		old := job.JobStatus
		job.JobStatus = model.JobStatusArchived
		if err := tx.SaveJob(ctx, job); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, actor.entry(model.ActionArchive, model.EntityJob, job.ID,
			fmt.Sprintf("Archived job (was %s): %s", old, job.Title)))
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// AutoCloseExpired closes every published job whose deadline has passed and
// that has no selected applicant. Invoking it twice is safe: the second run
// finds nothing eligible and writes no further audit rows. Per-job failures
// are logged and skipped so one bad row cannot abort the batch.
func (s *JobService) AutoCloseExpired(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.store.ExpiredPublishedJobs(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range expired {
		jobID := expired[i].ID
		closedThisJob := false
		err := s.store.Transact(ctx, func(tx Store) error {
			job, err := tx.GetJob(ctx, jobID)
			if err != nil {
				return err
			}
			// Re-check inside the transaction: a selection cascade may have
			// closed the job since the candidate list was built.
			if job.JobStatus != model.JobStatusPublished || !job.DeadlinePassed(now) || job.SelectedApplicantID != nil {
				return nil
			}
			closedAt := s.now()
			job.JobStatus = model.JobStatusClosed
			job.ClosedAt = &closedAt
			if err := tx.SaveJob(ctx, job); err != nil {
				return err
			}
			closedThisJob = true
			return tx.Audit().Record(ctx, System.entry(model.ActionUpdate, model.EntityJob, job.ID,
				fmt.Sprintf("Auto-closed job due to deadline: %s", job.Title)))
		})
		if err != nil {
			s.log.Error("failed to auto-close job", zap.Uint("job_id", jobID), zap.Error(err))
			continue
		}
		// Count only committed closes; a rolled-back transaction must not
		// inflate the sweep result.
		if closedThisJob {
			closed++
		}
	}
	return closed, nil
}

// closeWithSelection closes the job for a selected applicant. It runs inside
// the application selection transaction and takes precedence over deadline
// logic: the close happens regardless of the job's prior status.
func closeWithSelection(ctx context.Context, tx Store, job *model.Job, applicantID uint, now time.Time) error {
	job.JobStatus = model.JobStatusClosed
	job.SelectedApplicantID = &applicantID
	job.ClosedAt = &now
	return tx.SaveJob(ctx, job)
}
