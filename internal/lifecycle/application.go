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

// ApplicationService drives the application review workflow:
// submitted -> under_review -> interviewing -> shortlisted -> selected | rejected.
type ApplicationService struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewApplicationService(store Store, log *zap.Logger) *ApplicationService {
	return &ApplicationService{store: store, log: log, now: time.Now}
}

// ApplyInput is the applicant-supplied part of a new application.
type ApplyInput struct {
	JobID       uint
	ResumeURL   string
	CoverLetter string
}

// Apply creates an application for a published job. The (job, applicant)
// pair is unique; contact fields are snapshotted from the applicant profile
// at submission time and the submission email flag is flipped once.
func (s *ApplicationService) Apply(ctx context.Context, actor Actor, input ApplyInput) (*model.Application, error) {
	if !policy.CanApply(actor.Principal) {
		return nil, apperr.PermissionDenied("only applicants can apply for jobs")
	}
	applicantID := *actor.Principal.ApplicantID

	var app *model.Application
	err := s.store.Transact(ctx, func(tx Store) error {
		job, err := tx.GetJob(ctx, input.JobID)
		if err != nil {
			return err
		}
		if job.JobStatus != model.JobStatusPublished {
			return apperr.New(apperr.CodeValidation, "job is not open for applications")
		}

		exists, err := tx.ApplicationExists(ctx, job.ID, applicantID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.DuplicateApplication()
		}

		applicant, err := tx.GetApplicant(ctx, applicantID)
		if err != nil {
			return err
		}
		if !applicant.IsActive {
			return apperr.PermissionDenied("applicant account is deactivated")
		}

		app = &model.Application{
			JobID:               job.ID,
			ApplicantID:         applicant.ID,
			ApplicantName:       applicant.FullName,
			ApplicantEmail:      applicant.Email,
			ApplicantPhone:      applicant.MobileNumber,
			ResumeURL:           input.ResumeURL,
			CoverLetter:         input.CoverLetter,
			Status:              model.ApplicationStatusSubmitted,
			SubmissionEmailSent: true,
		}
		if app.ResumeURL == "" {
			app.ResumeURL = applicant.ResumeURL
		}
		if err := tx.CreateApplication(ctx, app); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, actor.entry(model.ActionApply, model.EntityApplication, app.ID,
			fmt.Sprintf("Applied for job: %s", job.Title)))
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// UpdateStatus moves an application to the given status. Unknown statuses
// fail with InvalidStatus; terminal applications cannot change again. A move
// to selected is routed through the selection cascade so the owning job is
// always closed in the same transaction.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor Actor, appID uint, status model.ApplicationStatus, remarks string) (*model.Application, error) {
	if !status.Valid() {
		return nil, apperr.InvalidStatus(string(status))
	}
	if status == model.ApplicationStatusSelected {
		return s.MarkSelected(ctx, actor, appID)
	}
	if status == model.ApplicationStatusRejected {
		return s.MarkRejected(ctx, actor, appID, remarks)
	}

	var app *model.Application
	err := s.store.Transact(ctx, func(tx Store) error {
		var err error
		app, err = s.loadForStatusChange(ctx, tx, actor, appID)
		if err != nil {
			return err
		}

		s.applyStatus(app, status, actor)
		if remarks != "" {
			app.Remarks = remarks
		}
		if status == model.ApplicationStatusInterviewing && !app.InterviewEmailSent {
			app.InterviewEmailSent = true
		}
		if err := tx.SaveApplication(ctx, app); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, actor.entry(model.ActionStatusChange, model.EntityApplication, app.ID,
			fmt.Sprintf("Changed application status to %s", status)))
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// MoveToUnderReview marks the application as under review.
func (s *ApplicationService) MoveToUnderReview(ctx context.Context, actor Actor, appID uint) (*model.Application, error) {
	return s.UpdateStatus(ctx, actor, appID, model.ApplicationStatusUnderReview, "")
}

// MoveToInterviewing moves the application to the interview stage.
func (s *ApplicationService) MoveToInterviewing(ctx context.Context, actor Actor, appID uint) (*model.Application, error) {
	return s.UpdateStatus(ctx, actor, appID, model.ApplicationStatusInterviewing, "")
}

// MoveToShortlisted marks the application as shortlisted.
func (s *ApplicationService) MoveToShortlisted(ctx context.Context, actor Actor, appID uint) (*model.Application, error) {
	return s.UpdateStatus(ctx, actor, appID, model.ApplicationStatusShortlisted, "")
}

// MarkSelected marks the application as selected and, in the same
// transaction, closes the owning job with this applicant. Both writes commit
// or neither does.
func (s *ApplicationService) MarkSelected(ctx context.Context, actor Actor, appID uint) (*model.Application, error) {
	var app *model.Application
	err := s.store.Transact(ctx, func(tx Store) error {
		var err error
		app, err = s.loadForStatusChange(ctx, tx, actor, appID)
		if err != nil {
			return err
		}
		job, err := tx.GetJob(ctx, app.JobID)
		if err != nil {
			return err
		}

		now := s.now()
		s.applyStatus(app, model.ApplicationStatusSelected, actor)
		if !app.SelectionEmailSent {
			app.SelectionEmailSent = true
		}
		if err := tx.SaveApplication(ctx, app); err != nil {
			return err
		}
		if err := closeWithSelection(ctx, tx, job, app.ApplicantID, now); err != nil {
			return err
		}
		return tx.Audit().Record(ctx, actor.entry(model.ActionSelection, model.EntityApplication, app.ID,
			fmt.Sprintf("Marked application as selected for job: %s", job.Title)))
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// MarkRejected marks the application as rejected, persisting remarks and
// flipping the rejection email flag once.
func (s *ApplicationService) MarkRejected(ctx context.Context, actor Actor, appID uint, remarks string) (*model.Application, error) {
	var app *model.Application
	err := s.store.Transact(ctx, func(tx Store) error {
		var err error
		app, err = s.loadForStatusChange(ctx, tx, actor, appID)
		if err != nil {
			return err
		}

		s.applyStatus(app, model.ApplicationStatusRejected, actor)
		if remarks != "" {
			app.Remarks = remarks
		}
		if !app.RejectionEmailSent {
			app.RejectionEmailSent = true
		}
		if err := tx.SaveApplication(ctx, app); err != nil {
			return err
		}
		description := "Marked application as rejected"
		if remarks != "" {
			description = fmt.Sprintf("Marked application as rejected. Remarks: %s", remarks)
		}
		return tx.Audit().Record(ctx, actor.entry(model.ActionStatusChange, model.EntityApplication, app.ID, description))
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// loadForStatusChange fetches the application and authorizes the actor for a
// status change against the owning job.
func (s *ApplicationService) loadForStatusChange(ctx context.Context, tx Store, actor Actor, appID uint) (*model.Application, error) {
	app, err := tx.GetApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	job, err := tx.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageApplication(actor.Principal, app, job) {
		return nil, apperr.PermissionDenied("")
	}
	if app.Status.Terminal() {
		return nil, apperr.InvalidTransition(fmt.Sprintf("application is already %s", app.Status))
	}
	return app, nil
}

func (s *ApplicationService) applyStatus(app *model.Application, status model.ApplicationStatus, actor Actor) {
	now := s.now()
	app.Status = status
	app.StatusChangedAt = &now
	app.StatusChangedByID = actor.userID()
}
