package lifecycle

import (
	"context"
	"testing"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/model"

	"go.uber.org/zap"
)

func newTestApplicationService(store *fakeStore, now time.Time) *ApplicationService {
	svc := NewApplicationService(store, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func seedPublishedJob(store *fakeStore, id uint) *model.Job {
	job := testJob(time.Now().UTC().AddDate(0, 1, 0))
	job.ID = id
	job.JobStatus = model.JobStatusPublished
	store.jobs[id] = job
	return job
}

func seedApplicant(store *fakeStore, id uint) *model.Applicant {
	applicant := &model.Applicant{
		ID:           id,
		FullName:     "Priya Sharma",
		Email:        "priya@example.com",
		MobileNumber: "9876543210",
		ResumeURL:    "https://cdn.example.com/resume.pdf",
		IsActive:     true,
	}
	store.applicants[id] = applicant
	return applicant
}

func TestApplySnapshotsApplicantProfile(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	svc := newTestApplicationService(store, now)

	seedPublishedJob(store, 1)
	seedApplicant(store, 5)

	app, err := svc.Apply(context.Background(), applicantActor(50, 5), ApplyInput{JobID: 1, CoverLetter: "hello"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != model.ApplicationStatusSubmitted {
		t.Fatalf("status = %s, want submitted", app.Status)
	}
	if app.ApplicantName != "Priya Sharma" || app.ApplicantEmail != "priya@example.com" {
		t.Fatalf("snapshot fields not copied: %+v", app)
	}
	if app.ResumeURL != "https://cdn.example.com/resume.pdf" {
		t.Fatalf("ResumeURL = %q, want profile fallback", app.ResumeURL)
	}
	if !app.SubmissionEmailSent {
		t.Fatal("SubmissionEmailSent not flipped on apply")
	}
	if got := store.auditActions(); len(got) != 1 || got[0] != model.ActionApply {
		t.Fatalf("audit actions = %v, want [apply]", got)
	}
}

func TestApplyDuplicateRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())
	ctx := context.Background()

	seedPublishedJob(store, 1)
	seedApplicant(store, 5)

	if _, err := svc.Apply(ctx, applicantActor(50, 5), ApplyInput{JobID: 1}); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	_, err := svc.Apply(ctx, applicantActor(50, 5), ApplyInput{JobID: 1})
	if apperr.CodeOf(err) != apperr.CodeDuplicateApplication {
		t.Fatalf("error code = %v, want duplicate_application", apperr.CodeOf(err))
	}
	if len(store.applications) != 1 {
		t.Fatalf("applications = %d, want 1", len(store.applications))
	}
}

func TestApplyRequiresPublishedJob(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())

	job := testJob(time.Now().UTC().AddDate(0, 1, 0))
	job.ID = 1
	job.JobStatus = model.JobStatusDraft
	store.jobs[1] = job
	seedApplicant(store, 5)

	_, err := svc.Apply(context.Background(), applicantActor(50, 5), ApplyInput{JobID: 1})
	if apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("error code = %v, want validation", apperr.CodeOf(err))
	}
}

func TestApplyRequiresApplicantRole(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())

	seedPublishedJob(store, 1)

	_, err := svc.Apply(context.Background(), hrActor(20, 1, 1), ApplyInput{JobID: 1})
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("error code = %v, want permission_denied", apperr.CodeOf(err))
	}
}

func TestApplyRequiresActiveApplicant(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())

	seedPublishedJob(store, 1)
	applicant := seedApplicant(store, 5)
	applicant.IsActive = false

	_, err := svc.Apply(context.Background(), applicantActor(50, 5), ApplyInput{JobID: 1})
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("error code = %v, want permission_denied", apperr.CodeOf(err))
	}
	if len(store.applications) != 0 {
		t.Fatalf("applications = %d, want 0 for deactivated applicant", len(store.applications))
	}
}

func seedApplication(store *fakeStore, id, jobID, applicantID uint, status model.ApplicationStatus) *model.Application {
	app := &model.Application{
		ID:          id,
		JobID:       jobID,
		ApplicantID: applicantID,
		Status:      status,
	}
	store.applications[id] = app
	if id > store.nextAppID {
		store.nextAppID = id
	}
	return app
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())

	seedPublishedJob(store, 1)
	seedApplication(store, 1, 1, 5, model.ApplicationStatusSubmitted)

	_, err := svc.UpdateStatus(context.Background(), hrActor(20, 1, 1), 1, "on_hold", "")
	if apperr.CodeOf(err) != apperr.CodeInvalidStatus {
		t.Fatalf("error code = %v, want invalid_status", apperr.CodeOf(err))
	}
}

func TestUpdateStatusProgression(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	svc := newTestApplicationService(store, now)
	ctx := context.Background()
	hr := hrActor(20, 1, 1)

	seedPublishedJob(store, 1)
	seedApplication(store, 1, 1, 5, model.ApplicationStatusSubmitted)

	app, err := svc.MoveToUnderReview(ctx, hr, 1)
	if err != nil {
		t.Fatalf("MoveToUnderReview: %v", err)
	}
	if app.Status != model.ApplicationStatusUnderReview {
		t.Fatalf("status = %s, want under_review", app.Status)
	}
	if app.StatusChangedByID == nil || *app.StatusChangedByID != 20 {
		t.Fatalf("StatusChangedByID = %v, want 20", app.StatusChangedByID)
	}

	app, err = svc.MoveToInterviewing(ctx, hr, 1)
	if err != nil {
		t.Fatalf("MoveToInterviewing: %v", err)
	}
	if !app.InterviewEmailSent {
		t.Fatal("InterviewEmailSent not flipped on interview")
	}

	if _, err := svc.MoveToShortlisted(ctx, hr, 1); err != nil {
		t.Fatalf("MoveToShortlisted: %v", err)
	}
}

func TestTerminalApplicationImmutable(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())
	ctx := context.Background()
	hr := hrActor(20, 1, 1)

	seedPublishedJob(store, 1)
	seedApplication(store, 1, 1, 5, model.ApplicationStatusRejected)

	_, err := svc.MoveToUnderReview(ctx, hr, 1)
	if apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("error code = %v, want invalid_transition", apperr.CodeOf(err))
	}

	_, err = svc.MarkSelected(ctx, hr, 1)
	if apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("select on rejected error code = %v, want invalid_transition", apperr.CodeOf(err))
	}
}

func TestJurisdictionOnStatusChange(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())
	ctx := context.Background()

	seedPublishedJob(store, 1)
	seedApplication(store, 1, 1, 5, model.ApplicationStatusSubmitted)

	// HR with no assignment over the job's college.
	_, err := svc.MoveToUnderReview(ctx, hrActor(20, 1, 99), 1)
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("error code = %v, want permission_denied", apperr.CodeOf(err))
	}

	// HOD may read but never mutate applications.
	_, err = svc.MoveToUnderReview(ctx, hodActor(10, 1, 1), 1)
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("hod error code = %v, want permission_denied", apperr.CodeOf(err))
	}

	// Applicants cannot drive the review workflow either.
	_, err = svc.MoveToUnderReview(ctx, applicantActor(50, 5), 1)
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("applicant error code = %v, want permission_denied", apperr.CodeOf(err))
	}
}

func TestMarkSelectedClosesJobInSameTransaction(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	svc := newTestApplicationService(store, now)

	seedPublishedJob(store, 1)
	seedApplication(store, 1, 1, 5, model.ApplicationStatusShortlisted)

	app, err := svc.MarkSelected(context.Background(), hrActor(20, 1, 1), 1)
	if err != nil {
		t.Fatalf("MarkSelected: %v", err)
	}
	if app.Status != model.ApplicationStatusSelected {
		t.Fatalf("application status = %s, want selected", app.Status)
	}
	if !app.SelectionEmailSent {
		t.Fatal("SelectionEmailSent not flipped")
	}

	job := store.jobs[1]
	if job.JobStatus != model.JobStatusClosed {
		t.Fatalf("job status = %s, want closed", job.JobStatus)
	}
	if job.SelectedApplicantID == nil || *job.SelectedApplicantID != 5 {
		t.Fatalf("SelectedApplicantID = %v, want 5", job.SelectedApplicantID)
	}
	if job.ClosedAt == nil || !job.ClosedAt.Equal(now) {
		t.Fatalf("ClosedAt = %v, want %v", job.ClosedAt, now)
	}

	// One audit entry for the whole cascade.
	if got := store.auditActions(); len(got) != 1 || got[0] != model.ActionSelection {
		t.Fatalf("audit actions = %v, want [selection]", got)
	}
}

func TestMarkSelectedRollsBackTogether(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())

	seedPublishedJob(store, 1)
	seedApplication(store, 1, 1, 5, model.ApplicationStatusShortlisted)
	store.failSaveJob = true

	_, err := svc.MarkSelected(context.Background(), hrActor(20, 1, 1), 1)
	if err == nil {
		t.Fatal("expected error when job close fails")
	}

	// Neither side of the cascade may be visible after the rollback.
	if store.applications[1].Status != model.ApplicationStatusShortlisted {
		t.Fatalf("application status = %s, want shortlisted after rollback", store.applications[1].Status)
	}
	if store.jobs[1].JobStatus != model.JobStatusPublished {
		t.Fatalf("job status = %s, want published after rollback", store.jobs[1].JobStatus)
	}
	if len(store.entries) != 0 {
		t.Fatalf("audit entries = %d, want 0 after rollback", len(store.entries))
	}
}

func TestSelectionBeatsDeadlineSweep(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	appSvc := newTestApplicationService(store, now)
	jobSvc := newTestJobService(store, now)
	ctx := context.Background()

	// Published job already past its deadline, with a shortlisted candidate.
	job := testJob(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	job.ID = 1
	job.JobStatus = model.JobStatusPublished
	store.jobs[1] = job
	seedApplication(store, 1, 1, 5, model.ApplicationStatusShortlisted)

	if _, err := appSvc.MarkSelected(ctx, hrActor(20, 1, 1), 1); err != nil {
		t.Fatalf("MarkSelected: %v", err)
	}

	closed, err := jobSvc.AutoCloseExpired(ctx)
	if err != nil {
		t.Fatalf("AutoCloseExpired: %v", err)
	}
	if closed != 0 {
		t.Fatalf("sweep closed = %d, want 0 (selection already closed the job)", closed)
	}
	if store.jobs[1].SelectedApplicantID == nil {
		t.Fatal("sweep must not clear the selected applicant")
	}
}

func TestMarkRejectedKeepsRemarks(t *testing.T) {
	store := newFakeStore()
	svc := newTestApplicationService(store, time.Now().UTC())

	seedPublishedJob(store, 1)
	seedApplication(store, 1, 1, 5, model.ApplicationStatusInterviewing)

	app, err := svc.UpdateStatus(context.Background(), hrActor(20, 1, 1), 1,
		model.ApplicationStatusRejected, "position filled internally")
	if err != nil {
		t.Fatalf("UpdateStatus(rejected): %v", err)
	}
	if app.Status != model.ApplicationStatusRejected {
		t.Fatalf("status = %s, want rejected", app.Status)
	}
	if app.Remarks != "position filled internally" {
		t.Fatalf("Remarks = %q", app.Remarks)
	}
	if !app.RejectionEmailSent {
		t.Fatal("RejectionEmailSent not flipped")
	}
	// The owning job stays open on rejection.
	if store.jobs[1].JobStatus != model.JobStatusPublished {
		t.Fatalf("job status = %s, want published", store.jobs[1].JobStatus)
	}
}

func TestFullHiringScenario(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	jobSvc := newTestJobService(store, now)
	appSvc := newTestApplicationService(store, now)
	ctx := context.Background()

	hod := hodActor(10, 1, 1)
	hr := hrActor(20, 1, 1)
	seedApplicant(store, 5)

	job, err := jobSvc.Create(ctx, hod, testJob(now.AddDate(0, 1, 0)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := jobSvc.SubmitForApproval(ctx, hod, job.ID); err != nil {
		t.Fatalf("SubmitForApproval: %v", err)
	}
	if _, err := jobSvc.ApproveAndPublish(ctx, hr, job.ID); err != nil {
		t.Fatalf("ApproveAndPublish: %v", err)
	}
	app, err := appSvc.Apply(ctx, applicantActor(50, 5), ApplyInput{JobID: job.ID})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := appSvc.MarkSelected(ctx, hr, app.ID); err != nil {
		t.Fatalf("MarkSelected: %v", err)
	}

	final := store.jobs[job.ID]
	if final.JobStatus != model.JobStatusClosed {
		t.Fatalf("final job status = %s, want closed", final.JobStatus)
	}
	if final.SelectedApplicantID == nil || *final.SelectedApplicantID != 5 {
		t.Fatalf("SelectedApplicantID = %v, want 5", final.SelectedApplicantID)
	}

	actions := store.auditActions()
	want := []model.Action{
		model.ActionCreate,
		model.ActionUpdate,
		model.ActionApprove,
		model.ActionApply,
		model.ActionSelection,
	}
	if len(actions) != len(want) {
		t.Fatalf("audit actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("audit actions = %v, want %v", actions, want)
		}
	}
}
