package lifecycle

import (
	"context"
	"testing"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/model"
	"recruitment-service/internal/policy"

	"go.uber.org/zap"
)

func uintPtr(v uint) *uint { return &v }

func hodActor(userID, institutionID uint, deptIDs ...uint) Actor {
	p := &policy.Principal{
		UserID:                userID,
		Role:                  model.RoleHOD,
		InstitutionID:         uintPtr(institutionID),
		AssignedCollegeIDs:    map[uint]bool{},
		AssignedDepartmentIDs: map[uint]bool{},
	}
	for _, id := range deptIDs {
		p.AssignedDepartmentIDs[id] = true
	}
	return Actor{Principal: p, IPAddress: "10.0.0.1"}
}

func hrActor(userID, institutionID uint, collegeIDs ...uint) Actor {
	p := &policy.Principal{
		UserID:                userID,
		Role:                  model.RoleHR,
		InstitutionID:         uintPtr(institutionID),
		AssignedCollegeIDs:    map[uint]bool{},
		AssignedDepartmentIDs: map[uint]bool{},
	}
	for _, id := range collegeIDs {
		p.AssignedCollegeIDs[id] = true
	}
	return Actor{Principal: p, IPAddress: "10.0.0.2"}
}

func adminActor(userID uint) Actor {
	return Actor{Principal: &policy.Principal{UserID: userID, Role: model.RoleSuperAdmin}}
}

func applicantActor(userID, applicantID uint) Actor {
	return Actor{Principal: &policy.Principal{
		UserID:      userID,
		Role:        model.RoleApplicant,
		ApplicantID: uintPtr(applicantID),
	}}
}

func testJob(lastDate time.Time) *model.Job {
	return &model.Job{
		Title:         "Assistant Professor",
		InstitutionID: 1,
		CollegeID:     1,
		DepartmentID:  uintPtr(1),
		JobType:       model.JobTypeFullTime,
		LastDate:      lastDate,
	}
}

func newTestJobService(store *fakeStore, now time.Time) *JobService {
	svc := NewJobService(store, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestJobWorkflowDraftToPublished(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestJobService(store, now)
	ctx := context.Background()

	hod := hodActor(10, 1, 1)
	job, err := svc.Create(ctx, hod, testJob(now.AddDate(0, 1, 0)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.JobStatus != model.JobStatusDraft {
		t.Fatalf("new job status = %s, want draft", job.JobStatus)
	}
	if job.CreatedByID == nil || *job.CreatedByID != 10 {
		t.Fatalf("CreatedByID = %v, want 10", job.CreatedByID)
	}

	job, err = svc.SubmitForApproval(ctx, hod, job.ID)
	if err != nil {
		t.Fatalf("SubmitForApproval: %v", err)
	}
	if job.JobStatus != model.JobStatusPendingApproval {
		t.Fatalf("status after submit = %s, want pending_approval", job.JobStatus)
	}

	hr := hrActor(20, 1, 1)
	job, err = svc.ApproveAndPublish(ctx, hr, job.ID)
	if err != nil {
		t.Fatalf("ApproveAndPublish: %v", err)
	}
	if job.JobStatus != model.JobStatusPublished {
		t.Fatalf("status after approve = %s, want published", job.JobStatus)
	}
	if job.ApprovedByID == nil || *job.ApprovedByID != 20 {
		t.Fatalf("ApprovedByID = %v, want 20", job.ApprovedByID)
	}
	if job.PublishedAt == nil || !job.PublishedAt.Equal(now) {
		t.Fatalf("PublishedAt = %v, want %v", job.PublishedAt, now)
	}

	actions := store.auditActions()
	want := []model.Action{model.ActionCreate, model.ActionUpdate, model.ActionApprove}
	if len(actions) != len(want) {
		t.Fatalf("audit actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("audit actions = %v, want %v", actions, want)
		}
	}
}

func TestCreateJobRequiresHOD(t *testing.T) {
	store := newFakeStore()
	svc := newTestJobService(store, time.Now())

	_, err := svc.Create(context.Background(), hrActor(20, 1, 1), testJob(time.Now().AddDate(0, 1, 0)))
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("error code = %v, want permission_denied", apperr.CodeOf(err))
	}
	if len(store.entries) != 0 {
		t.Fatalf("denied create must not write audit entries, got %d", len(store.entries))
	}
}

func TestSubmitRequiresDraft(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	svc := newTestJobService(store, now)

	job := testJob(now.AddDate(0, 1, 0))
	job.ID = 1
	job.JobStatus = model.JobStatusPublished
	job.CreatedByID = uintPtr(10)
	store.jobs[1] = job

	_, err := svc.SubmitForApproval(context.Background(), hodActor(10, 1, 1), 1)
	if apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("error code = %v, want invalid_transition", apperr.CodeOf(err))
	}
}

func TestApproveOutsideJurisdictionDenied(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	svc := newTestJobService(store, now)

	job := testJob(now.AddDate(0, 1, 0))
	job.ID = 1
	job.JobStatus = model.JobStatusPendingApproval
	job.CreatedByID = uintPtr(10)
	store.jobs[1] = job

	// HR assigned to a different college, same institution.
	_, err := svc.ApproveAndPublish(context.Background(), hrActor(20, 1, 99), 1)
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("error code = %v, want permission_denied", apperr.CodeOf(err))
	}

	// HOD may never approve, even the creator.
	_, err = svc.ApproveAndPublish(context.Background(), hodActor(10, 1, 1), 1)
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("hod approve error code = %v, want permission_denied", apperr.CodeOf(err))
	}
}

func TestArchiveOverride(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	svc := newTestJobService(store, now)
	ctx := context.Background()

	job := testJob(now.AddDate(0, 1, 0))
	job.ID = 1
	job.JobStatus = model.JobStatusPublished
	store.jobs[1] = job

	archived, err := svc.Archive(ctx, adminActor(1), 1)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.JobStatus != model.JobStatusArchived {
		t.Fatalf("status = %s, want archived", archived.JobStatus)
	}

	if _, err := svc.Archive(ctx, adminActor(1), 1); apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("double archive error code = %v, want invalid_transition", apperr.CodeOf(err))
	}

	if _, err := svc.Archive(ctx, hodActor(10, 1, 1), 1); apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("hod archive error code = %v, want permission_denied", apperr.CodeOf(err))
	}
}

func TestAutoCloseExpiredIdempotent(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestJobService(store, now)
	ctx := context.Background()

	expired := testJob(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	expired.ID = 1
	expired.JobStatus = model.JobStatusPublished
	store.jobs[1] = expired

	open := testJob(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	open.ID = 2
	open.JobStatus = model.JobStatusPublished
	store.jobs[2] = open

	withSelection := testJob(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	withSelection.ID = 3
	withSelection.JobStatus = model.JobStatusClosed
	withSelection.SelectedApplicantID = uintPtr(7)
	store.jobs[3] = withSelection

	closed, err := svc.AutoCloseExpired(ctx)
	if err != nil {
		t.Fatalf("AutoCloseExpired: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closed = %d, want 1", closed)
	}
	if store.jobs[1].JobStatus != model.JobStatusClosed {
		t.Fatalf("expired job status = %s, want closed", store.jobs[1].JobStatus)
	}
	if store.jobs[1].ClosedAt == nil {
		t.Fatal("ClosedAt not set on auto-closed job")
	}
	if store.jobs[2].JobStatus != model.JobStatusPublished {
		t.Fatalf("open job status = %s, want published", store.jobs[2].JobStatus)
	}

	// Second sweep finds nothing and writes nothing.
	closed, err = svc.AutoCloseExpired(ctx)
	if err != nil {
		t.Fatalf("second AutoCloseExpired: %v", err)
	}
	if closed != 0 {
		t.Fatalf("second sweep closed = %d, want 0", closed)
	}

	if len(store.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(store.entries))
	}
	if store.entries[0].ActorID != nil {
		t.Fatalf("sweep audit actor = %v, want nil (system)", store.entries[0].ActorID)
	}
}

func TestAutoCloseCountsOnlyCommittedCloses(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := newTestJobService(store, now)

	job := testJob(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	job.ID = 1
	job.JobStatus = model.JobStatusPublished
	store.jobs[1] = job
	store.failAudit = true

	// The audit write fails, so the transaction rolls back and the sweep
	// result must not include the job.
	closed, err := svc.AutoCloseExpired(context.Background())
	if err != nil {
		t.Fatalf("AutoCloseExpired: %v", err)
	}
	if closed != 0 {
		t.Fatalf("closed = %d, want 0 when the close did not commit", closed)
	}
	if store.jobs[1].JobStatus != model.JobStatusPublished {
		t.Fatalf("job status = %s, want published after rollback", store.jobs[1].JobStatus)
	}
	if len(store.entries) != 0 {
		t.Fatalf("audit entries = %d, want 0 after rollback", len(store.entries))
	}
}

func TestAutoCloseDeadlineIsCalendarDate(t *testing.T) {
	store := newFakeStore()
	// Deadline day itself: the job stays open until the day is over.
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	svc := newTestJobService(store, now)

	job := testJob(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	job.ID = 1
	job.JobStatus = model.JobStatusPublished
	store.jobs[1] = job

	closed, err := svc.AutoCloseExpired(context.Background())
	if err != nil {
		t.Fatalf("AutoCloseExpired: %v", err)
	}
	if closed != 0 {
		t.Fatalf("closed = %d, want 0 on the deadline day", closed)
	}
}
