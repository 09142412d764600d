package lifecycle

import (
	"context"
	"errors"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/audit"
	"recruitment-service/internal/model"
)

// fakeStore is an in-memory Store. Transact runs callbacks against a deep
// copy and publishes the copy only on success, mirroring the rollback
// behavior of the real transaction.
type fakeStore struct {
	jobs         map[uint]*model.Job
	applications map[uint]*model.Application
	applicants   map[uint]*model.Applicant
	entries      []audit.Entry

	nextJobID uint
	nextAppID uint

	failSaveJob bool
	failAudit   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:         make(map[uint]*model.Job),
		applications: make(map[uint]*model.Application),
		applicants:   make(map[uint]*model.Applicant),
	}
}

func (f *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for id, job := range f.jobs {
		j := *job
		c.jobs[id] = &j
	}
	for id, app := range f.applications {
		a := *app
		c.applications[id] = &a
	}
	for id, applicant := range f.applicants {
		a := *applicant
		c.applicants[id] = &a
	}
	c.entries = append(c.entries, f.entries...)
	c.nextJobID = f.nextJobID
	c.nextAppID = f.nextAppID
	c.failSaveJob = f.failSaveJob
	c.failAudit = f.failAudit
	return c
}

func (f *fakeStore) adopt(tx *fakeStore) {
	f.jobs = tx.jobs
	f.applications = tx.applications
	f.applicants = tx.applicants
	f.entries = tx.entries
	f.nextJobID = tx.nextJobID
	f.nextAppID = tx.nextAppID
}

func (f *fakeStore) GetJob(_ context.Context, id uint) (*model.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, apperr.NotFound("job")
	}
	j := *job
	return &j, nil
}

func (f *fakeStore) SaveJob(_ context.Context, job *model.Job) error {
	if f.failSaveJob {
		return errors.New("save job failed")
	}
	if job.ID == 0 {
		f.nextJobID++
		job.ID = f.nextJobID
	}
	j := *job
	f.jobs[job.ID] = &j
	return nil
}

func (f *fakeStore) ExpiredPublishedJobs(_ context.Context, now time.Time) ([]model.Job, error) {
	var out []model.Job
	for _, job := range f.jobs {
		if job.JobStatus == model.JobStatusPublished && job.DeadlinePassed(now) && job.SelectedApplicantID == nil {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeStore) GetApplication(_ context.Context, id uint) (*model.Application, error) {
	app, ok := f.applications[id]
	if !ok {
		return nil, apperr.NotFound("application")
	}
	a := *app
	return &a, nil
}

func (f *fakeStore) CreateApplication(_ context.Context, app *model.Application) error {
	for _, existing := range f.applications {
		if existing.JobID == app.JobID && existing.ApplicantID == app.ApplicantID {
			return apperr.DuplicateApplication()
		}
	}
	f.nextAppID++
	app.ID = f.nextAppID
	a := *app
	f.applications[app.ID] = &a
	return nil
}

func (f *fakeStore) SaveApplication(_ context.Context, app *model.Application) error {
	a := *app
	f.applications[app.ID] = &a
	return nil
}

func (f *fakeStore) ApplicationExists(_ context.Context, jobID, applicantID uint) (bool, error) {
	for _, app := range f.applications {
		if app.JobID == jobID && app.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetApplicant(_ context.Context, id uint) (*model.Applicant, error) {
	applicant, ok := f.applicants[id]
	if !ok {
		return nil, apperr.NotFound("applicant")
	}
	a := *applicant
	return &a, nil
}

func (f *fakeStore) Audit() audit.Recorder {
	return fakeRecorder{store: f}
}

func (f *fakeStore) Transact(_ context.Context, fn func(Store) error) error {
	tx := f.clone()
	if err := fn(tx); err != nil {
		return err
	}
	f.adopt(tx)
	return nil
}

type fakeRecorder struct {
	store *fakeStore
}

func (r fakeRecorder) Record(_ context.Context, entry audit.Entry) error {
	if r.store.failAudit {
		return errors.New("audit write failed")
	}
	r.store.entries = append(r.store.entries, entry)
	return nil
}

// auditActions lists recorded actions in order.
func (f *fakeStore) auditActions() []model.Action {
	out := make([]model.Action, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}
