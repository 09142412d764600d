// Package lifecycle implements the job and application state machines.
// Every transition runs inside one store transaction together with its
// audit entry: the policy check authorizes, the controller validates the
// edge, the store persists, the recorder appends.
package lifecycle

import (
	"context"
	"time"

	"recruitment-service/internal/audit"
	"recruitment-service/internal/model"
	"recruitment-service/internal/policy"
)

// Store abstracts the persistence the lifecycle controllers need. The gorm
// implementation lives in internal/store; tests use in-memory fakes.
type Store interface {
	GetJob(ctx context.Context, id uint) (*model.Job, error)
	SaveJob(ctx context.Context, job *model.Job) error
	// ExpiredPublishedJobs returns published jobs whose deadline is before
	// today and that have no selected applicant.
	ExpiredPublishedJobs(ctx context.Context, now time.Time) ([]model.Job, error)

	GetApplication(ctx context.Context, id uint) (*model.Application, error)
	CreateApplication(ctx context.Context, app *model.Application) error
	SaveApplication(ctx context.Context, app *model.Application) error
	ApplicationExists(ctx context.Context, jobID, applicantID uint) (bool, error)

	GetApplicant(ctx context.Context, id uint) (*model.Applicant, error)

	Audit() audit.Recorder

	// Transact runs fn against a transactional view of the store. All writes
	// inside fn commit or roll back together.
	Transact(ctx context.Context, fn func(Store) error) error
}

// Actor is the principal driving a transition plus the request metadata
// recorded in the audit trail. The zero value is the system actor.
type Actor struct {
	Principal *policy.Principal
	IPAddress string
	UserAgent string
}

// System is the actor used for unattended transitions such as the
// deadline sweep.
var System = Actor{}

func (a Actor) userID() *uint {
	if a.Principal == nil {
		return nil
	}
	id := a.Principal.UserID
	return &id
}

func (a Actor) entry(action model.Action, kind model.EntityKind, id uint, description string) audit.Entry {
	return audit.Entry{
		ActorID:     a.userID(),
		Action:      action,
		EntityKind:  kind,
		EntityID:    &id,
		Description: description,
		IPAddress:   a.IPAddress,
		UserAgent:   a.UserAgent,
	}
}
