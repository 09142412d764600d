// Package audit appends rows to the activity log. Entries are written inside
// the caller's transaction; a failed write fails the whole operation, since
// audit completeness is treated as a correctness property.
package audit

import (
	"context"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/model"

	"gorm.io/gorm"
)

// Entry describes one state-changing action. ActorID is nil for system
// actions such as the deadline sweep.
type Entry struct {
	ActorID     *uint
	Action      model.Action
	EntityKind  model.EntityKind
	EntityID    *uint
	Description string
	IPAddress   string
	UserAgent   string
}

// Recorder is the append-only audit sink.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// GormRecorder writes audit rows through a gorm handle. Pass a transaction
// handle to make the audit row atomic with the triggering change.
type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) Record(ctx context.Context, entry Entry) error {
	row := model.ActivityLog{
		UserID:      entry.ActorID,
		Action:      entry.Action,
		Description: entry.Description,
		EntityKind:  entry.EntityKind,
		EntityID:    entry.EntityID,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to record activity", err)
	}
	return nil
}
