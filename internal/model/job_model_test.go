package model

import (
	"testing"
	"time"
)

func TestDeadlinePassedComparesCalendarDates(t *testing.T) {
	job := &Job{LastDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"day before", time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC), false},
		{"deadline day morning", time.Date(2026, 3, 1, 0, 1, 0, 0, time.UTC), false},
		{"deadline day evening", time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC), false},
		{"day after", time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := job.DeadlinePassed(tt.now); got != tt.want {
				t.Errorf("DeadlinePassed(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestTerminalStates(t *testing.T) {
	if !JobStatusClosed.Terminal() || !JobStatusArchived.Terminal() {
		t.Error("closed and archived are terminal job states")
	}
	if JobStatusPublished.Terminal() || JobStatusDraft.Terminal() {
		t.Error("draft and published are not terminal")
	}
	if !ApplicationStatusSelected.Terminal() || !ApplicationStatusRejected.Terminal() {
		t.Error("selected and rejected are terminal application states")
	}
	if ApplicationStatusShortlisted.Terminal() {
		t.Error("shortlisted is not terminal")
	}
}

func TestEnumValidity(t *testing.T) {
	if Role("manager").Valid() {
		t.Error("unknown role must be invalid")
	}
	if !RoleHOD.Valid() {
		t.Error("hod is a known role")
	}
	if JobStatus("open").Valid() {
		t.Error("unknown job status must be invalid")
	}
	if ApplicationStatus("on_hold").Valid() {
		t.Error("unknown application status must be invalid")
	}
	if !JobTypeInternship.Valid() || JobType("seasonal").Valid() {
		t.Error("job type validity mismatch")
	}
}
