package policy

import (
	"testing"

	"recruitment-service/internal/model"
)

func uintPtr(v uint) *uint { return &v }

func principal(role model.Role, institutionID uint) *Principal {
	return &Principal{
		UserID:                1,
		Role:                  role,
		InstitutionID:         uintPtr(institutionID),
		AssignedCollegeIDs:    map[uint]bool{},
		AssignedDepartmentIDs: map[uint]bool{},
	}
}

func TestCanAccessInstitution(t *testing.T) {
	inst := &model.Institution{ID: 1}

	tests := []struct {
		name string
		p    *Principal
		want bool
	}{
		{"anonymous", nil, false},
		{"super admin", principal(model.RoleSuperAdmin, 0), true},
		{"own institution admin", principal(model.RoleInstitutionAdmin, 1), true},
		{"other institution admin", principal(model.RoleInstitutionAdmin, 2), false},
		{"hr same institution", principal(model.RoleHR, 1), true},
		{"applicant", principal(model.RoleApplicant, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessInstitution(tt.p, inst); got != tt.want {
				t.Errorf("CanAccessInstitution = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanAccessCollege(t *testing.T) {
	college := &model.College{ID: 3, InstitutionID: 1}

	assigned := principal(model.RoleHR, 1)
	assigned.AssignedCollegeIDs[3] = true

	tests := []struct {
		name string
		p    *Principal
		want bool
	}{
		{"super admin", principal(model.RoleSuperAdmin, 0), true},
		{"institution admin same institution", principal(model.RoleInstitutionAdmin, 1), true},
		{"institution admin other institution", principal(model.RoleInstitutionAdmin, 2), false},
		{"hr assigned", assigned, true},
		{"hr unassigned", principal(model.RoleHR, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessCollege(tt.p, college); got != tt.want {
				t.Errorf("CanAccessCollege = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanAccessDepartmentThroughCollege(t *testing.T) {
	dept := &model.Department{ID: 7, CollegeID: 3, InstitutionID: 1}

	viaCollege := principal(model.RoleHOD, 1)
	viaCollege.AssignedCollegeIDs[3] = true

	direct := principal(model.RoleHOD, 1)
	direct.AssignedDepartmentIDs[7] = true

	if !CanAccessDepartment(viaCollege, dept) {
		t.Error("assignment to the parent college must grant department access")
	}
	if !CanAccessDepartment(direct, dept) {
		t.Error("direct department assignment must grant access")
	}
	if CanAccessDepartment(principal(model.RoleHOD, 1), dept) {
		t.Error("unassigned hod must be denied")
	}
}

func TestCanViewJobVisibility(t *testing.T) {
	published := &model.Job{ID: 1, InstitutionID: 1, CollegeID: 3, JobStatus: model.JobStatusPublished}
	draft := &model.Job{ID: 2, InstitutionID: 1, CollegeID: 3, JobStatus: model.JobStatusDraft, CreatedByID: uintPtr(9)}

	if !CanViewJob(nil, published) {
		t.Error("anonymous callers must see published jobs")
	}
	if CanViewJob(nil, draft) {
		t.Error("anonymous callers must not see drafts")
	}

	applicant := principal(model.RoleApplicant, 0)
	if !CanViewJob(applicant, published) || CanViewJob(applicant, draft) {
		t.Error("applicants see published jobs only")
	}

	creator := principal(model.RoleHOD, 1)
	creator.UserID = 9
	if !CanViewJob(creator, draft) {
		t.Error("creator must see their own draft")
	}
	otherHOD := principal(model.RoleHOD, 1)
	otherHOD.UserID = 8
	if CanViewJob(otherHOD, draft) {
		t.Error("unrelated hod must not see the draft")
	}
}

func TestCanCreateAndApproveAreDistinct(t *testing.T) {
	job := &model.Job{ID: 1, InstitutionID: 1, CollegeID: 3}

	hod := principal(model.RoleHOD, 1)
	hr := principal(model.RoleHR, 1)
	hr.AssignedCollegeIDs[3] = true

	if !CanCreateJob(hod) {
		t.Error("hod must be able to create jobs")
	}
	if CanCreateJob(hr) {
		t.Error("hr must not create jobs")
	}
	if !CanApproveJob(hr, job) {
		t.Error("hr in jurisdiction must approve")
	}
	if CanApproveJob(hod, job) {
		t.Error("hod must never approve")
	}
}

func TestCanManageApplication(t *testing.T) {
	job := &model.Job{ID: 1, InstitutionID: 1, CollegeID: 3, CreatedByID: uintPtr(9)}
	app := &model.Application{ID: 1, JobID: 1, ApplicantID: 5}

	hr := principal(model.RoleHR, 1)
	hr.AssignedCollegeIDs[3] = true
	if !CanManageApplication(hr, app, job) {
		t.Error("hr in jurisdiction must manage applications")
	}

	outsideHR := principal(model.RoleHR, 1)
	if CanManageApplication(outsideHR, app, job) {
		t.Error("hr outside jurisdiction must be denied")
	}

	creator := principal(model.RoleHOD, 1)
	creator.UserID = 9
	if CanManageApplication(creator, app, job) {
		t.Error("hod must not change application status")
	}
	if !CanViewApplication(creator, app, job) {
		t.Error("hod creator must still read applications for their job")
	}

	owner := principal(model.RoleApplicant, 0)
	owner.ApplicantID = uintPtr(5)
	if CanManageApplication(owner, app, job) {
		t.Error("applicants must not mutate applications")
	}
	if !CanViewApplication(owner, app, job) {
		t.Error("applicants must read their own application")
	}
	stranger := principal(model.RoleApplicant, 0)
	stranger.ApplicantID = uintPtr(6)
	if CanViewApplication(stranger, app, job) {
		t.Error("applicants must not read other applications")
	}
}

func TestCanApply(t *testing.T) {
	withProfile := principal(model.RoleApplicant, 0)
	withProfile.ApplicantID = uintPtr(5)
	if !CanApply(withProfile) {
		t.Error("applicant with a profile must be able to apply")
	}
	if CanApply(principal(model.RoleApplicant, 0)) {
		t.Error("applicant without a linked profile must be denied")
	}
	if CanApply(principal(model.RoleHR, 1)) {
		t.Error("staff roles must not apply")
	}
	if CanApply(nil) {
		t.Error("anonymous callers must not apply")
	}
}
