// Package policy decides whether a principal may view or mutate a target
// entity. Decisions are pure functions of role and jurisdiction; callers
// load the principal once per request and pass entity values in.
package policy

import "recruitment-service/internal/model"

// Principal is the authenticated (or anonymous) actor behind a request.
// A nil Principal means an unauthenticated caller.
type Principal struct {
	UserID        uint
	Role          model.Role
	InstitutionID *uint
	ApplicantID   *uint

	// Jurisdiction for hr/hod roles.
	AssignedCollegeIDs    map[uint]bool
	AssignedDepartmentIDs map[uint]bool
}

func (p *Principal) sameInstitution(institutionID uint) bool {
	return p.InstitutionID != nil && *p.InstitutionID == institutionID
}

func (p *Principal) assignedToCollege(collegeID uint) bool {
	return p.AssignedCollegeIDs[collegeID]
}

func (p *Principal) assignedToDepartment(departmentID *uint) bool {
	return departmentID != nil && p.AssignedDepartmentIDs[*departmentID]
}

// inJurisdiction reports whether a job's college or department falls inside
// the principal's hr/hod assignments.
func (p *Principal) inJurisdiction(job *model.Job) bool {
	return p.assignedToCollege(job.CollegeID) || p.assignedToDepartment(job.DepartmentID)
}

// CanAccessInstitution reports whether p may read or mutate the institution.
func CanAccessInstitution(p *Principal, inst *model.Institution) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleInstitutionAdmin, model.RoleHR, model.RoleHOD:
		return p.sameInstitution(inst.ID)
	case model.RoleApplicant:
		return false
	}
	return false
}

// CanAccessCollege reports whether p may read or mutate the college.
func CanAccessCollege(p *Principal, college *model.College) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleInstitutionAdmin:
		return p.sameInstitution(college.InstitutionID)
	case model.RoleHR, model.RoleHOD:
		return p.assignedToCollege(college.ID)
	case model.RoleApplicant:
		return false
	}
	return false
}

// CanAccessDepartment reports whether p may read or mutate the department.
// HR/HOD reach a department either directly or through its parent college.
func CanAccessDepartment(p *Principal, dept *model.Department) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleInstitutionAdmin:
		return p.sameInstitution(dept.InstitutionID)
	case model.RoleHR, model.RoleHOD:
		return p.AssignedDepartmentIDs[dept.ID] || p.assignedToCollege(dept.CollegeID)
	case model.RoleApplicant:
		return false
	}
	return false
}

// CanViewJob reports whether p may read the job. Anonymous callers and
// applicants see published jobs only.
func CanViewJob(p *Principal, job *model.Job) bool {
	if p == nil {
		return job.JobStatus == model.JobStatusPublished
	}
	switch p.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleInstitutionAdmin:
		return p.sameInstitution(job.InstitutionID)
	case model.RoleHR:
		return p.inJurisdiction(job) || isCreator(p, job)
	case model.RoleHOD:
		return isCreator(p, job) || p.assignedToDepartment(job.DepartmentID)
	case model.RoleApplicant:
		return job.JobStatus == model.JobStatusPublished
	}
	return false
}

// CanManageJob reports whether p may mutate the job or drive its workflow.
func CanManageJob(p *Principal, job *model.Job) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleInstitutionAdmin:
		return p.sameInstitution(job.InstitutionID)
	case model.RoleHR:
		return p.inJurisdiction(job) || isCreator(p, job)
	case model.RoleHOD:
		return isCreator(p, job)
	case model.RoleApplicant:
		return false
	}
	return false
}

// CanCreateJob reports whether p may create a job posting.
func CanCreateJob(p *Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin, model.RoleHOD:
		return true
	case model.RoleInstitutionAdmin, model.RoleHR, model.RoleApplicant:
		return false
	}
	return false
}

// CanApproveJob reports whether p may approve and publish a pending job.
func CanApproveJob(p *Principal, job *model.Job) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleInstitutionAdmin:
		return p.sameInstitution(job.InstitutionID)
	case model.RoleHR:
		return p.inJurisdiction(job)
	case model.RoleHOD, model.RoleApplicant:
		return false
	}
	return false
}

// CanViewApplication reports whether p may read the application. The job is
// the application's owning job; HODs get read access to applications for
// jobs they created.
func CanViewApplication(p *Principal, app *model.Application, job *model.Job) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleInstitutionAdmin:
		return p.sameInstitution(job.InstitutionID)
	case model.RoleHR:
		return p.inJurisdiction(job) || isCreator(p, job)
	case model.RoleHOD:
		return isCreator(p, job)
	case model.RoleApplicant:
		return p.ApplicantID != nil && *p.ApplicantID == app.ApplicantID
	}
	return false
}

// CanManageApplication reports whether p may change the application's
// status. Applicants never mutate their applications after submission.
func CanManageApplication(p *Principal, app *model.Application, job *model.Job) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleInstitutionAdmin:
		return p.sameInstitution(job.InstitutionID)
	case model.RoleHR:
		return p.inJurisdiction(job) || isCreator(p, job)
	case model.RoleHOD, model.RoleApplicant:
		return false
	}
	return false
}

// CanApply reports whether p may submit a new application.
func CanApply(p *Principal) bool {
	return p != nil && p.Role == model.RoleApplicant && p.ApplicantID != nil
}

// CanManageUsers reports whether p administers user accounts.
func CanManageUsers(p *Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin, model.RoleInstitutionAdmin:
		return true
	case model.RoleHR, model.RoleHOD, model.RoleApplicant:
		return false
	}
	return false
}

func isCreator(p *Principal, job *model.Job) bool {
	return job.CreatedByID != nil && *job.CreatedByID == p.UserID
}
