package model

import (
	"time"

	"gorm.io/gorm"
)

// JobStatus is the job posting workflow state.
type JobStatus string

const (
	JobStatusDraft           JobStatus = "draft"
	JobStatusPendingApproval JobStatus = "pending_approval"
	JobStatusPublished       JobStatus = "published"
	JobStatusClosed          JobStatus = "closed"
	JobStatusArchived        JobStatus = "archived"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusDraft, JobStatusPendingApproval, JobStatusPublished, JobStatusClosed, JobStatusArchived:
		return true
	}
	return false
}

// Terminal reports whether no further workflow transition is expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusClosed || s == JobStatusArchived
}

// JobType is the employment type of a posting.
type JobType string

const (
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship:
		return true
	}
	return false
}

// JobPriority orders postings for review.
type JobPriority string

const (
	JobPriorityLow    JobPriority = "low"
	JobPriorityMedium JobPriority = "medium"
	JobPriorityHigh   JobPriority = "high"
	JobPriorityUrgent JobPriority = "urgent"
)

func (p JobPriority) Valid() bool {
	switch p {
	case JobPriorityLow, JobPriorityMedium, JobPriorityHigh, JobPriorityUrgent:
		return true
	}
	return false
}

// Job is a posting created by an HOD and approved/published by HR.
// PublishedAt and ClosedAt are set exactly once when the posting enters the
// corresponding state.
type Job struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"job_title" gorm:"column:job_title;type:varchar(255);not null"`
	Description string `json:"job_description" gorm:"column:job_description;type:text"`

	InstitutionID uint  `json:"institution_id" gorm:"not null;index:idx_jobs_institution_college"`
	CollegeID     uint  `json:"college_id" gorm:"not null;index:idx_jobs_institution_college"`
	DepartmentID  *uint `json:"department_id,omitempty" gorm:"index"`

	JobType            JobType `json:"job_type" gorm:"type:varchar(20);not null"`
	ExperienceRequired string  `json:"experience_required" gorm:"type:varchar(255)"`
	Qualification      string  `json:"qualification" gorm:"type:varchar(255)"`
	LastDate           time.Time `json:"last_date" gorm:"type:date;not null;index:idx_jobs_status_last_date"`
	SalaryRange        string  `json:"salary_range,omitempty" gorm:"type:varchar(255)"`

	JobStatus JobStatus   `json:"job_status" gorm:"type:varchar(30);not null;default:'draft';index:idx_jobs_status_last_date"`
	Priority  JobPriority `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`

	CreatedByID         *uint `json:"created_by,omitempty" gorm:"index"`
	ApprovedByID        *uint `json:"approved_by,omitempty"`
	SelectedApplicantID *uint `json:"selected_applicant,omitempty"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Institution       Institution `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
	College           College     `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
	Department        *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	SelectedApplicant *Applicant  `json:"selected_applicant_detail,omitempty" gorm:"foreignKey:SelectedApplicantID"`
}

// DeadlinePassed reports whether the application deadline is behind now.
// Comparison is by calendar date, matching how LastDate is stored.
func (j *Job) DeadlinePassed(now time.Time) bool {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ly, lm, ld := j.LastDate.UTC().Date()
	last := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	return today.After(last)
}
