package model

import (
	"time"

	"gorm.io/gorm"
)

// ApplicationStatus is the review workflow state of an application.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted    ApplicationStatus = "submitted"
	ApplicationStatusUnderReview  ApplicationStatus = "under_review"
	ApplicationStatusInterviewing ApplicationStatus = "interviewing"
	ApplicationStatusShortlisted  ApplicationStatus = "shortlisted"
	ApplicationStatusSelected     ApplicationStatus = "selected"
	ApplicationStatusRejected     ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusSubmitted, ApplicationStatusUnderReview, ApplicationStatusInterviewing,
		ApplicationStatusShortlisted, ApplicationStatusSelected, ApplicationStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the application reached a final state.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationStatusSelected || s == ApplicationStatusRejected
}

// Application links one job and one applicant; the pair is unique. Contact
// fields are snapshotted at submission time so later profile edits do not
// rewrite history.
type Application struct {
	ID          uint `json:"id" gorm:"primaryKey"`
	JobID       uint `json:"job_id" gorm:"not null;uniqueIndex:idx_applications_job_applicant;index:idx_applications_job_status"`
	ApplicantID uint `json:"applicant_id" gorm:"not null;uniqueIndex:idx_applications_job_applicant"`

	ApplicantName  string `json:"applicant_name" gorm:"type:varchar(255);not null"`
	ApplicantEmail string `json:"applicant_email" gorm:"type:varchar(100);not null"`
	ApplicantPhone string `json:"applicant_phone" gorm:"type:varchar(15)"`
	ResumeURL      string `json:"resume_url,omitempty" gorm:"type:varchar(500)"`
	CoverLetter    string `json:"cover_letter,omitempty" gorm:"type:text"`

	Status            ApplicationStatus `json:"status" gorm:"type:varchar(30);not null;default:'submitted';index:idx_applications_job_status"`
	StatusChangedAt   *time.Time        `json:"status_changed_at,omitempty"`
	StatusChangedByID *uint             `json:"status_changed_by,omitempty"`

	Remarks string `json:"remarks,omitempty" gorm:"type:text"`

	AppliedDate time.Time `json:"applied_date" gorm:"autoCreateTime;index"`

	// Notification flags consumed by the external mailer; each flips to true
	// exactly once when the matching state is entered.
	SubmissionEmailSent bool `json:"submission_email_sent" gorm:"default:false"`
	InterviewEmailSent  bool `json:"interview_email_sent" gorm:"default:false"`
	RejectionEmailSent  bool `json:"rejection_email_sent" gorm:"default:false"`
	SelectionEmailSent  bool `json:"selection_email_sent" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Job       Job       `json:"job,omitempty" gorm:"foreignKey:JobID"`
	Applicant Applicant `json:"applicant,omitempty" gorm:"foreignKey:ApplicantID"`
}
