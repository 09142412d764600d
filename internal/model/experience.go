package model

import "time"

// Experience is a child record of Applicant with no lifecycle of its own.
type Experience struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	ApplicantID      uint       `json:"applicant_id" gorm:"not null;index"`
	OrganizationName string     `json:"organization_name" gorm:"type:varchar(255);not null"`
	Designation      string     `json:"designation" gorm:"type:varchar(255);not null"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	IsCurrent        bool       `json:"is_current" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
