package model

import "time"

// Education is a child record of Applicant with no lifecycle of its own.
type Education struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	ApplicantID     uint    `json:"applicant_id" gorm:"not null;index"`
	Qualification   string  `json:"qualification" gorm:"type:varchar(255);not null"`
	Specialization  string  `json:"specialization,omitempty" gorm:"type:varchar(255)"`
	InstitutionName string  `json:"institution_name" gorm:"type:varchar(255);not null"`
	YearOfPassing   int     `json:"year_of_passing"`
	Percentage      float64 `json:"percentage" gorm:"type:decimal(5,2)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
