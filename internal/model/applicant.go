package model

import (
	"time"

	"gorm.io/gorm"
)

// Gender choices for applicant profiles.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Applicant is the canonical public-facing profile. The login identity is a
// separate User row (role applicant) referenced by UserID.
type Applicant struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	UserID       *uint  `json:"user_id,omitempty" gorm:"uniqueIndex"`
	FullName     string `json:"full_name" gorm:"type:varchar(255);not null"`
	Email        string `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	MobileNumber string `json:"mobile_number" gorm:"type:varchar(15)"`

	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Gender          Gender     `json:"gender,omitempty" gorm:"type:varchar(10)"`
	CurrentLocation string     `json:"current_location,omitempty" gorm:"type:varchar(255)"`
	ResumeURL       string     `json:"resume_url,omitempty" gorm:"type:varchar(500)"`

	ProfileCompletionPercentage int `json:"profile_completion_percentage" gorm:"default:0"`

	// Highest-qualification summary; full history lives in Education rows.
	EducationQualification    string   `json:"education_qualification,omitempty" gorm:"type:varchar(255)"`
	EducationSpecialization   string   `json:"education_specialization,omitempty" gorm:"type:varchar(255)"`
	EducationInstitutionName  string   `json:"education_institution_name,omitempty" gorm:"type:varchar(255)"`
	EducationYearOfPassing    *int     `json:"education_year_of_passing,omitempty"`
	EducationPercentage       *float64 `json:"education_percentage,omitempty" gorm:"type:decimal(5,2)"`

	// Latest-experience summary; full history lives in Experience rows.
	ExperienceOrganizationName string     `json:"experience_organization_name,omitempty" gorm:"type:varchar(255)"`
	ExperienceDesignation      string     `json:"experience_designation,omitempty" gorm:"type:varchar(255)"`
	ExperienceStartDate        *time.Time `json:"experience_start_date,omitempty"`
	ExperienceEndDate          *time.Time `json:"experience_end_date,omitempty"`
	ExperienceIsCurrent        bool       `json:"experience_is_current" gorm:"default:false"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Education  []Education  `json:"education,omitempty" gorm:"foreignKey:ApplicantID"`
	Experience []Experience `json:"experience,omitempty" gorm:"foreignKey:ApplicantID"`
}
