package model

import (
	"time"

	"gorm.io/gorm"
)

// HRAssignment grants an hr/hod user jurisdiction over one institution,
// optionally narrowed to a specific college or department. A user holds at
// most one assignment per institution.
type HRAssignment struct {
	ID            uint  `json:"id" gorm:"primaryKey"`
	HRUserID      uint  `json:"hr_user_id" gorm:"not null;uniqueIndex:idx_hr_assignments_user_institution"`
	InstitutionID uint  `json:"institution_id" gorm:"not null;uniqueIndex:idx_hr_assignments_user_institution"`
	CollegeID     *uint `json:"college_id,omitempty" gorm:"index"`
	DepartmentID  *uint `json:"department_id,omitempty" gorm:"index"`

	AssignedByID *uint `json:"assigned_by,omitempty"`

	AssignedAt time.Time      `json:"assigned_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	HRUser      User         `json:"hr_user,omitempty" gorm:"foreignKey:HRUserID"`
	Institution Institution  `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
	College     *College     `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
	Department  *Department  `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
}
