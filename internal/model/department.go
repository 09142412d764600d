package model

import (
	"time"

	"gorm.io/gorm"
)

// Department belongs to one college. The institution FK is denormalized so
// institution-scoped queries skip a join.
type Department struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Name          string       `json:"department_name" gorm:"column:department_name;type:varchar(255);not null"`
	Code          string       `json:"department_code" gorm:"column:department_code;type:varchar(50);uniqueIndex:idx_departments_code_college"`
	CollegeID     uint         `json:"college_id" gorm:"not null;index;uniqueIndex:idx_departments_code_college"`
	InstitutionID uint         `json:"institution_id" gorm:"not null;index"`
	Status        EntityStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`

	CreatedByID *uint `json:"created_by,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	College     College     `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
	Institution Institution `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
}
