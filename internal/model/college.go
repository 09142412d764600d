package model

import (
	"time"

	"gorm.io/gorm"
)

// College belongs to one institution. Its code is unique within the
// institution, not globally.
type College struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Name          string       `json:"college_name" gorm:"column:college_name;type:varchar(255);not null"`
	Code          string       `json:"college_code" gorm:"column:college_code;type:varchar(50);uniqueIndex:idx_colleges_code_institution"`
	InstitutionID uint         `json:"institution_id" gorm:"not null;index;uniqueIndex:idx_colleges_code_institution"`
	Status        EntityStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`

	CreatedByID *uint `json:"created_by,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Institution Institution `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
}
