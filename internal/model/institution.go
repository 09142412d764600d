package model

import (
	"time"

	"gorm.io/gorm"
)

// EntityStatus is the shared active/inactive flag on organisational records.
type EntityStatus string

const (
	EntityStatusActive   EntityStatus = "active"
	EntityStatusInactive EntityStatus = "inactive"
)

func (s EntityStatus) Valid() bool {
	return s == EntityStatusActive || s == EntityStatusInactive
}

// Institution is the top-level tenant of the system. It owns colleges,
// departments and jobs.
type Institution struct {
	ID      uint         `json:"id" gorm:"primaryKey"`
	Name    string       `json:"institution_name" gorm:"column:institution_name;type:varchar(255);not null"`
	Code    string       `json:"institution_code" gorm:"column:institution_code;type:varchar(50);uniqueIndex"`
	Email   string       `json:"institution_email" gorm:"column:institution_email;type:varchar(100)"`
	Phone   string       `json:"institution_phone" gorm:"column:institution_phone;type:varchar(15)"`
	Address string       `json:"address" gorm:"type:text"`
	Status  EntityStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`

	CreatedByID *uint `json:"created_by,omitempty" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
