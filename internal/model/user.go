package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of roles a user account can hold.
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleInstitutionAdmin Role = "institution_admin"
	RoleHR               Role = "hr"
	RoleHOD              Role = "hod"
	RoleApplicant        Role = "applicant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleInstitutionAdmin, RoleHR, RoleHOD, RoleApplicant:
		return true
	}
	return false
}

// UserStatus is the account lifecycle flag. Accounts are soft-retired, never
// hard-deleted.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusArchived UserStatus = "archived"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusArchived:
		return true
	}
	return false
}

// User represents an authentication identity with a role. Applicant profile
// data lives on the Applicant model, linked back here by UserID.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"type:varchar(150);uniqueIndex"`
	Email    string `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password string `json:"-" gorm:"type:varchar(255)"`
	Phone    string `json:"phone,omitempty" gorm:"type:varchar(15)"`

	Role          Role       `json:"role" gorm:"type:varchar(30);not null;default:'applicant';index:idx_users_role_status"`
	InstitutionID *uint      `json:"institution_id,omitempty" gorm:"index"`
	Status        UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index:idx_users_role_status"`

	// Jurisdiction for hr/hod roles.
	AssignedColleges    []College    `json:"assigned_colleges,omitempty" gorm:"many2many:user_assigned_colleges"`
	AssignedDepartments []Department `json:"assigned_departments,omitempty" gorm:"many2many:user_assigned_departments"`

	LastLoginIP    string     `json:"last_login_ip,omitempty" gorm:"type:varchar(50)"`
	LastAction     string     `json:"last_action,omitempty" gorm:"type:varchar(255)"`
	LastActionTime *time.Time `json:"last_action_time,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Institution *Institution `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
}
