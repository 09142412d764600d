package model

import "time"

// Action is the audit action kind.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionArchive      Action = "archive"
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionLogin        Action = "login"
	ActionLogout       Action = "logout"
	ActionApply        Action = "apply"
	ActionStatusChange Action = "status_change"
	ActionSelection    Action = "selection"
)

// EntityKind names the entity an audit row refers to. It replaces numeric
// content-type identifiers with a stable symbolic kind.
type EntityKind string

const (
	EntityInstitution  EntityKind = "institution"
	EntityCollege      EntityKind = "college"
	EntityDepartment   EntityKind = "department"
	EntityUser         EntityKind = "user"
	EntityApplicant    EntityKind = "applicant"
	EntityJob          EntityKind = "job"
	EntityApplication  EntityKind = "application"
	EntityHRAssignment EntityKind = "hr_assignment"
)

// ActivityLog is an append-only audit row. UserID is nil for system actions
// such as the deadline sweep. Rows are never updated or deleted.
type ActivityLog struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      *uint      `json:"user_id,omitempty" gorm:"index:idx_activity_logs_user_action"`
	Action      Action     `json:"action" gorm:"type:varchar(50);not null;index:idx_activity_logs_user_action"`
	Description string     `json:"description" gorm:"type:text"`
	EntityKind  EntityKind `json:"entity_kind,omitempty" gorm:"type:varchar(30);index:idx_activity_logs_entity"`
	EntityID    *uint      `json:"entity_id,omitempty" gorm:"index:idx_activity_logs_entity"`
	IPAddress   string     `json:"ip_address,omitempty" gorm:"type:varchar(50)"`
	UserAgent   string     `json:"user_agent,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
