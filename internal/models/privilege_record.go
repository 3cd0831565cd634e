package models

import (
	"gorm.io/datatypes"
)

// Privilege record status values. Records are never hard-deleted; revoking a
// record flips its status instead.
const (
	PrivilegeStatusActive   = "active"
	PrivilegeStatusInactive = "inactive"
)

// PrivilegeRecord is one user's capability flag set for a single feature.
// Each feature has its own table (defaultPrivilege, CRMPrivilege, ...), so
// this model carries no TableName; callers select the table through the
// feature enumeration.
type PrivilegeRecord struct {
	BaseModel

	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	GroupID string `gorm:"type:uuid" json:"group_id"`
	Status  string `gorm:"type:varchar(16);default:'active'" json:"status"`

	// Flags maps capability names (e.g. "addNewDepartment") to "yes"/"no".
	// An absent key means the capability was never granted.
	Flags datatypes.JSONMap `json:"flags"`
}
