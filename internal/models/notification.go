package models

import (
	"gorm.io/datatypes"
)

// AlertType classifies a dispatched notification. The set is closed; dispatch
// rejects anything else.
type AlertType string

const (
	AlertSystemAction     AlertType = "systemAction"
	AlertPaymentAction    AlertType = "paymentAction"
	AlertNewInsertAction  AlertType = "newInsertAction"
	AlertUpdateAction     AlertType = "updateAction"
	AlertDeactivateAction AlertType = "deactivateAction"
	AlertReactivateAction AlertType = "reactivateAction"
	AlertDeleteAction     AlertType = "deleteAction"
	AlertChatAlert        AlertType = "chatAlert"
)

var alertTypes = map[AlertType]struct{}{
	AlertSystemAction:     {},
	AlertPaymentAction:    {},
	AlertNewInsertAction:  {},
	AlertUpdateAction:     {},
	AlertDeactivateAction: {},
	AlertReactivateAction: {},
	AlertDeleteAction:     {},
	AlertChatAlert:        {},
}

// Valid reports whether the alert type belongs to the closed set.
func (a AlertType) Valid() bool {
	_, ok := alertTypes[a]
	return ok
}

// HighPriority reports whether the alert bypasses user notification
// preferences. System, payment and chat alerts are not user-suppressible.
func (a AlertType) HighPriority() bool {
	switch a {
	case AlertSystemAction, AlertPaymentAction, AlertChatAlert:
		return true
	default:
		return false
	}
}

// Notification is one dispatched event, shared by every recipient. The
// recipient set is fixed at creation; per-user read state lives in
// NotificationRead rows.
type Notification struct {
	BaseModel

	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	AlertType AlertType `gorm:"type:varchar(32);not null;index" json:"alert_type"`

	// UsersList is the serialized array of recipient user ids.
	UsersList datatypes.JSON `json:"users_list"`

	// EntityName and EntityID reference the business row that triggered the event.
	EntityName string `gorm:"type:varchar(64)" json:"entity_name"`
	EntityID   string `gorm:"type:varchar(64)" json:"entity_id"`

	SessionID string `gorm:"type:uuid" json:"session_id"`
}

func (Notification) TableName() string { return "notification" }
