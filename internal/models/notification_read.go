package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRead records that one recipient has read one notification.
// The (notification, user) pair is unique, so marking a notification read is
// an atomic, idempotent insert rather than a read-modify-write of a
// serialized list.
type NotificationRead struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	NotificationID string    `gorm:"type:uuid;not null;uniqueIndex:idx_notification_reader" json:"notification_id"`
	UserID         string    `gorm:"type:uuid;not null;uniqueIndex:idx_notification_reader" json:"user_id"`
	ReadAt         time.Time `json:"read_at"`
}

func (NotificationRead) TableName() string { return "notificationRead" }

func (n *NotificationRead) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
