package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session identifies one authenticated device and user pairing within one
// tenant schema. Rows are created by the external login flow; this core only
// reads them.
type Session struct {
	ID                string     `gorm:"primaryKey;type:uuid" json:"id"`
	DeviceFingerprint string     `gorm:"type:varchar(64);not null;index" json:"-"`
	UserID            string     `gorm:"type:uuid;not null;index" json:"user_id"`
	BusinessCode      string     `gorm:"type:varchar(64);not null" json:"business_code"`
	SchemaName        string     `gorm:"type:varchar(63);not null" json:"schema_name"`
	IssuedAt          time.Time  `json:"issued_at"`
	ExpiresAt         time.Time  `gorm:"index" json:"expires_at"`
	RevokedAt         *time.Time `json:"revoked_at"`
}

// TableName keeps the historical table name used by the tenant schemas.
func (Session) TableName() string { return "session" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
