package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPackage is one purchased feature bundle for a business. The
// catalog is central: packages for every business live in one cross-tenant
// database, keyed by business code.
type SubscriptionPackage struct {
	BaseModel

	BusinessCode string `gorm:"type:varchar(64);not null;index" json:"business_code"`

	// Features holds the serialized array of purchased feature names,
	// e.g. ["AppDefault","Inventory","POS"].
	Features datatypes.JSON `json:"features"`

	EndOfSubscription time.Time `gorm:"index" json:"end_of_subscription"`
}

func (SubscriptionPackage) TableName() string { return "subscriptionPackage" }
