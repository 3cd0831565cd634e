package models

import (
	"strings"

	"gorm.io/datatypes"
)

// Notification categories mirror the alert types a user can opt out of.
const (
	CategoryNewInsert  = "newInsertAction"
	CategoryUpdate     = "updateAction"
	CategoryDeactivate = "deactivateAction"
	CategoryReactivate = "reactivateAction"
	CategoryDelete     = "deleteAction"
	CategoryPayment    = "paymentAction"
	CategorySystem     = "systemAction"
	CategoryChat       = "chatAlert"
)

// Delivery channels.
const (
	ChannelInApp = "inApp"
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// NotificationCategories lists every opt-out category in a stable order.
func NotificationCategories() []string {
	return []string{
		CategoryNewInsert,
		CategoryUpdate,
		CategoryDeactivate,
		CategoryReactivate,
		CategoryDelete,
		CategoryPayment,
		CategorySystem,
		CategoryChat,
	}
}

// NotificationChannels lists the delivery channels in a stable order.
func NotificationChannels() []string {
	return []string{ChannelInApp, ChannelSMS, ChannelEmail}
}

// SettingsFlagKey builds the flag key for one category and channel pairing.
func SettingsFlagKey(category, channel string) string {
	return category + "." + channel
}

// ValidSettingsFlag reports whether a raw flag name is a known
// "category.channel" pairing.
func ValidSettingsFlag(flag string) bool {
	parts := strings.SplitN(flag, ".", 2)
	if len(parts) != 2 {
		return false
	}

	categoryOK := false
	for _, category := range NotificationCategories() {
		if parts[0] == category {
			categoryOK = true
			break
		}
	}
	if !categoryOK {
		return false
	}

	for _, channel := range NotificationChannels() {
		if parts[1] == channel {
			return true
		}
	}
	return false
}

// DefaultSettingsFlags returns the flag matrix applied when a settings row is
// first created: in-app and email on, SMS off, for every category.
func DefaultSettingsFlags() datatypes.JSONMap {
	flags := make(datatypes.JSONMap, len(NotificationCategories())*len(NotificationChannels()))
	for _, category := range NotificationCategories() {
		flags[SettingsFlagKey(category, ChannelInApp)] = true
		flags[SettingsFlagKey(category, ChannelSMS)] = false
		flags[SettingsFlagKey(category, ChannelEmail)] = true
	}
	return flags
}

// NotificationSettings is the per-user category by channel opt-in matrix.
// Exactly one row exists per user, created lazily on first use.
type NotificationSettings struct {
	BaseModel

	UserID string            `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Flags  datatypes.JSONMap `json:"flags"`
}

func (NotificationSettings) TableName() string { return "notificationSettings" }

// AnyChannelEnabled reports whether at least one channel is switched on for
// any category. Dispatch uses this as the coarse "has notifications on at
// all" gate for suppressible alert types.
func (s *NotificationSettings) AnyChannelEnabled() bool {
	for _, value := range s.Flags {
		if enabled, ok := value.(bool); ok && enabled {
			return true
		}
	}
	return false
}
