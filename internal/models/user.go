package models

import "strings"

// User is the minimal identity row this core reads for display purposes.
// Account management is owned by the out-of-scope CRUD modules.
type User struct {
	BaseModel

	Username  string `gorm:"type:varchar(64);uniqueIndex" json:"username"`
	FirstName string `gorm:"type:varchar(64)" json:"first_name"`
	OtherName string `gorm:"type:varchar(64)" json:"other_name"`
	LastName  string `gorm:"type:varchar(64)" json:"last_name"`
}

func (User) TableName() string { return "usersTable" }

// DisplayName renders the user's full name, falling back to the username.
func (u *User) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{u.FirstName, u.OtherName, u.LastName} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return u.Username
	}
	return strings.Join(parts, " ")
}
