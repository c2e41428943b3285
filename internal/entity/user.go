package entity

import "time"

const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

var Roles = []string{RoleUser, RoleAdmin, RoleModerator}

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	UserID         int64     `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	ExternalID     string    `gorm:"column:external_id;type:text;uniqueIndex;not null" json:"firebase_uid"`
	FirstName      string    `gorm:"type:text;not null" json:"first_name"`
	LastName       string    `gorm:"type:text;not null" json:"last_name"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:255;not null" json:"email"`
	ProfilePicture *string   `gorm:"type:text" json:"profile_picture"`
	Role           string    `gorm:"size:20;not null;default:user;check:chk_users_role,role IN ('user','admin','moderator')" json:"role"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string { return "users" }
