package models

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors the marketplace user directory. This service never writes it;
// rows are read only to attach display metadata to top-viewer results.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"size:64;not null" json:"username"`
	DisplayName string         `gorm:"size:128" json:"display_name"`
	Email       string         `gorm:"size:255" json:"email"`
	AvatarURL   string         `gorm:"size:512" json:"avatar_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
