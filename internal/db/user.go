package db

import (
	"time"
)

// User represents a dashboard user that can sign in to the reporting API.
// The bootstrap admin user (from env) will be created as a row in this
// table on startup. Sessions link to a user when a captured email matches.
type User struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	// IsAdmin marks users that can manage other users and API keys.
	// The bootstrap admin will have IsAdmin=true.
	IsAdmin bool `gorm:"default:false"`

	// IsActive gates login; disabled accounts keep their history.
	IsActive bool `gorm:"default:true"`
}
