package db

import (
	"time"
)

// APIKey identifies a registered site permitted to send tracking beacons.
// Keys are created by an operator and immutable except for the Active flag;
// they are never deleted while sessions reference them.
type APIKey struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Key is the opaque value the client-side tracker presents on every
	// beacon (header or body).
	Key string `gorm:"uniqueIndex;size:64;not null"`

	// Name is a display name for the site (e.g. "Main Website").
	Name string `gorm:"size:255;not null"`

	// Domain is the origin this key is expected to track.
	Domain string `gorm:"size:255;not null"`

	// Active indicates whether beacons with this key are accepted.
	Active bool `gorm:"default:true"`
}
