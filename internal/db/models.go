package db

import (
	"time"

	"gorm.io/datatypes"
)

// Session groups all activity from one visit: where the visitor came from,
// what they are browsing with, and rolled-up engagement counters. A session
// is created on the first beacon carrying an unseen (or absent) token and
// mutated by every subsequent beacon in that visit.
type Session struct {
	ID uint `gorm:"primaryKey"`

	// SessionToken is the opaque identifier the client-side tracker echoes
	// back on every beacon. Server-minted (random UUID) when the client did
	// not supply a resolvable one.
	SessionToken string `gorm:"uniqueIndex;size:36;not null"`

	// APIKeyID is the registered site this session belongs to.
	APIKeyID uint   `gorm:"index;not null"`
	APIKey   APIKey `gorm:"foreignKey:APIKeyID"`

	// UserID is linked post-hoc when a captured email matches a dashboard
	// user account.
	UserID *uint `gorm:"index"`

	// Traffic source and referrer.
	ReferrerURL    string `gorm:"size:2048"`
	ReferrerDomain string `gorm:"size:255;index"`
	Source         string `gorm:"size:20;default:direct;index"`

	UTMSource   string `gorm:"size:255;index"`
	UTMMedium   string `gorm:"size:255"`
	UTMCampaign string `gorm:"size:255;index"`
	UTMTerm     string `gorm:"size:255"`
	UTMContent  string `gorm:"size:255"`

	// Entry point.
	LandingPageURL   string `gorm:"size:2048"`
	LandingPageTitle string `gorm:"size:500"`

	// Technical details.
	IPAddress        string `gorm:"size:45"`
	UserAgent        string
	DeviceType       string `gorm:"size:20;default:unknown;index"`
	Browser          string `gorm:"size:100"`
	BrowserVersion   string `gorm:"size:50"`
	OS               string `gorm:"size:100"`
	OSVersion        string `gorm:"size:50"`
	ScreenResolution string `gorm:"size:20"`
	Language         string `gorm:"size:10"`

	// Geography is supplied by the caller, never derived here.
	Country string `gorm:"size:2;index"`
	City    string `gorm:"size:100"`

	// Rollup counters, recomputed from true child counts after every
	// mutating beacon.
	PageViewsCount  int  `gorm:"default:0"`
	EventsCount     int  `gorm:"default:0"`
	DurationSeconds int  `gorm:"default:0"`
	IsBounce        bool `gorm:"default:false"`

	HasConverted    bool   `gorm:"default:false;index"`
	ConversionEvent string `gorm:"size:100"`

	// Captured identity, filled by the email-capture beacon.
	Email   string `gorm:"size:255;index"`
	Name    string `gorm:"size:255"`
	Company string `gorm:"size:255"`
	Phone   string `gorm:"size:50"`

	// Bot detection.
	IsSuspectedBot bool `gorm:"default:false;index"`
	BotScore       int  `gorm:"default:0"`

	CreatedAt      time.Time `gorm:"index"`
	LastActivityAt time.Time
	EndedAt        *time.Time
}

// PageView is one page load within a session. SequenceNumber is 1-based and
// strictly increasing per session; TimeOnPageSeconds stays 0 until the next
// page view in the session backfills it.
type PageView struct {
	ID uint `gorm:"primaryKey"`

	SessionID uint    `gorm:"index:idx_page_views_session_seq,priority:1;not null"`
	Session   Session `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	PageURL   string `gorm:"size:2048;index"`
	PageTitle string `gorm:"size:500"`
	PagePath  string `gorm:"size:1024;index"`

	SequenceNumber  int    `gorm:"index:idx_page_views_session_seq,priority:2;not null"`
	PreviousPageURL string `gorm:"size:2048"`

	TimeOnPageSeconds  int `gorm:"default:0"`
	ScrollDepthPercent int `gorm:"default:0"`

	ViewedAt time.Time `gorm:"autoCreateTime;index"`
}

// Event is one interaction within a session (CTA click, form submit, funnel
// step, ...). Immutable after creation.
type Event struct {
	ID uint `gorm:"primaryKey"`

	SessionID uint    `gorm:"index;not null"`
	Session   Session `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	// PageViewID is a best-effort link to the page the interaction happened
	// on, matched by page URL. Optional.
	PageViewID *uint

	EventType     string   `gorm:"size:50;index;not null"`
	EventCategory string   `gorm:"size:100;index"`
	EventLabel    string   `gorm:"size:255"`
	EventValue    *float64 `gorm:"type:decimal(10,2)"`

	ElementID    string `gorm:"size:255"`
	ElementClass string `gorm:"size:255"`
	ElementText  string `gorm:"size:500"`
	ElementTag   string `gorm:"size:50"`

	PageURL  string `gorm:"size:2048"`
	PagePath string `gorm:"size:1024;index"`

	TimeSincePageLoadMs          int
	TimeSinceSessionStartSeconds int

	// Metadata holds arbitrary event-specific key/value pairs (e.g. funnel
	// step numbers) without schema changes.
	Metadata datatypes.JSONMap `gorm:"type:json"`

	OccurredAt time.Time `gorm:"autoCreateTime;index"`
}

// DiagnosticResponse stores one completed quiz/diagnostic submission with
// its answers as an opaque JSON document. Immutable after creation.
type DiagnosticResponse struct {
	ID uint `gorm:"primaryKey"`

	SessionID uint    `gorm:"index;not null"`
	Session   Session `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	DiagnosticName    string `gorm:"size:255;index;not null"`
	DiagnosticVersion string `gorm:"size:50"`

	Answers datatypes.JSONMap `gorm:"type:json"`

	Score          *float64 `gorm:"type:decimal(5,2)"`
	ResultCategory string   `gorm:"size:100"`

	Metadata datatypes.JSONMap `gorm:"type:json"`

	// StartedAt is client-reported; CompletedAt is assigned on insert.
	StartedAt   *time.Time
	CompletedAt time.Time `gorm:"autoCreateTime;index"`
}
