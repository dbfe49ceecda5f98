package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"webpulse/internal/tracking"
)

// ErrSessionNotFound is returned by operations that require an existing
// session (events, diagnostics, email capture) when the supplied token does
// not resolve. Those operations never create sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionInput carries the traffic and technical fields a pageview beacon
// reports; they are only consulted when a new session has to be created.
type SessionInput struct {
	ReferrerURL      string
	UTMSource        string
	UTMMedium        string
	UTMCampaign      string
	UTMTerm          string
	UTMContent       string
	LandingPageURL   string
	LandingPageTitle string
	ScreenResolution string
	Language         string
	Country          string
	City             string
}

// FindSessionByToken looks up a session by its exact token. The second
// return value distinguishes "found" from "not found or invalid token";
// a malformed token is reported the same way as a missing row so callers
// take a single explicit create branch. The error is for store failures only.
func FindSessionByToken(gdb *gorm.DB, token string) (*Session, bool, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, false, nil
	}

	var s Session
	if err := gdb.Where("session_token = ?", id.String()).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &s, true, nil
}

// ResolveSession returns the session for the supplied token, touching its
// last-activity timestamp, or creates a new one when the token is missing,
// malformed, or unknown. New sessions always get a freshly minted random
// token; an unresolvable client value is never reused as the identifier.
func ResolveSession(gdb *gorm.DB, key *APIKey, token string, in SessionInput, ipAddress, userAgent string) (*Session, error) {
	s, found, err := FindSessionByToken(gdb, token)
	if err != nil {
		return nil, err
	}
	if found {
		now := time.Now()
		if err := gdb.Model(s).Update("last_activity_at", now).Error; err != nil {
			return nil, err
		}
		s.LastActivityAt = now
		return s, nil
	}

	dev := tracking.ParseDevice(userAgent)

	s = &Session{
		SessionToken:     uuid.NewString(),
		APIKeyID:         key.ID,
		ReferrerURL:      in.ReferrerURL,
		ReferrerDomain:   tracking.ReferrerDomain(in.ReferrerURL),
		Source:           tracking.ClassifySource(in.ReferrerURL, in.UTMSource, in.UTMMedium),
		UTMSource:        in.UTMSource,
		UTMMedium:        in.UTMMedium,
		UTMCampaign:      in.UTMCampaign,
		UTMTerm:          in.UTMTerm,
		UTMContent:       in.UTMContent,
		LandingPageURL:   in.LandingPageURL,
		LandingPageTitle: in.LandingPageTitle,
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
		DeviceType:       dev.Type,
		Browser:          dev.Browser,
		BrowserVersion:   dev.BrowserVersion,
		OS:               dev.OS,
		OSVersion:        dev.OSVersion,
		ScreenResolution: in.ScreenResolution,
		Language:         in.Language,
		Country:          in.Country,
		City:             in.City,
		LastActivityAt:   time.Now(),
	}

	if err := gdb.Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}
