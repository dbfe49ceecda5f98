package handlers

import (
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "webpulse/internal/db"
	"webpulse/internal/http/middleware"
)

// PageViewPayload is the body of a pageview beacon.
type PageViewPayload struct {
	APIKey    string `json:"api_key"`
	SessionID string `json:"session_id"`

	PageURL     string `json:"page_url"`
	PageTitle   string `json:"page_title,omitempty"`
	PagePath    string `json:"page_path,omitempty"`
	ReferrerURL string `json:"referrer_url,omitempty"`

	UserAgent        string `json:"user_agent"`
	IPAddress        string `json:"ip_address,omitempty"`
	ScreenResolution string `json:"screen_resolution,omitempty"`
	Language         string `json:"language,omitempty"`
	Country          string `json:"country,omitempty"`
	City             string `json:"city,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
}

// EventPayload is the body of an event beacon.
type EventPayload struct {
	APIKey    string `json:"api_key"`
	SessionID string `json:"session_id"`

	EventType     string   `json:"event_type"`
	EventCategory string   `json:"event_category,omitempty"`
	EventLabel    string   `json:"event_label,omitempty"`
	EventValue    *float64 `json:"event_value,omitempty"`

	ElementID    string `json:"element_id,omitempty"`
	ElementClass string `json:"element_class,omitempty"`
	ElementText  string `json:"element_text,omitempty"`
	ElementTag   string `json:"element_tag,omitempty"`

	PageURL  string `json:"page_url"`
	PagePath string `json:"page_path,omitempty"`

	TimeSincePageLoadMs          int `json:"time_since_page_load_ms"`
	TimeSinceSessionStartSeconds int `json:"time_since_session_start_seconds"`

	Metadata map[string]any `json:"metadata,omitempty"`

	TimeSpentSeconds *int `json:"time_spent_seconds,omitempty"`
}

// EmailPayload is the body of an email-capture beacon.
type EmailPayload struct {
	APIKey    string `json:"api_key"`
	SessionID string `json:"session_id"`

	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`

	TimeSpentSeconds *int `json:"time_spent_seconds,omitempty"`
	HoneypotFilled   bool `json:"honeypot_filled,omitempty"`
}

// DiagnosticPayload is the body of a diagnostic submission beacon.
type DiagnosticPayload struct {
	APIKey    string `json:"api_key"`
	SessionID string `json:"session_id"`

	DiagnosticName    string         `json:"diagnostic_name"`
	DiagnosticVersion string         `json:"diagnostic_version,omitempty"`
	Answers           map[string]any `json:"answers"`
	Score             *float64       `json:"score,omitempty"`
	ResultCategory    string         `json:"result_category,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
}

// TrackPageView resolves (or creates) the session and appends a page view.
func TrackPageView(gdb *gorm.DB) middleware.KeyedHandler {
	return func(ctx *fasthttp.RequestCtx, key *dbpkg.APIKey) {
		var payload PageViewPayload
		if !readJSON(ctx, &payload) {
			return
		}
		if payload.PageURL == "" || payload.UserAgent == "" {
			errDetail(ctx, fasthttp.StatusBadRequest, "page_url and user_agent are required")
			return
		}

		session, err := dbpkg.ResolveSession(gdb, key, payload.SessionID, dbpkg.SessionInput{
			ReferrerURL:      payload.ReferrerURL,
			UTMSource:        payload.UTMSource,
			UTMMedium:        payload.UTMMedium,
			UTMCampaign:      payload.UTMCampaign,
			UTMTerm:          payload.UTMTerm,
			UTMContent:       payload.UTMContent,
			LandingPageURL:   payload.PageURL,
			LandingPageTitle: payload.PageTitle,
			ScreenResolution: payload.ScreenResolution,
			Language:         payload.Language,
			Country:          strings.ToUpper(payload.Country),
			City:             payload.City,
		}, clientIP(ctx, payload.IPAddress), payload.UserAgent)
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "failed to resolve session")
			return
		}

		if _, err := dbpkg.RecordPageView(gdb, session, dbpkg.PageViewInput{
			PageURL:   payload.PageURL,
			PageTitle: payload.PageTitle,
			PagePath:  payload.PagePath,
		}); err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "failed to record page view")
			return
		}

		beaconsTotal.WithLabelValues(key.Name, "pageview").Inc()

		jsonResponse(ctx, map[string]any{
			"status":     "success",
			"session_id": session.SessionToken,
		})
	}
}

// TrackEvent records an interaction against an existing session.
func TrackEvent(gdb *gorm.DB) middleware.KeyedHandler {
	return func(ctx *fasthttp.RequestCtx, key *dbpkg.APIKey) {
		var payload EventPayload
		if !readJSON(ctx, &payload) {
			return
		}
		if payload.EventType == "" || payload.PageURL == "" {
			errDetail(ctx, fasthttp.StatusBadRequest, "event_type and page_url are required")
			return
		}

		session, found, err := dbpkg.FindSessionByToken(gdb, payload.SessionID)
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}
		if !found {
			errDetail(ctx, fasthttp.StatusNotFound, "Session not found")
			return
		}

		event, err := dbpkg.RecordEvent(gdb, session, dbpkg.EventInput{
			EventType:                    payload.EventType,
			EventCategory:                payload.EventCategory,
			EventLabel:                   payload.EventLabel,
			EventValue:                   payload.EventValue,
			ElementID:                    payload.ElementID,
			ElementClass:                 payload.ElementClass,
			ElementText:                  payload.ElementText,
			ElementTag:                   payload.ElementTag,
			PageURL:                      payload.PageURL,
			PagePath:                     payload.PagePath,
			TimeSincePageLoadMs:          payload.TimeSincePageLoadMs,
			TimeSinceSessionStartSeconds: payload.TimeSinceSessionStartSeconds,
			Metadata:                     payload.Metadata,
			TimeSpentSeconds:             payload.TimeSpentSeconds,
		})
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "failed to record event")
			return
		}

		beaconsTotal.WithLabelValues(key.Name, "event").Inc()
		if event.EventType == dbpkg.EventTypeConversion {
			conversionsTotal.WithLabelValues(key.Name).Inc()
		}

		jsonResponse(ctx, map[string]any{
			"status":   "success",
			"event_id": event.ID,
		})
	}
}

// CaptureEmail stores captured contact details on an existing session.
func CaptureEmail(gdb *gorm.DB) middleware.KeyedHandler {
	return func(ctx *fasthttp.RequestCtx, key *dbpkg.APIKey) {
		var payload EmailPayload
		if !readJSON(ctx, &payload) {
			return
		}
		if payload.Email == "" {
			errDetail(ctx, fasthttp.StatusBadRequest, "email is required")
			return
		}

		session, found, err := dbpkg.FindSessionByToken(gdb, payload.SessionID)
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}
		if !found {
			errDetail(ctx, fasthttp.StatusNotFound, "Session not found")
			return
		}

		if err := dbpkg.CaptureIdentity(gdb, session, dbpkg.IdentityInput{
			Email:            payload.Email,
			Name:             payload.Name,
			Company:          payload.Company,
			Phone:            payload.Phone,
			TimeSpentSeconds: payload.TimeSpentSeconds,
			HoneypotFilled:   payload.HoneypotFilled,
		}); err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "failed to capture email")
			return
		}

		beaconsTotal.WithLabelValues(key.Name, "email").Inc()

		jsonResponse(ctx, map[string]any{
			"status":     "success",
			"session_id": session.SessionToken,
			"email":      session.Email,
		})
	}
}

// SubmitDiagnostic stores a diagnostic submission against an existing session.
func SubmitDiagnostic(gdb *gorm.DB) middleware.KeyedHandler {
	return func(ctx *fasthttp.RequestCtx, key *dbpkg.APIKey) {
		var payload DiagnosticPayload
		if !readJSON(ctx, &payload) {
			return
		}
		if payload.DiagnosticName == "" || payload.Answers == nil {
			errDetail(ctx, fasthttp.StatusBadRequest, "diagnostic_name and answers are required")
			return
		}

		session, found, err := dbpkg.FindSessionByToken(gdb, payload.SessionID)
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}
		if !found {
			errDetail(ctx, fasthttp.StatusNotFound, "Session not found")
			return
		}

		diagnostic, err := dbpkg.RecordDiagnostic(gdb, session, dbpkg.DiagnosticInput{
			DiagnosticName:    payload.DiagnosticName,
			DiagnosticVersion: payload.DiagnosticVersion,
			Answers:           payload.Answers,
			Score:             payload.Score,
			ResultCategory:    payload.ResultCategory,
			Metadata:          payload.Metadata,
			StartedAt:         payload.StartedAt,
		})
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "failed to record diagnostic")
			return
		}

		beaconsTotal.WithLabelValues(key.Name, "diagnostic").Inc()

		jsonResponse(ctx, map[string]any{
			"status":        "success",
			"diagnostic_id": diagnostic.ID,
			"session_id":    session.SessionToken,
		})
	}
}
