package db

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"webpulse/internal/tracking"
)

// EventTypeConversion marks a session as converted and records the event
// label as the conversion goal.
const EventTypeConversion = "conversion"

// EventInput carries the payload of an event beacon. Metadata is copied
// verbatim into the stored record.
type EventInput struct {
	EventType     string
	EventCategory string
	EventLabel    string
	EventValue    *float64

	ElementID    string
	ElementClass string
	ElementText  string
	ElementTag   string

	PageURL  string
	PagePath string

	TimeSincePageLoadMs          int
	TimeSinceSessionStartSeconds int

	Metadata map[string]any

	// TimeSpentSeconds, when present, triggers a bot-score update.
	TimeSpentSeconds *int
}

// RecordEvent appends an interaction to the session, best-effort links it to
// the most recent page view with the same URL, and updates the session's
// event rollups and conversion flag.
func RecordEvent(gdb *gorm.DB, s *Session, in EventInput) (*Event, error) {
	if in.TimeSpentSeconds != nil {
		if _, err := UpdateBotScore(gdb, s, in.TimeSpentSeconds, false); err != nil {
			return nil, err
		}
	}

	var pageViewID *uint
	var pv PageView
	err := gdb.Where("session_id = ? AND page_url = ?", s.ID, in.PageURL).
		Order("viewed_at DESC").First(&pv).Error
	if err == nil {
		pageViewID = &pv.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pagePath := in.PagePath
	if pagePath == "" {
		pagePath = tracking.PagePath(in.PageURL)
	}

	metadata := datatypes.JSONMap{}
	for k, v := range in.Metadata {
		metadata[k] = v
	}

	ev := &Event{
		SessionID:                    s.ID,
		PageViewID:                   pageViewID,
		EventType:                    in.EventType,
		EventCategory:                in.EventCategory,
		EventLabel:                   in.EventLabel,
		EventValue:                   in.EventValue,
		ElementID:                    in.ElementID,
		ElementClass:                 in.ElementClass,
		ElementText:                  in.ElementText,
		ElementTag:                   in.ElementTag,
		PageURL:                      in.PageURL,
		PagePath:                     pagePath,
		TimeSincePageLoadMs:          in.TimeSincePageLoadMs,
		TimeSinceSessionStartSeconds: in.TimeSinceSessionStartSeconds,
		Metadata:                     metadata,
	}
	if err := gdb.Create(ev).Error; err != nil {
		return nil, err
	}

	var count int64
	if err := gdb.Model(&Event{}).Where("session_id = ?", s.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	s.EventsCount = int(count)

	if in.EventType == EventTypeConversion {
		s.HasConverted = true
		s.ConversionEvent = in.EventLabel
	}

	if err := gdb.Model(s).Updates(map[string]any{
		"events_count":     s.EventsCount,
		"has_converted":    s.HasConverted,
		"conversion_event": s.ConversionEvent,
	}).Error; err != nil {
		return nil, err
	}

	return ev, nil
}
