package db

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"webpulse/internal/tracking"
)

// PageViewInput carries the page fields of a pageview beacon.
type PageViewInput struct {
	PageURL   string
	PageTitle string
	PagePath  string
}

// RecordPageView appends a page view to the session: backfills the previous
// page view's dwell time, assigns the next sequence number, and recomputes
// the session's page-view rollups.
//
// The backfill and the insert are two independent writes, not a transaction;
// a failed insert leaves the previous page view's dwell time committed. Two
// concurrent beacons for the same session can race on the sequence number;
// rollups are recomputed from a true child count so any drift is bounded.
func RecordPageView(gdb *gorm.DB, s *Session, in PageViewInput) (*PageView, error) {
	var last PageView
	haveLast := true
	err := gdb.Where("session_id = ?", s.ID).Order("sequence_number DESC").First(&last).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		haveLast = false
	}

	sequenceNumber := 1
	previousPageURL := ""
	if haveLast {
		sequenceNumber = last.SequenceNumber + 1
		previousPageURL = last.PageURL

		if last.TimeOnPageSeconds == 0 {
			elapsed := int(time.Since(last.ViewedAt).Seconds())
			if err := gdb.Model(&last).Update("time_on_page_seconds", elapsed).Error; err != nil {
				return nil, err
			}
		}
	}

	pagePath := in.PagePath
	if pagePath == "" {
		pagePath = tracking.PagePath(in.PageURL)
	}

	pv := &PageView{
		SessionID:       s.ID,
		PageURL:         in.PageURL,
		PageTitle:       in.PageTitle,
		PagePath:        pagePath,
		SequenceNumber:  sequenceNumber,
		PreviousPageURL: previousPageURL,
	}
	if err := gdb.Create(pv).Error; err != nil {
		return nil, err
	}

	var count int64
	if err := gdb.Model(&PageView{}).Where("session_id = ?", s.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	s.PageViewsCount = int(count)
	s.IsBounce = count == 1
	if err := gdb.Model(s).Updates(map[string]any{
		"page_views_count": s.PageViewsCount,
		"is_bounce":        s.IsBounce,
	}).Error; err != nil {
		return nil, err
	}

	return pv, nil
}
