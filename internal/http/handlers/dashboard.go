package handlers

import (
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "webpulse/internal/db"
	"webpulse/internal/http/middleware"
)

// DashboardStats serves aggregate totals and rates for the reporting UI.
func DashboardStats(gdb *gorm.DB) middleware.UserHandler {
	return func(ctx *fasthttp.RequestCtx, _ *dbpkg.User) {
		stats, err := dbpkg.GetDashboardStats(gdb)
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "failed to query stats")
			return
		}
		jsonResponse(ctx, stats)
	}
}

type sessionOut struct {
	ID             uint      `json:"id"`
	SessionID      string    `json:"session_id"`
	Source         string    `json:"source"`
	DeviceType     string    `json:"device_type"`
	LandingPageURL string    `json:"landing_page_url"`
	PageViewsCount int       `json:"page_views_count"`
	EventsCount    int       `json:"events_count"`
	HasConverted   bool      `json:"has_converted"`
	BotScore       int       `json:"bot_score"`
	IsSuspectedBot bool      `json:"is_suspected_bot"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecentSessions lists sessions newest-first with limit/offset paging.
func RecentSessions(gdb *gorm.DB) middleware.UserHandler {
	return func(ctx *fasthttp.RequestCtx, _ *dbpkg.User) {
		limit := 50
		offset := 0
		if v, err := strconv.Atoi(string(ctx.QueryArgs().Peek("limit"))); err == nil && v > 0 && v <= 500 {
			limit = v
		}
		if v, err := strconv.Atoi(string(ctx.QueryArgs().Peek("offset"))); err == nil && v >= 0 {
			offset = v
		}

		sessions, err := dbpkg.ListRecentSessions(gdb, limit, offset)
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "failed to query sessions")
			return
		}

		out := make([]sessionOut, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, sessionOut{
				ID:             s.ID,
				SessionID:      s.SessionToken,
				Source:         s.Source,
				DeviceType:     s.DeviceType,
				LandingPageURL: s.LandingPageURL,
				PageViewsCount: s.PageViewsCount,
				EventsCount:    s.EventsCount,
				HasConverted:   s.HasConverted,
				BotScore:       s.BotScore,
				IsSuspectedBot: s.IsSuspectedBot,
				CreatedAt:      s.CreatedAt,
			})
		}
		jsonResponse(ctx, map[string]any{"sessions": out})
	}
}

// DiagnosticFunnel serves the diagnostic completion funnel with per-step dropoff.
func DiagnosticFunnel(gdb *gorm.DB) middleware.UserHandler {
	return func(ctx *fasthttp.RequestCtx, _ *dbpkg.User) {
		name := string(ctx.QueryArgs().Peek("diagnostic_name"))

		report, err := dbpkg.GetDiagnosticFunnel(gdb, name)
		if err != nil {
			errDetail(ctx, fasthttp.StatusInternalServerError, "failed to query funnel")
			return
		}
		jsonResponse(ctx, report)
	}
}
