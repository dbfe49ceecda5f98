package db

import (
	"database/sql"
	"math"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DashboardStats is the aggregate snapshot shown on the reporting dashboard.
type DashboardStats struct {
	TotalSessions      int64   `json:"total_sessions"`
	TotalPageViews     int64   `json:"total_page_views"`
	TotalEvents        int64   `json:"total_events"`
	TotalConversions   int64   `json:"total_conversions"`
	AvgSessionDuration int64   `json:"avg_session_duration"`
	BounceRate         float64 `json:"bounce_rate"`
	ConversionRate     float64 `json:"conversion_rate"`
}

// GetDashboardStats computes totals and rates over all collected sessions.
func GetDashboardStats(gdb *gorm.DB) (*DashboardStats, error) {
	var stats DashboardStats

	if err := gdb.Model(&Session{}).Count(&stats.TotalSessions).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&PageView{}).Count(&stats.TotalPageViews).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&Event{}).Count(&stats.TotalEvents).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&Session{}).Where("has_converted = ?", true).Count(&stats.TotalConversions).Error; err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := gdb.Model(&Session{}).Select("AVG(duration_seconds)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg.Valid {
		stats.AvgSessionDuration = int64(avg.Float64)
	}

	if stats.TotalSessions > 0 {
		var bounces int64
		if err := gdb.Model(&Session{}).Where("is_bounce = ?", true).Count(&bounces).Error; err != nil {
			return nil, err
		}
		stats.BounceRate = round2(float64(bounces) / float64(stats.TotalSessions) * 100)
		stats.ConversionRate = round2(float64(stats.TotalConversions) / float64(stats.TotalSessions) * 100)
	}

	return &stats, nil
}

// ListRecentSessions returns sessions newest-first.
func ListRecentSessions(gdb *gorm.DB, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	var sessions []Session
	err := gdb.Order("created_at DESC").Limit(limit).Offset(offset).Find(&sessions).Error
	return sessions, err
}

// FunnelStep is the shown/completed dropoff for one diagnostic question.
type FunnelStep struct {
	StepNumber  int     `json:"step_number"`
	Shown       int64   `json:"shown"`
	Completed   int64   `json:"completed"`
	DropoffRate float64 `json:"dropoff_rate"`
}

// FunnelReport summarizes completion of the diagnostic funnel from the
// diagnostic_* event stream.
type FunnelReport struct {
	DiagnosticName string       `json:"diagnostic_name,omitempty"`
	Started        int64        `json:"started"`
	CompletedAll   int64        `json:"completed_all_questions"`
	SubmittedEmail int64        `json:"submitted_email"`
	SkippedEmail   int64        `json:"skipped_email"`
	ViewedResults  int64        `json:"viewed_results"`
	Steps          []FunnelStep `json:"steps"`
	ConversionRate float64      `json:"conversion_rate"`
}

// maxFunnelSteps bounds the per-step dropoff scan.
const maxFunnelSteps = 10

// GetDiagnosticFunnel computes the diagnostic completion funnel, optionally
// filtered to a single diagnostic by event label.
func GetDiagnosticFunnel(gdb *gorm.DB, diagnosticName string) (*FunnelReport, error) {
	base := func() *gorm.DB {
		q := gdb.Model(&Event{}).Where("event_type LIKE ?", "diagnostic_%")
		if diagnosticName != "" {
			q = q.Where("event_label = ?", diagnosticName)
		}
		return q
	}

	report := &FunnelReport{DiagnosticName: diagnosticName, Steps: []FunnelStep{}}

	countType := func(eventType string, dst *int64) error {
		return base().Where("event_type = ?", eventType).Count(dst).Error
	}

	if err := base().Where("event_type = ?", "diagnostic_question_shown").
		Where(datatypes.JSONQuery("metadata").Equals(1, "step_number")).
		Count(&report.Started).Error; err != nil {
		return nil, err
	}
	if err := countType("diagnostic_contact_form_shown", &report.CompletedAll); err != nil {
		return nil, err
	}
	if err := countType("diagnostic_email_submitted", &report.SubmittedEmail); err != nil {
		return nil, err
	}
	if err := countType("diagnostic_contact_skipped", &report.SkippedEmail); err != nil {
		return nil, err
	}
	if err := countType("diagnostic_results_viewed", &report.ViewedResults); err != nil {
		return nil, err
	}

	for step := 1; step <= maxFunnelSteps; step++ {
		var shown, completed int64
		if err := base().Where("event_type = ?", "diagnostic_question_shown").
			Where(datatypes.JSONQuery("metadata").Equals(step, "step_number")).
			Count(&shown).Error; err != nil {
			return nil, err
		}
		if shown == 0 {
			break
		}
		if err := base().Where("event_type = ?", "diagnostic_step_completed").
			Where(datatypes.JSONQuery("metadata").Equals(step, "step_number")).
			Count(&completed).Error; err != nil {
			return nil, err
		}
		report.Steps = append(report.Steps, FunnelStep{
			StepNumber:  step,
			Shown:       shown,
			Completed:   completed,
			DropoffRate: round2((1 - float64(completed)/float64(shown)) * 100),
		})
	}

	if report.Started > 0 {
		report.ConversionRate = round2(float64(report.SubmittedEmail) / float64(report.Started) * 100)
	}

	return report, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
