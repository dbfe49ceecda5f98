package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DiagnosticInput carries a completed quiz/diagnostic submission.
type DiagnosticInput struct {
	DiagnosticName    string
	DiagnosticVersion string
	Answers           map[string]any
	Score             *float64
	ResultCategory    string
	Metadata          map[string]any
	StartedAt         *time.Time
}

// RecordDiagnostic stores a diagnostic submission verbatim and marks the
// session converted if it wasn't already. An earlier conversion (and its
// label) is never overwritten.
func RecordDiagnostic(gdb *gorm.DB, s *Session, in DiagnosticInput) (*DiagnosticResponse, error) {
	answers := datatypes.JSONMap{}
	for k, v := range in.Answers {
		answers[k] = v
	}
	metadata := datatypes.JSONMap{}
	for k, v := range in.Metadata {
		metadata[k] = v
	}

	d := &DiagnosticResponse{
		SessionID:         s.ID,
		DiagnosticName:    in.DiagnosticName,
		DiagnosticVersion: in.DiagnosticVersion,
		Answers:           answers,
		Score:             in.Score,
		ResultCategory:    in.ResultCategory,
		Metadata:          metadata,
		StartedAt:         in.StartedAt,
	}
	if err := gdb.Create(d).Error; err != nil {
		return nil, err
	}

	if !s.HasConverted {
		s.HasConverted = true
		s.ConversionEvent = "diagnostic_" + in.DiagnosticName
		if err := gdb.Model(s).Updates(map[string]any{
			"has_converted":    true,
			"conversion_event": s.ConversionEvent,
		}).Error; err != nil {
			return nil, err
		}
	}

	return d, nil
}
