package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDiagnosticStoresSubmission(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	started := time.Now().Add(-3 * time.Minute)
	score := 72.5
	d, err := RecordDiagnostic(gdb, s, DiagnosticInput{
		DiagnosticName:    "readiness-check",
		DiagnosticVersion: "v2",
		Answers: map[string]any{
			"q1": "yes",
			"q2": []any{"a", "b"},
			"q3": map[string]any{"nested": true},
		},
		Score:          &score,
		ResultCategory: "Advanced",
		Metadata:       map[string]any{"time_spent": 145},
		StartedAt:      &started,
	})
	require.NoError(t, err)
	assert.NotZero(t, d.ID)
	assert.False(t, d.CompletedAt.IsZero())

	var stored DiagnosticResponse
	require.NoError(t, gdb.First(&stored, d.ID).Error)
	assert.Equal(t, "readiness-check", stored.DiagnosticName)
	assert.Equal(t, "yes", stored.Answers["q1"])
	assert.Equal(t, "Advanced", stored.ResultCategory)
	require.NotNil(t, stored.Score)
	assert.InDelta(t, 72.5, *stored.Score, 0.001)
}

func TestRecordDiagnosticMarksConversionOnce(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	_, err := RecordDiagnostic(gdb, s, DiagnosticInput{
		DiagnosticName: "readiness-check",
		Answers:        map[string]any{"q1": "yes"},
	})
	require.NoError(t, err)

	var stored Session
	require.NoError(t, gdb.First(&stored, s.ID).Error)
	assert.True(t, stored.HasConverted)
	assert.Equal(t, "diagnostic_readiness-check", stored.ConversionEvent)

	// A second diagnostic must not overwrite the original conversion label.
	_, err = RecordDiagnostic(gdb, &stored, DiagnosticInput{
		DiagnosticName: "other-quiz",
		Answers:        map[string]any{"q1": "no"},
	})
	require.NoError(t, err)
	require.NoError(t, gdb.First(&stored, s.ID).Error)
	assert.True(t, stored.HasConverted)
	assert.Equal(t, "diagnostic_readiness-check", stored.ConversionEvent)
}

func TestRecordDiagnosticKeepsEventConversionLabel(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	_, err := RecordEvent(gdb, s, EventInput{
		EventType:  EventTypeConversion,
		EventLabel: "signup",
		PageURL:    "https://example.com/signup",
	})
	require.NoError(t, err)

	_, err = RecordDiagnostic(gdb, s, DiagnosticInput{
		DiagnosticName: "readiness-check",
		Answers:        map[string]any{"q1": "yes"},
	})
	require.NoError(t, err)

	var stored Session
	require.NoError(t, gdb.First(&stored, s.ID).Error)
	assert.Equal(t, "signup", stored.ConversionEvent)
}
