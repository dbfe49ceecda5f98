package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestSession(t *testing.T, gdb *gorm.DB) *Session {
	t.Helper()
	key := newTestKey(t, gdb)
	s, err := ResolveSession(gdb, key, "", SessionInput{LandingPageURL: "https://example.com/"}, "203.0.113.9", testDesktopUA)
	require.NoError(t, err)
	return s
}

func TestRecordPageViewSequencing(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	urls := []string{
		"https://example.com/",
		"https://example.com/pricing",
		"https://example.com/contact",
	}
	for i, u := range urls {
		pv, err := RecordPageView(gdb, s, PageViewInput{PageURL: u, PageTitle: fmt.Sprintf("page %d", i+1)})
		require.NoError(t, err)
		assert.Equal(t, i+1, pv.SequenceNumber)
		if i == 0 {
			assert.Empty(t, pv.PreviousPageURL)
		} else {
			assert.Equal(t, urls[i-1], pv.PreviousPageURL)
		}
	}

	var stored Session
	require.NoError(t, gdb.First(&stored, s.ID).Error)
	assert.Equal(t, 3, stored.PageViewsCount)
	assert.False(t, stored.IsBounce)
}

func TestRecordPageViewDerivesPath(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	pv, err := RecordPageView(gdb, s, PageViewInput{PageURL: "https://example.com/pricing?ref=nav"})
	require.NoError(t, err)
	assert.Equal(t, "/pricing", pv.PagePath)

	pv, err = RecordPageView(gdb, s, PageViewInput{PageURL: "https://example.com/contact", PagePath: "/custom"})
	require.NoError(t, err)
	assert.Equal(t, "/custom", pv.PagePath)
}

func TestRecordPageViewBounceFlag(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	_, err := RecordPageView(gdb, s, PageViewInput{PageURL: "https://example.com/"})
	require.NoError(t, err)

	var stored Session
	require.NoError(t, gdb.First(&stored, s.ID).Error)
	assert.Equal(t, 1, stored.PageViewsCount)
	assert.True(t, stored.IsBounce)

	_, err = RecordPageView(gdb, s, PageViewInput{PageURL: "https://example.com/about"})
	require.NoError(t, err)

	require.NoError(t, gdb.First(&stored, s.ID).Error)
	assert.Equal(t, 2, stored.PageViewsCount)
	assert.False(t, stored.IsBounce)
}

func TestRecordPageViewBackfillsDwellTime(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	first, err := RecordPageView(gdb, s, PageViewInput{PageURL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.TimeOnPageSeconds)

	// Pretend the first page was viewed 12 seconds ago.
	require.NoError(t, gdb.Model(first).Update("viewed_at", time.Now().Add(-12*time.Second)).Error)

	_, err = RecordPageView(gdb, s, PageViewInput{PageURL: "https://example.com/next"})
	require.NoError(t, err)

	var backfilled PageView
	require.NoError(t, gdb.First(&backfilled, first.ID).Error)
	assert.InDelta(t, 12, backfilled.TimeOnPageSeconds, 1)
}

func TestRecordPageViewDoesNotOverwriteBackfill(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	first, err := RecordPageView(gdb, s, PageViewInput{PageURL: "https://example.com/"})
	require.NoError(t, err)
	require.NoError(t, gdb.Model(first).Updates(map[string]any{
		"viewed_at":            time.Now().Add(-40 * time.Second),
		"time_on_page_seconds": 7,
	}).Error)

	_, err = RecordPageView(gdb, s, PageViewInput{PageURL: "https://example.com/next"})
	require.NoError(t, err)

	var stored PageView
	require.NoError(t, gdb.First(&stored, first.ID).Error)
	assert.Equal(t, 7, stored.TimeOnPageSeconds, "already-backfilled dwell time stays put")
}

func TestPageViewsCountMatchesChildRows(t *testing.T) {
	gdb := newTestDB(t)
	s := newTestSession(t, gdb)

	const n = 7
	for i := 0; i < n; i++ {
		_, err := RecordPageView(gdb, s, PageViewInput{PageURL: fmt.Sprintf("https://example.com/p/%d", i)})
		require.NoError(t, err)
	}

	var stored Session
	require.NoError(t, gdb.First(&stored, s.ID).Error)
	var children int64
	require.NoError(t, gdb.Model(&PageView{}).Where("session_id = ?", s.ID).Count(&children).Error)
	assert.EqualValues(t, children, stored.PageViewsCount)
	assert.Equal(t, n, stored.PageViewsCount)
}
