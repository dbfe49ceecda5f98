package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpulse/internal/tracking"
)

const testDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestResolveSessionCreatesNew(t *testing.T) {
	gdb := newTestDB(t)
	key := newTestKey(t, gdb)

	s, err := ResolveSession(gdb, key, "", SessionInput{
		ReferrerURL:      "https://www.google.com/search?q=pricing",
		LandingPageURL:   "https://example.com/pricing",
		LandingPageTitle: "Pricing",
		ScreenResolution: "1920x1080",
		Language:         "en-US",
	}, "203.0.113.9", testDesktopUA)
	require.NoError(t, err)

	_, err = uuid.Parse(s.SessionToken)
	assert.NoError(t, err, "minted token must be a valid uuid")
	assert.Equal(t, key.ID, s.APIKeyID)
	assert.Equal(t, tracking.SourceOrganic, s.Source)
	assert.Equal(t, "www.google.com", s.ReferrerDomain)
	assert.Equal(t, tracking.DeviceDesktop, s.DeviceType)
	assert.Equal(t, "Chrome", s.Browser)
	assert.Equal(t, "Windows", s.OS)
	assert.Equal(t, "https://example.com/pricing", s.LandingPageURL)
	assert.NotZero(t, s.ID)
}

func TestResolveSessionReusesExisting(t *testing.T) {
	gdb := newTestDB(t)
	key := newTestKey(t, gdb)

	first, err := ResolveSession(gdb, key, "", SessionInput{LandingPageURL: "https://example.com/"}, "203.0.113.9", testDesktopUA)
	require.NoError(t, err)

	before := first.LastActivityAt
	time.Sleep(10 * time.Millisecond)

	second, err := ResolveSession(gdb, key, first.SessionToken, SessionInput{
		// Traffic fields on a repeat beacon must not rewrite the session.
		ReferrerURL: "https://www.facebook.com/",
	}, "203.0.113.9", testDesktopUA)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.SessionToken, second.SessionToken)
	assert.True(t, second.LastActivityAt.After(before))

	var stored Session
	require.NoError(t, gdb.First(&stored, first.ID).Error)
	assert.Equal(t, tracking.SourceDirect, stored.Source)

	var count int64
	require.NoError(t, gdb.Model(&Session{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "no duplicate session for a known token")
}

func TestResolveSessionMalformedTokenMintsFresh(t *testing.T) {
	gdb := newTestDB(t)
	key := newTestKey(t, gdb)

	s, err := ResolveSession(gdb, key, "not-a-uuid", SessionInput{}, "203.0.113.9", testDesktopUA)
	require.NoError(t, err)

	assert.NotEqual(t, "not-a-uuid", s.SessionToken)
	_, err = uuid.Parse(s.SessionToken)
	assert.NoError(t, err)
}

func TestResolveSessionUnknownValidTokenMintsFresh(t *testing.T) {
	gdb := newTestDB(t)
	key := newTestKey(t, gdb)

	unknown := uuid.NewString()
	s, err := ResolveSession(gdb, key, unknown, SessionInput{}, "203.0.113.9", testDesktopUA)
	require.NoError(t, err)

	// A valid-but-unseen token is not adopted; a fresh one is minted.
	assert.NotEqual(t, unknown, s.SessionToken)
}

func TestFindSessionByToken(t *testing.T) {
	gdb := newTestDB(t)
	key := newTestKey(t, gdb)

	created, err := ResolveSession(gdb, key, "", SessionInput{}, "203.0.113.9", testDesktopUA)
	require.NoError(t, err)

	s, found, err := FindSessionByToken(gdb, created.SessionToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, created.ID, s.ID)

	_, found, err = FindSessionByToken(gdb, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = FindSessionByToken(gdb, "garbage")
	require.NoError(t, err)
	assert.False(t, found)
}
