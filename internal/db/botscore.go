package db

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"webpulse/internal/tracking"
)

// SuspectedBotThreshold is the score at and above which a session is
// flagged as a suspected bot.
const SuspectedBotThreshold = 50

var botKeywords = []string{"bot", "crawler", "spider", "scraper", "curl", "wget", "python", "java"}

// CalculateBotScore computes a 0-100 bot-likelihood score from the current
// session state plus optional form-timing and honeypot signals. Signals are
// additive and evaluated independently; the sum is capped at 100.
func CalculateBotScore(s *Session, timeSpent *int, honeypotFilled bool) int {
	score := 0

	// Honeypot filled: hidden field no human would touch.
	if honeypotFilled {
		score += 60
	}

	// Form submitted in under two seconds.
	if timeSpent != nil && *timeSpent < 2 {
		score += 40
	}

	// Automation keywords in the user agent.
	ua := strings.ToLower(s.UserAgent)
	for _, kw := range botKeywords {
		if strings.Contains(ua, kw) {
			score += 50
			break
		}
	}

	// More than ten pages inside the first minute.
	if s.PageViewsCount > 10 && time.Since(s.CreatedAt) < 60*time.Second {
		score += 30
	}

	// Many page views with zero interactions.
	if s.PageViewsCount > 5 && s.EventsCount == 0 {
		score += 15
	}

	// Direct visit with no referrer at all.
	if s.ReferrerURL == "" && s.Source == tracking.SourceDirect {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// UpdateBotScore computes the session's bot score and persists bot_score and
// is_suspected_bot together. Returns the computed score.
func UpdateBotScore(gdb *gorm.DB, s *Session, timeSpent *int, honeypotFilled bool) (int, error) {
	score := CalculateBotScore(s, timeSpent, honeypotFilled)

	s.BotScore = score
	s.IsSuspectedBot = score >= SuspectedBotThreshold

	if err := gdb.Model(s).Updates(map[string]any{
		"bot_score":        s.BotScore,
		"is_suspected_bot": s.IsSuspectedBot,
	}).Error; err != nil {
		return 0, err
	}
	return score, nil
}
