package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySourceUTMWinsOverReferrer(t *testing.T) {
	tests := []struct {
		name      string
		referrer  string
		utmSource string
		utmMedium string
		want      string
	}{
		{"cpc medium", "https://www.google.com/search", "adwords", "cpc", SourcePaid},
		{"medium containing cpc", "", "adwords", "max-cpc-bid", SourcePaid},
		{"non-cpc medium", "https://news.ycombinator.com/", "newsletter", "email", SourceOther},
		{"empty medium", "", "partner", "", SourceOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySource(tt.referrer, tt.utmSource, tt.utmMedium))
		})
	}
}

func TestClassifySourceByReferrer(t *testing.T) {
	tests := []struct {
		name     string
		referrer string
		want     string
	}{
		{"google search", "https://www.google.com/search?q=pricing", SourceOrganic},
		{"google country tld", "https://www.google.de/", SourceOrganic},
		{"facebook", "https://m.facebook.com/", SourceSocial},
		{"twitter", "https://t.twitter.com/share", SourceSocial},
		{"linkedin", "https://www.linkedin.com/feed/", SourceSocial},
		{"instagram", "https://l.instagram.com/", SourceSocial},
		{"plain referral", "https://blog.example.com/post/42", SourceReferral},
		{"empty referrer", "", SourceDirect},
		{"malformed referrer", "http://%zz^", SourceDirect},
		{"relative referrer without host", "/internal/path", SourceDirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySource(tt.referrer, "", ""))
		})
	}
}

func TestReferrerDomain(t *testing.T) {
	assert.Equal(t, "blog.example.com", ReferrerDomain("https://Blog.Example.com/post"))
	assert.Equal(t, "", ReferrerDomain(""))
	assert.Equal(t, "", ReferrerDomain("http://%zz^"))
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, "/pricing", PagePath("https://example.com/pricing?ref=nav"))
	assert.Equal(t, "", PagePath("http://%zz^"))
}
