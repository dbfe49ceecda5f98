package tracking

import (
	"net/url"
	"strings"
)

// Traffic source categories for a session.
const (
	SourceOrganic  = "organic"
	SourcePaid     = "paid"
	SourceSocial   = "social"
	SourceReferral = "referral"
	SourceDirect   = "direct"
	SourceEmail    = "email"
	SourceOther    = "other"
)

var socialDomains = []string{"facebook", "twitter", "linkedin", "instagram"}

// ClassifySource maps a referrer URL plus UTM parameters to a traffic source
// category. UTM tagging wins over the referrer: a tagged visit is "paid" when
// the medium looks like cost-per-click, "other" for any other tagged medium.
// Untagged visits are classified by referrer domain, falling back to "direct"
// when the referrer is absent or unparseable.
func ClassifySource(referrerURL, utmSource, utmMedium string) string {
	if utmSource != "" {
		if strings.Contains(utmMedium, "cpc") {
			return SourcePaid
		}
		return SourceOther
	}

	domain := ReferrerDomain(referrerURL)
	if domain == "" {
		return SourceDirect
	}
	if strings.Contains(domain, "google") {
		return SourceOrganic
	}
	for _, s := range socialDomains {
		if strings.Contains(domain, s) {
			return SourceSocial
		}
	}
	return SourceReferral
}

// ReferrerDomain extracts the lowercased host from a referrer URL.
// Malformed or host-less values yield "".
func ReferrerDomain(referrerURL string) string {
	if referrerURL == "" {
		return ""
	}
	u, err := url.Parse(referrerURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// PagePath extracts the path component of a page URL, used when the client
// did not report a path explicitly. Returns "" for malformed input.
func PagePath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Path
}
