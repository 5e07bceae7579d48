// Package moderation flags submitted text for moderators. It never blocks
// a submission; the verdict is stored next to the post.
package moderation

import (
	"regexp"
	"strings"
)

// Verdicts. Clean means no rule matched.
const (
	Clean                 = "clean"
	InappropriateLanguage = "inappropriate_language"
	URLNotAllowed         = "url_not_allowed"
	ContactInfo           = "contact_info_not_allowed"
	SpamDetected          = "spam_detected"
	ExcessiveCaps         = "excessive_caps"
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"scam", "scammer", "phishing", "malware",
}

type Screener struct {
	bannedWords  []*regexp.Regexp
	urlPattern   *regexp.Regexp
	emailPattern *regexp.Regexp
	phonePattern *regexp.Regexp
	repeated     *regexp.Regexp
	allCaps      *regexp.Regexp
	maxCapsRuns  int
}

// NewScreener compiles the rule set. Links are only flagged in headings.
func NewScreener() *Screener {
	s := &Screener{
		bannedWords:  make([]*regexp.Regexp, 0, len(BannedWords)),
		urlPattern:   regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		emailPattern: regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phonePattern: regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
		repeated:     regexp.MustCompile(`(?i)(a{5,}|e{5,}|i{5,}|o{5,}|u{5,}|!{4,}|\?{4,})`),
		allCaps:      regexp.MustCompile(`\b[A-Z]{5,}\b`),
		maxCapsRuns:  5,
	}
	for _, word := range BannedWords {
		s.bannedWords = append(s.bannedWords, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}
	return s
}

// ScreenPost returns the first rule a heading or body trips, or Clean.
func (s *Screener) ScreenPost(heading, body string) string {
	if s.urlPattern.MatchString(heading) {
		return URLNotAllowed
	}
	for _, text := range []string{heading, body} {
		if verdict := s.Screen(text); verdict != Clean {
			return verdict
		}
	}
	return Clean
}

// Screen checks one piece of text against every rule except links.
func (s *Screener) Screen(text string) string {
	if strings.TrimSpace(text) == "" {
		return Clean
	}
	for _, re := range s.bannedWords {
		if re.MatchString(text) {
			return InappropriateLanguage
		}
	}
	if s.emailPattern.MatchString(text) || s.phonePattern.MatchString(text) {
		return ContactInfo
	}
	if s.repeated.MatchString(text) {
		return SpamDetected
	}
	if len(s.allCaps.FindAllString(text, -1)) > s.maxCapsRuns {
		return ExcessiveCaps
	}
	return Clean
}
