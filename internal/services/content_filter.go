package services

import (
	"regexp"
	"strings"
)

// Rejection reasons returned by ContentFilter.Check. They double as i18n keys.
const (
	ReasonInappropriate = "inappropriate_language"
	ReasonSpam          = "spam_detected"
)

var defaultBannedWords = []string{
	"fuck", "fucking", "shit", "bullshit", "bitch", "bastard", "asshole",
	"merde", "putain", "connard", "salope", "encule",
	"porn", "porno", "nude", "nudes",
}

// ContentFilter screens free text typed by self-service actors.
type ContentFilter struct {
	banned *regexp.Regexp
}

// maxRun is the longest run of one repeated character accepted.
const maxRun = 7

func NewContentFilter(words []string) *ContentFilter {
	if len(words) == 0 {
		words = defaultBannedWords
	}
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	return &ContentFilter{
		banned: regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Check returns "" when text is acceptable and a rejection reason otherwise.
func (f *ContentFilter) Check(text string) string {
	if text == "" {
		return ""
	}
	if f.banned.MatchString(text) {
		return ReasonInappropriate
	}
	if longestRun(text) > maxRun {
		return ReasonSpam
	}
	return ""
}

func longestRun(text string) int {
	longest, run := 0, 0
	var prev rune
	for i, r := range text {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		if run > longest {
			longest = run
		}
	}
	return longest
}
