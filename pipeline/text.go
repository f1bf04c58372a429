package pipeline

import (
	"regexp"
	"strings"
)

var (
	fillerPattern = regexp.MustCompile(`(?i)\b(uh|umm|er|yyy+|ee+|mmm+)\b`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// CleanFillers strips filler words and collapses whitespace. Used for the
// human-readable transcript rendering only; persisted JSON keeps raw text.
func CleanFillers(text string) string {
	cleaned := fillerPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(cleaned, " "))
}
