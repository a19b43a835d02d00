// Package sanitize strips unsafe markup from free-text fields before display or storage.
//
// This is a denylist filter, not an HTML parser. It is one layer of XSS defense;
// templates must still escape output.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	pstrings "clubportal/pkg/platform/strings"
)

// DefaultMaxLength bounds ValidateTextInput when no explicit limit is given.
const DefaultMaxLength = 1000

var (
	scriptBlock   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script\s*>`)
	scriptTag     = regexp.MustCompile(`(?i)</?script[^>]*>?`)
	jsScheme      = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandler  = regexp.MustCompile(`(?i)\s*on\w+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]*)`)
	rewritePasses = []*regexp.Regexp{scriptBlock, scriptTag, jsScheme, eventHandler}
)

// Sanitize removes script blocks with their content, stray script tags, javascript:
// schemes and inline on*= handler assignments, then trims surrounding whitespace.
// Rules are reapplied until nothing changes, so removals that splice a new payload
// together are caught and Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	for {
		next := text
		for _, re := range rewritePasses {
			next = re.ReplaceAllString(next, "")
		}
		next = strings.TrimSpace(next)
		if next == text {
			return next
		}
		text = next
	}
}

// Result is the outcome of ValidateTextInput.
type Result struct {
	IsValid   bool
	Sanitized string
}

// ValidateTextInput sanitizes text and checks 1 <= runes <= maxLength.
// A maxLength of zero or less selects DefaultMaxLength.
func ValidateTextInput(text string, maxLength int) Result {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	clean := Sanitize(text)
	n := utf8.RuneCountInString(clean)
	return Result{
		IsValid:   n >= 1 && n <= maxLength,
		Sanitized: clean,
	}
}

// List sanitizes every entry of a tag or skill list, dropping entries that end up
// empty and duplicates (case-insensitive, first spelling wins).
func List(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		cleaned = append(cleaned, Sanitize(v))
	}
	return pstrings.DedupeFold(cleaned)
}
