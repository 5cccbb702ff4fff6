package transcript

import (
	"regexp"
	"strings"
)

var whitespaceRunPattern = regexp.MustCompile(`[ \t]+`)
var whitespaceBeforePunctuationPattern = regexp.MustCompile(`[ \t]+([,.!?;:])`)
var missingSpaceAfterPunctuationPattern = regexp.MustCompile(`([,.!?;:])([^\s,.!?;:"')\]])`)

// cleanupSentences runs spec.md §4.6 stage 5: collapse whitespace runs,
// tighten spacing around punctuation, drop a trailing comma, and optionally
// capitalize sentence starts. Only horizontal whitespace is collapsed, so the
// literal line breaks stage 3 may have inserted survive untouched.
func cleanupSentences(text string, capitalize bool) string {
	text = whitespaceRunPattern.ReplaceAllString(text, " ")
	text = whitespaceBeforePunctuationPattern.ReplaceAllString(text, "$1")
	text = missingSpaceAfterPunctuationPattern.ReplaceAllString(text, "$1 $2")
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ",")

	if capitalize {
		text = capitalizeSentences(text)
	}
	return text
}

// dequoteOuter strips exactly one matching pair of wrapping quotes, per
// spec.md §4.6 stage 6.
func dequoteOuter(text string) string {
	if len(text) < 2 {
		return text
	}
	first, last := text[0], text[len(text)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return text[1 : len(text)-1]
	}
	return text
}
