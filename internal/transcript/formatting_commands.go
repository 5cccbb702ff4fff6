package transcript

import (
	"regexp"
	"strings"
)

var lineBreakCommandPattern = regexp.MustCompile(`(?i)\s*\b(new line|newline)\b\s*`)
var bulletCommandPattern = regexp.MustCompile(`(?i)\s*\b(bullet point|bullet|dash)\b\s*`)
var paragraphCommandPattern = regexp.MustCompile(`(?i)\s*\b(new paragraph|paragraph)\b\s*`)
var tabCommandPattern = regexp.MustCompile(`(?i)\s*\btab\b\s*`)

var punctuationCommandPattern = regexp.MustCompile(
	`(?i)\b(period|comma|question mark|exclamation point|colon|semicolon)\b`,
)

var punctuationCommandWords = map[string]string{
	"period":            ".",
	"comma":             ",",
	"question mark":     "?",
	"exclamation point": "!",
	"colon":             ":",
	"semicolon":         ";",
}

var quoteCommandPattern = regexp.MustCompile(`(?i)\bquote\s+(.+?)\s+end quote\b`)
var allCapsCommandPattern = regexp.MustCompile(`(?i)\ball caps\s+(.+?)\s+end caps\b`)
var capCommandPattern = regexp.MustCompile(`(?i)\bcap\s+(\S+)`)

// applyLineBreakCommands converts the spoken line-break/paragraph/tab
// vocabulary to literal whitespace, per spec.md §4.6 stage 3.
func applyLineBreakCommands(text string) string {
	text = lineBreakCommandPattern.ReplaceAllString(text, "\n")
	text = bulletCommandPattern.ReplaceAllString(text, "\n• ")
	text = paragraphCommandPattern.ReplaceAllString(text, "\n\n")
	text = tabCommandPattern.ReplaceAllString(text, "\t")
	return text
}

// applyPunctuationCommands converts spoken punctuation names to literal
// punctuation, per spec.md §4.6 stage 3.
func applyPunctuationCommands(text string) string {
	return punctuationCommandPattern.ReplaceAllStringFunc(text, func(match string) string {
		return punctuationCommandWords[strings.ToLower(match)]
	})
}

// applyQuoteAndCaseCommands handles "quote ... end quote", "cap <word>", and
// "all caps ... end caps", per spec.md §4.6 stage 3.
func applyQuoteAndCaseCommands(text string) string {
	text = quoteCommandPattern.ReplaceAllString(text, "$1")
	text = allCapsCommandPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := allCapsCommandPattern.FindStringSubmatch(match)
		return strings.ToUpper(sub[1])
	})
	text = capCommandPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := capCommandPattern.FindStringSubmatch(match)
		word := sub[1]
		if word == "" {
			return match
		}
		return strings.ToUpper(word[:1]) + word[1:]
	})
	return text
}
