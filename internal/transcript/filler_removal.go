package transcript

import "regexp"

// fillerWords is the fixed set from spec.md §4.6 stage 2. "actually" is
// listed here but deliberately absent from fillerWordPattern: it is consumed
// by the self-correction stage instead.
var fillerWords = []string{
	"um", "uh", "ah", "er", "like", "you know", "sort of", "kind of",
	"basically", "actually", "literally", "so", "well", "right", "okay",
	"alright", "hmm", "yeah", "yes", "yep", "mhm",
}

var fillerWordPattern = regexp.MustCompile(
	`(?i)\b(um|uh|ah|er|like|you know|sort of|kind of|basically|literally|so|well|right|okay|alright|hmm|yeah|yes|yep|mhm)\b`,
)

// removeFillers deletes every filler-word occurrence, word-boundary and
// case-insensitive. Collapsed whitespace from the removal is left to the
// sentence-cleanup stage that runs afterward.
func removeFillers(text string) string {
	return fillerWordPattern.ReplaceAllString(text, "")
}
