package transcript

import (
	"regexp"
	"sort"
)

// applyWordReplacements performs local regex substitution of each
// search phrase (case-insensitive, word-boundary) with its replacement, per
// spec.md §4.6 stage 1's default path. Longer phrases are matched first so a
// multi-word entry isn't shadowed by a shorter one sharing a prefix.
func applyWordReplacements(text string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return text
	}

	phrases := make([]string, 0, len(replacements))
	for phrase := range replacements {
		phrases = append(phrases, phrase)
	}
	sort.Slice(phrases, func(i, j int) bool { return len(phrases[i]) > len(phrases[j]) })

	for _, phrase := range phrases {
		replacement := replacements[phrase]
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
		text = pattern.ReplaceAllString(text, replacement)
	}
	return text
}
