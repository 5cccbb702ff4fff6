package transcript

import "regexp"

// selfCorrectionPattern matches "<A>. Actually, <B>" and reduces it to <B>,
// per spec.md §4.6 stage 4. <A> is any non-greedy run up to the period that
// precedes "Actually"; <B> runs to the next sentence boundary or end of text.
var selfCorrectionPattern = regexp.MustCompile(`(?i)[^.!?]*\.\s*actually,?\s*([^.!?]*[.!?]?)`)

// leadingSeparatorPattern strips a stray comma/whitespace run left at the
// front of <B> when a filler word immediately after "actually" was already
// deleted by the filler-removal stage (e.g. "Actually, uh, good morning"
// becomes "Actually, , good morning" once "uh" is gone, leaving a second
// comma directly ahead of <B>).
var leadingSeparatorPattern = regexp.MustCompile(`^[\s,]+`)

// applySelfCorrection repeatedly reduces "<A>. Actually, <B>" to "<B>" until
// no occurrence remains, handling multiple corrections left-to-right.
func applySelfCorrection(text string) string {
	for {
		next := selfCorrectionPattern.ReplaceAllStringFunc(text, func(match string) string {
			groups := selfCorrectionPattern.FindStringSubmatch(match)
			if len(groups) < 2 {
				return match
			}
			return leadingSeparatorPattern.ReplaceAllString(groups[1], "")
		})
		if next == text {
			return text
		}
		text = next
	}
}
