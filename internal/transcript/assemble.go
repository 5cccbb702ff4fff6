// Package transcript implements the Transcript Cleaner (C6): the
// deterministic text pipeline (pipeline.go), its optional LLM-assisted
// word-replacement and whole-transcript enhancement paths (chat_*.go), and
// Assemble, used by the Speech Client (C7) to reconstruct a transcript from
// a verbose_json response's segments[] when its top-level text is empty.
package transcript

import "strings"

// Options controls Assemble's formatting behavior.
type Options struct {
	TrailingSpace       bool
	CapitalizeSentences bool
}

// Assemble joins non-empty segment texts and applies configured
// normalization, per spec.md §4.7's verbose_json segments[] fallback.
func Assemble(finalSegments []string, opts Options) string {
	if len(finalSegments) == 0 {
		return ""
	}

	joined := strings.Join(finalSegments, " ")
	normalized := strings.Join(strings.Fields(joined), " ")
	if normalized == "" {
		return ""
	}

	if opts.CapitalizeSentences {
		normalized = capitalizeSentences(normalized)
	}

	if opts.TrailingSpace {
		return normalized + " "
	}
	return normalized
}

func capitalizeSentences(text string) string {
	text = capitalizeSentenceStarts(text)
	text = pronounIContractionPattern.ReplaceAllStringFunc(text, func(match string) string {
		return "I" + match[1:]
	})
	return capitalizeStandalonePronounI(text)
}
