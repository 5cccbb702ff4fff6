package transcript

import (
	"context"
	"fmt"
	"strings"

	"github.com/justwhisper/justwhisper/internal/config"
)

// ChatProvider sends one request to a remote chat-completion endpoint and
// returns the model's reply text. Azure OpenAI and OpenAI each get their own
// implementation, selected by the active config.ChatProvider variant.
type ChatProvider interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

const (
	enhancementTemperature = 0.3
	enhancementMaxTokens   = 1000
)

const enhancementSystemPrompt = `You clean up a raw spoken-dictation transcript. Rules:
- Remove filler words (um, uh, like, you know, sort of, kind of, basically, actually, literally, so, well, right, okay, alright, hmm, yeah, yes, yep, mhm) unless removing one would change the meaning.
- Fix obvious grammar mistakes without changing the speaker's meaning or wording choices.
- Respect explicit formatting commands the speaker spoke aloud (new line, bullet point, period, comma, quote ... end quote, cap <word>, all caps ... end caps) by applying them literally instead of leaving the spoken words in place.
- Honor self-corrections: when the speaker says "<A>. Actually, <B>", keep only <B>.
- Return only the cleaned transcript text, with no surrounding quotes or commentary.`

// Enhance asks provider to clean text in one round trip per spec.md §4.6's
// LLM enhancement description, falling back silently to the deterministic
// pipeline on any non-200 status, timeout, or parse failure — LLM failures
// are never surfaced to the UI.
func Enhance(ctx context.Context, text string, opts config.CleanerOptions, replacements map[string]string, provider ChatProvider) string {
	if provider == nil {
		return Clean(text, opts, replacements)
	}

	reply, err := provider.Complete(ctx, enhancementSystemPrompt, text)
	if err != nil {
		return Clean(text, opts, replacements)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Clean(text, opts, replacements)
	}
	return dequoteOuter(reply)
}

const intelligentWordReplacementSystemPromptTemplate = `You perform fuzzy word/phrase substitution on a transcript. Given a JSON mapping of misheard phrases to their intended replacements, replace every occurrence you recognize as a near-match (including plausible ASR mishearings and different casing) with its mapped replacement, leaving everything else unchanged. Return only the resulting text, with no surrounding quotes or commentary.

Replacements: %s`

// applyIntelligentWordReplacements substitutes stage 1 of the Cleaner
// pipeline with an LLM-assisted fuzzy pass, per spec.md §4.6 stage 1's
// useIntelligentWordReplacements path, falling back to the local regex path
// on any failure.
func applyIntelligentWordReplacements(ctx context.Context, text string, replacements map[string]string, provider ChatProvider) string {
	if len(replacements) == 0 {
		return text
	}

	prompt := fmt.Sprintf(intelligentWordReplacementSystemPromptTemplate, formatReplacementsForPrompt(replacements))
	reply, err := provider.Complete(ctx, prompt, text)
	if err != nil {
		return applyWordReplacements(text, replacements)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return applyWordReplacements(text, replacements)
	}
	return reply
}

func formatReplacementsForPrompt(replacements map[string]string) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for phrase, replacement := range replacements {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%q: %q", phrase, replacement)
	}
	b.WriteByte('}')
	return b.String()
}
