package transcript

import (
	"context"

	"github.com/justwhisper/justwhisper/internal/config"
)

// Clean runs the deterministic 6-stage pipeline from spec.md §4.6 over text,
// honoring each stage's config toggle in fixed order. Word replacements
// always use the local regex path; see CleanWithProvider for the
// intelligent-substitution variant.
func Clean(text string, opts config.CleanerOptions, replacements map[string]string) string {
	if opts.ApplyWordReplacements {
		text = applyWordReplacements(text, replacements)
	}
	return cleanRemainingStages(text, opts)
}

// CleanWithProvider runs the same pipeline, but when
// UseIntelligentWordReplacements is on and provider is non-nil, stage 1 uses
// an LLM-assisted fuzzy substitution instead of the local regex path,
// falling back to it on any failure.
func CleanWithProvider(ctx context.Context, text string, opts config.CleanerOptions, replacements map[string]string, provider ChatProvider) string {
	if opts.ApplyWordReplacements {
		if opts.UseIntelligentWordReplacements && provider != nil {
			text = applyIntelligentWordReplacements(ctx, text, replacements, provider)
		} else {
			text = applyWordReplacements(text, replacements)
		}
	}
	return cleanRemainingStages(text, opts)
}

// cleanRemainingStages applies stages 2-6; stage 1 (word replacements) has
// already run by the time this is called.
func cleanRemainingStages(text string, opts config.CleanerOptions) string {
	if opts.RemoveFillers {
		text = removeFillers(text)
	}
	if opts.ProcessLineBreakCommands {
		text = applyLineBreakCommands(text)
	}
	if opts.ProcessPunctuationCommands {
		text = applyPunctuationCommands(text)
	}
	if opts.ProcessFormattingCommands {
		text = applyQuoteAndCaseCommands(text)
	}
	if opts.ApplySelfCorrection {
		text = applySelfCorrection(text)
	}
	text = cleanupSentences(text, opts.AutomaticCapitalization)
	text = dequoteOuter(text)
	return text
}
