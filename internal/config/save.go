package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// toJSONDocument renders the full Config as the on-disk JSONC document shape
// (minus comments, which a hand-editing user may add back). Every field is
// written explicitly so the file round-trips through Save/Load without
// relying on jsoncConfig's "nil means unset" merge semantics.
func toJSONDocument(cfg Config) map[string]any {
	return map[string]any{
		"global_enable":   cfg.GlobalEnable,
		"speech_provider": cfg.SpeechProvider,
		"azure_whisper": map[string]any{
			"api_key":     cfg.AzureWhisper.APIKey,
			"endpoint":    cfg.AzureWhisper.Endpoint,
			"deployment":  cfg.AzureWhisper.Deployment,
			"api_version": cfg.AzureWhisper.APIVersion,
		},
		"openai_whisper": map[string]any{
			"api_key":  cfg.OpenAIWhisper.APIKey,
			"model":    cfg.OpenAIWhisper.Model,
			"base_url": cfg.OpenAIWhisper.BaseURL,
		},
		"use_llm_enhancement": cfg.UseLLMEnhancement,
		"chat_provider":       cfg.ChatProvider,
		"azure_chat": map[string]any{
			"api_key":     cfg.AzureChat.APIKey,
			"endpoint":    cfg.AzureChat.Endpoint,
			"deployment":  cfg.AzureChat.Deployment,
			"api_version": cfg.AzureChat.APIVersion,
		},
		"openai_chat": map[string]any{
			"api_key":  cfg.OpenAIChat.APIKey,
			"model":    cfg.OpenAIChat.Model,
			"base_url": cfg.OpenAIChat.BaseURL,
		},
		"cleaner": map[string]any{
			"remove_fillers":                     cfg.Cleaner.RemoveFillers,
			"process_line_break_commands":        cfg.Cleaner.ProcessLineBreakCommands,
			"process_punctuation_commands":       cfg.Cleaner.ProcessPunctuationCommands,
			"process_formatting_commands":        cfg.Cleaner.ProcessFormattingCommands,
			"apply_self_correction":              cfg.Cleaner.ApplySelfCorrection,
			"automatic_capitalization":           cfg.Cleaner.AutomaticCapitalization,
			"apply_word_replacements":            cfg.Cleaner.ApplyWordReplacements,
			"use_intelligent_word_replacements":  cfg.Cleaner.UseIntelligentWordReplacements,
		},
		"overlay": map[string]any{
			"position":        cfg.Overlay.Position,
			"background_rgba": cfg.Overlay.BackgroundRGBA,
			"opacity":         cfg.Overlay.Opacity,
		},
		"audio": map[string]any{
			"input":    cfg.Audio.Input,
			"fallback": cfg.Audio.Fallback,
		},
		"paste": map[string]any{
			"enable":   cfg.Paste.Enable,
			"shortcut": cfg.Paste.Shortcut,
		},
		"indicator": map[string]any{
			"enable":              cfg.Indicator.Enable,
			"backend":             cfg.Indicator.Backend,
			"desktop_app_name":    cfg.Indicator.DesktopAppName,
			"sound_enable":        cfg.Indicator.SoundEnable,
			"sound_start_file":    cfg.Indicator.SoundStartFile,
			"sound_stop_file":     cfg.Indicator.SoundStopFile,
			"sound_complete_file": cfg.Indicator.SoundCompleteFile,
			"sound_cancel_file":   cfg.Indicator.SoundCancelFile,
			"height":              cfg.Indicator.Height,
			"text_recording":      cfg.Indicator.TextRecording,
			"text_processing":     cfg.Indicator.TextProcessing,
			"text_error":          cfg.Indicator.TextError,
			"error_timeout_ms":    cfg.Indicator.ErrorTimeoutMS,
		},
		"clipboard_cmd": cfg.Clipboard.Raw,
		"paste_cmd":     cfg.PasteCmd.Raw,
		"vocab":         toJSONVocab(cfg.Vocab),
		"debug": map[string]any{
			"audio_dump": cfg.Debug.EnableAudioDump,
		},
	}
}

func toJSONVocab(vocab VocabConfig) map[string]any {
	sets := make(map[string]any, len(vocab.Sets))
	for name, set := range vocab.Sets {
		sets[name] = map[string]any{
			"boost":   set.Boost,
			"phrases": set.Phrases,
		}
	}
	return map[string]any{
		"global":      vocab.GlobalSets,
		"max_phrases": vocab.MaxPhrases,
		"sets":        sets,
	}
}

// Save renders cfg as JSON and writes it to path, the format Store.Set
// persists on every write.
func Save(cfg Config, path string) error {
	encoded, err := json.MarshalIndent(toJSONDocument(cfg), "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	encoded = append(encoded, '\n')

	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}
