package config

import (
	"fmt"
	"strconv"
	"strings"
)

// parseLegacy parses the flat key=value configuration format retained for
// config.conf files predating the JSONC format. Validate runs at the end, as
// it does for parseJSONC, so both formats return a fully-validated Config.
func parseLegacy(content string, base Config) (Config, []Warning, error) {
	cfg := base
	if cfg.Vocab.Sets == nil {
		cfg.Vocab.Sets = map[string]VocabSet{}
	}

	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		lineNum := i + 1
		trimmed := strings.TrimSpace(stripLegacyComment(lines[i]))
		if trimmed == "" {
			continue
		}

		if name, ok := vocabSetHeader(trimmed); ok {
			set, consumed, err := parseVocabSetBlock(lines, i, name, lineNum)
			if err != nil {
				return Config{}, nil, err
			}
			cfg.Vocab.Sets[name] = set
			i = consumed
			continue
		}

		eq := strings.Index(trimmed, "=")
		if eq < 0 {
			return Config{}, nil, fmt.Errorf("line %d: expected key = value syntax", lineNum)
		}
		key := strings.TrimSpace(trimmed[:eq])
		rawValue := strings.TrimSpace(trimmed[eq+1:])

		value, err := parseScalarValue(rawValue)
		if err != nil {
			return Config{}, nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if err := applyLegacyKey(&cfg, key, value, lineNum); err != nil {
			return Config{}, nil, err
		}
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// stripLegacyComment truncates a line at its first unquoted '#'.
func stripLegacyComment(line string) string {
	var quote rune
	for idx, ch := range line {
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '#':
			return line[:idx]
		}
	}
	return line
}

// vocabSetHeader reports whether trimmed opens a `vocabset <name> {` block.
func vocabSetHeader(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, "vocabset ") {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "vocabset "))
	if !strings.HasSuffix(rest, "{") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(rest, "{"))
	if name == "" {
		return "", false
	}
	return name, true
}

// parseVocabSetBlock reads a vocabset body starting at startIdx+1 until a
// line consisting solely of "}". Returns the populated set and the index of
// the closing brace line. Errors reference startLine, the block's own header
// line, matching the teacher's vocabset error convention.
func parseVocabSetBlock(lines []string, startIdx int, name string, startLine int) (VocabSet, int, error) {
	set := VocabSet{Name: name}
	for i := startIdx + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(stripLegacyComment(lines[i]))
		if trimmed == "" {
			continue
		}
		if trimmed == "}" {
			return set, i, nil
		}

		eq := strings.Index(trimmed, "=")
		if eq < 0 {
			return VocabSet{}, 0, fmt.Errorf("line %d: unterminated vocabset %q", startLine, name)
		}
		key := strings.TrimSpace(trimmed[:eq])
		valuePart := strings.TrimSpace(trimmed[eq+1:])

		switch key {
		case "boost":
			boost, err := strconv.ParseFloat(valuePart, 64)
			if err != nil {
				return VocabSet{}, 0, fmt.Errorf("line %d: invalid boost value %q in vocabset %q", startLine, valuePart, name)
			}
			set.Boost = boost
		case "phrases":
			phrases, consumed, err := parsePhraseList(lines, i, valuePart, startLine, name)
			if err != nil {
				return VocabSet{}, 0, err
			}
			set.Phrases = phrases
			i = consumed
		default:
			return VocabSet{}, 0, fmt.Errorf("line %d: unknown vocabset key %q", startLine, key)
		}
	}
	return VocabSet{}, 0, fmt.Errorf("line %d: unterminated vocabset %q", startLine, name)
}

// parsePhraseList parses `phrases = [ "a", "b" ]`, accumulating continuation
// lines until the closing bracket is seen.
func parsePhraseList(lines []string, lineIdx int, valuePart string, startLine int, setName string) ([]string, int, error) {
	buf := valuePart
	i := lineIdx
	for !strings.Contains(buf, "]") {
		i++
		if i >= len(lines) {
			return nil, 0, fmt.Errorf("line %d: unterminated vocabset %q", startLine, setName)
		}
		buf += " " + strings.TrimSpace(stripLegacyComment(lines[i]))
	}

	open := strings.Index(buf, "[")
	closeIdx := strings.LastIndex(buf, "]")
	if open < 0 || closeIdx < open {
		return nil, 0, fmt.Errorf("line %d: malformed phrase list in vocabset %q", startLine, setName)
	}

	inner := buf[open+1 : closeIdx]
	parts := strings.Split(inner, ",")
	phrases := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		unquoted, err := parseScalarValue(p)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", startLine, err)
		}
		phrases = append(phrases, unquoted)
	}
	return phrases, i, nil
}

// parseScalarValue strips a matching pair of single or double quotes, or
// returns the trimmed value as-is when unquoted.
func parseScalarValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	switch raw[0] {
	case '"':
		end := findClosingQuote(raw, '"')
		if end < 0 {
			return "", fmt.Errorf("missing closing double quote")
		}
		return raw[1:end], nil
	case '\'':
		end := findClosingQuote(raw, '\'')
		if end < 0 {
			return "", fmt.Errorf("missing closing single quote")
		}
		return raw[1:end], nil
	default:
		return strings.TrimSpace(raw), nil
	}
}

func findClosingQuote(raw string, quote byte) int {
	for i := 1; i < len(raw); i++ {
		if raw[i] == '\\' {
			i++
			continue
		}
		if raw[i] == quote {
			return i
		}
	}
	return -1
}

func splitLegacyList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseLegacyBool(value string, lineNum int) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("line %d: invalid boolean value %q", lineNum, value)
	}
	return b, nil
}

func parseLegacyInt(value string, lineNum int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid integer value %q", lineNum, value)
	}
	return n, nil
}

func parseLegacyFloat(value string, lineNum int) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid numeric value %q", lineNum, value)
	}
	return f, nil
}

// applyLegacyKey maps one flat key=value pair onto cfg. Keys mirror the
// JSONC payload's dotted field names.
func applyLegacyKey(cfg *Config, key, value string, lineNum int) error {
	switch key {
	case "global_enable":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.GlobalEnable = b
	case "speech_provider":
		cfg.SpeechProvider = value
	case "azure_whisper.api_key":
		cfg.AzureWhisper.APIKey = value
	case "azure_whisper.endpoint":
		cfg.AzureWhisper.Endpoint = value
	case "azure_whisper.deployment":
		cfg.AzureWhisper.Deployment = value
	case "azure_whisper.api_version":
		cfg.AzureWhisper.APIVersion = value
	case "openai_whisper.api_key":
		cfg.OpenAIWhisper.APIKey = value
	case "openai_whisper.model":
		cfg.OpenAIWhisper.Model = value
	case "openai_whisper.base_url":
		cfg.OpenAIWhisper.BaseURL = value
	case "use_llm_enhancement":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.UseLLMEnhancement = b
	case "chat_provider":
		cfg.ChatProvider = value
	case "azure_chat.api_key":
		cfg.AzureChat.APIKey = value
	case "azure_chat.endpoint":
		cfg.AzureChat.Endpoint = value
	case "azure_chat.deployment":
		cfg.AzureChat.Deployment = value
	case "azure_chat.api_version":
		cfg.AzureChat.APIVersion = value
	case "openai_chat.api_key":
		cfg.OpenAIChat.APIKey = value
	case "openai_chat.model":
		cfg.OpenAIChat.Model = value
	case "openai_chat.base_url":
		cfg.OpenAIChat.BaseURL = value
	case "cleaner.remove_fillers":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Cleaner.RemoveFillers = b
	case "cleaner.process_line_break_commands":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Cleaner.ProcessLineBreakCommands = b
	case "cleaner.process_punctuation_commands":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Cleaner.ProcessPunctuationCommands = b
	case "cleaner.process_formatting_commands":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Cleaner.ProcessFormattingCommands = b
	case "cleaner.apply_self_correction":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Cleaner.ApplySelfCorrection = b
	case "cleaner.automatic_capitalization":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Cleaner.AutomaticCapitalization = b
	case "cleaner.apply_word_replacements":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Cleaner.ApplyWordReplacements = b
	case "cleaner.use_intelligent_word_replacements":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Cleaner.UseIntelligentWordReplacements = b
	case "overlay.position":
		cfg.Overlay.Position = value
	case "overlay.background_rgba":
		cfg.Overlay.BackgroundRGBA = value
	case "overlay.opacity":
		f, err := parseLegacyFloat(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Overlay.Opacity = f
	case "audio.input":
		cfg.Audio.Input = value
	case "audio.fallback":
		cfg.Audio.Fallback = value
	case "paste.enable":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Paste.Enable = b
	case "paste.shortcut":
		cfg.Paste.Shortcut = value
	case "paste_cmd":
		argv, err := parseArgv(value)
		if err != nil {
			return fmt.Errorf("line %d: paste_cmd: %w", lineNum, err)
		}
		cfg.PasteCmd = CommandConfig{Raw: value, Argv: argv}
	case "clipboard_cmd":
		argv, err := parseArgv(value)
		if err != nil {
			return fmt.Errorf("line %d: clipboard_cmd: %w", lineNum, err)
		}
		cfg.Clipboard = CommandConfig{Raw: value, Argv: argv}
	case "indicator.enable":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Indicator.Enable = b
	case "indicator.backend":
		cfg.Indicator.Backend = value
	case "indicator.desktop_app_name":
		cfg.Indicator.DesktopAppName = value
	case "indicator.sound_enable":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Indicator.SoundEnable = b
	case "indicator.sound_start_file":
		cfg.Indicator.SoundStartFile = value
	case "indicator.sound_stop_file":
		cfg.Indicator.SoundStopFile = value
	case "indicator.sound_complete_file":
		cfg.Indicator.SoundCompleteFile = value
	case "indicator.sound_cancel_file":
		cfg.Indicator.SoundCancelFile = value
	case "indicator.height":
		n, err := parseLegacyInt(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Indicator.Height = n
	case "indicator.text_recording":
		cfg.Indicator.TextRecording = value
	case "indicator.text_processing":
		cfg.Indicator.TextProcessing = value
	case "indicator.text_error":
		cfg.Indicator.TextError = value
	case "indicator.error_timeout_ms":
		n, err := parseLegacyInt(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Indicator.ErrorTimeoutMS = n
	case "vocab.global":
		cfg.Vocab.GlobalSets = splitLegacyList(value)
	case "vocab.max_phrases":
		n, err := parseLegacyInt(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Vocab.MaxPhrases = n
	case "debug.enable_audio_dump":
		b, err := parseLegacyBool(value, lineNum)
		if err != nil {
			return err
		}
		cfg.Debug.EnableAudioDump = b
	default:
		return fmt.Errorf("line %d: unknown key %q", lineNum, key)
	}
	return nil
}
