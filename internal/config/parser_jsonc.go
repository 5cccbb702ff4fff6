package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	GlobalEnable *bool `json:"global_enable"`

	SpeechProvider *string             `json:"speech_provider"`
	AzureWhisper   *jsoncAzureWhisper  `json:"azure_whisper"`
	OpenAIWhisper  *jsoncOpenAIWhisper `json:"openai_whisper"`

	UseLLMEnhancement *bool            `json:"use_llm_enhancement"`
	ChatProvider      *string          `json:"chat_provider"`
	AzureChat         *jsoncAzureChat  `json:"azure_chat"`
	OpenAIChat        *jsoncOpenAIChat `json:"openai_chat"`

	Cleaner   *jsoncCleaner   `json:"cleaner"`
	Overlay   *jsoncOverlay   `json:"overlay"`
	Audio     *jsoncAudio     `json:"audio"`
	Paste     *jsoncPaste     `json:"paste"`
	Indicator *jsoncIndicator `json:"indicator"`

	ClipboardCmd *string     `json:"clipboard_cmd"`
	PasteCmd     *string     `json:"paste_cmd"`
	Vocab        *jsoncVocab `json:"vocab"`
	Debug        *jsoncDebug `json:"debug"`
}

type jsoncAzureWhisper struct {
	APIKey     *string `json:"api_key"`
	Endpoint   *string `json:"endpoint"`
	Deployment *string `json:"deployment"`
	APIVersion *string `json:"api_version"`
}

type jsoncOpenAIWhisper struct {
	APIKey  *string `json:"api_key"`
	Model   *string `json:"model"`
	BaseURL *string `json:"base_url"`
}

type jsoncAzureChat struct {
	APIKey     *string `json:"api_key"`
	Endpoint   *string `json:"endpoint"`
	Deployment *string `json:"deployment"`
	APIVersion *string `json:"api_version"`
}

type jsoncOpenAIChat struct {
	APIKey  *string `json:"api_key"`
	Model   *string `json:"model"`
	BaseURL *string `json:"base_url"`
}

type jsoncCleaner struct {
	RemoveFillers                  *bool `json:"remove_fillers"`
	ProcessLineBreakCommands       *bool `json:"process_line_break_commands"`
	ProcessPunctuationCommands     *bool `json:"process_punctuation_commands"`
	ProcessFormattingCommands      *bool `json:"process_formatting_commands"`
	ApplySelfCorrection            *bool `json:"apply_self_correction"`
	AutomaticCapitalization        *bool `json:"automatic_capitalization"`
	ApplyWordReplacements          *bool `json:"apply_word_replacements"`
	UseIntelligentWordReplacements *bool `json:"use_intelligent_word_replacements"`
}

type jsoncOverlay struct {
	Position       *string  `json:"position"`
	BackgroundRGBA *string  `json:"background_rgba"`
	Opacity        *float64 `json:"opacity"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncPaste struct {
	Enable   *bool   `json:"enable"`
	Shortcut *string `json:"shortcut"`
}

type jsoncIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file"`
	Height            *int    `json:"height"`
	TextRecording     *string `json:"text_recording"`
	TextProcessing    *string `json:"text_processing"`
	TextError         *string `json:"text_error"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type jsoncVocab struct {
	Global     *jsoncStringList         `json:"global"`
	MaxPhrases *int                     `json:"max_phrases"`
	Sets       map[string]jsoncVocabSet `json:"sets"`
}

type jsoncVocabSet struct {
	Boost   *float64 `json:"boost"`
	Phrases []string `json:"phrases"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.GlobalEnable != nil {
		cfg.GlobalEnable = *payload.GlobalEnable
	}

	if payload.SpeechProvider != nil {
		cfg.SpeechProvider = strings.TrimSpace(*payload.SpeechProvider)
	}
	if payload.AzureWhisper != nil {
		a := payload.AzureWhisper
		if a.APIKey != nil {
			cfg.AzureWhisper.APIKey = *a.APIKey
		}
		if a.Endpoint != nil {
			cfg.AzureWhisper.Endpoint = *a.Endpoint
		}
		if a.Deployment != nil {
			cfg.AzureWhisper.Deployment = *a.Deployment
		}
		if a.APIVersion != nil {
			cfg.AzureWhisper.APIVersion = *a.APIVersion
		}
	}
	if payload.OpenAIWhisper != nil {
		o := payload.OpenAIWhisper
		if o.APIKey != nil {
			cfg.OpenAIWhisper.APIKey = *o.APIKey
		}
		if o.Model != nil {
			cfg.OpenAIWhisper.Model = *o.Model
		}
		if o.BaseURL != nil {
			cfg.OpenAIWhisper.BaseURL = *o.BaseURL
		}
	}

	if payload.UseLLMEnhancement != nil {
		cfg.UseLLMEnhancement = *payload.UseLLMEnhancement
	}
	if payload.ChatProvider != nil {
		cfg.ChatProvider = strings.TrimSpace(*payload.ChatProvider)
	}
	if payload.AzureChat != nil {
		a := payload.AzureChat
		if a.APIKey != nil {
			cfg.AzureChat.APIKey = *a.APIKey
		}
		if a.Endpoint != nil {
			cfg.AzureChat.Endpoint = *a.Endpoint
		}
		if a.Deployment != nil {
			cfg.AzureChat.Deployment = *a.Deployment
		}
		if a.APIVersion != nil {
			cfg.AzureChat.APIVersion = *a.APIVersion
		}
	}
	if payload.OpenAIChat != nil {
		o := payload.OpenAIChat
		if o.APIKey != nil {
			cfg.OpenAIChat.APIKey = *o.APIKey
		}
		if o.Model != nil {
			cfg.OpenAIChat.Model = *o.Model
		}
		if o.BaseURL != nil {
			cfg.OpenAIChat.BaseURL = *o.BaseURL
		}
	}

	if payload.Cleaner != nil {
		c := payload.Cleaner
		if c.RemoveFillers != nil {
			cfg.Cleaner.RemoveFillers = *c.RemoveFillers
		}
		if c.ProcessLineBreakCommands != nil {
			cfg.Cleaner.ProcessLineBreakCommands = *c.ProcessLineBreakCommands
		}
		if c.ProcessPunctuationCommands != nil {
			cfg.Cleaner.ProcessPunctuationCommands = *c.ProcessPunctuationCommands
		}
		if c.ProcessFormattingCommands != nil {
			cfg.Cleaner.ProcessFormattingCommands = *c.ProcessFormattingCommands
		}
		if c.ApplySelfCorrection != nil {
			cfg.Cleaner.ApplySelfCorrection = *c.ApplySelfCorrection
		}
		if c.AutomaticCapitalization != nil {
			cfg.Cleaner.AutomaticCapitalization = *c.AutomaticCapitalization
		}
		if c.ApplyWordReplacements != nil {
			cfg.Cleaner.ApplyWordReplacements = *c.ApplyWordReplacements
		}
		if c.UseIntelligentWordReplacements != nil {
			cfg.Cleaner.UseIntelligentWordReplacements = *c.UseIntelligentWordReplacements
		}
	}

	if payload.Overlay != nil {
		o := payload.Overlay
		if o.Position != nil {
			cfg.Overlay.Position = strings.TrimSpace(*o.Position)
		}
		if o.BackgroundRGBA != nil {
			cfg.Overlay.BackgroundRGBA = strings.TrimSpace(*o.BackgroundRGBA)
		}
		if o.Opacity != nil {
			cfg.Overlay.Opacity = *o.Opacity
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Paste != nil {
		if payload.Paste.Enable != nil {
			cfg.Paste.Enable = *payload.Paste.Enable
		}
		if payload.Paste.Shortcut != nil {
			cfg.Paste.Shortcut = strings.TrimSpace(*payload.Paste.Shortcut)
		}
	}

	if payload.Indicator != nil {
		p := payload.Indicator
		if p.Enable != nil {
			cfg.Indicator.Enable = *p.Enable
		}
		if p.Backend != nil {
			cfg.Indicator.Backend = strings.TrimSpace(*p.Backend)
		}
		if p.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*p.DesktopAppName)
		}
		if p.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *p.SoundEnable
		}
		if p.SoundStartFile != nil {
			cfg.Indicator.SoundStartFile = *p.SoundStartFile
		}
		if p.SoundStopFile != nil {
			cfg.Indicator.SoundStopFile = *p.SoundStopFile
		}
		if p.SoundCompleteFile != nil {
			cfg.Indicator.SoundCompleteFile = *p.SoundCompleteFile
		}
		if p.SoundCancelFile != nil {
			cfg.Indicator.SoundCancelFile = *p.SoundCancelFile
		}
		if p.Height != nil {
			cfg.Indicator.Height = *p.Height
		}
		if p.TextRecording != nil {
			cfg.Indicator.TextRecording = *p.TextRecording
		}
		if p.TextProcessing != nil {
			cfg.Indicator.TextProcessing = *p.TextProcessing
		}
		if p.TextError != nil {
			cfg.Indicator.TextError = *p.TextError
		}
		if p.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *p.ErrorTimeoutMS
		}
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.PasteCmd != nil {
		raw := *payload.PasteCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid paste_cmd: %w", err)
		}
		cfg.PasteCmd = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.Vocab != nil {
		if payload.Vocab.Global != nil {
			cfg.Vocab.GlobalSets = cfg.Vocab.GlobalSets[:0]
			for _, name := range *payload.Vocab.Global {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				cfg.Vocab.GlobalSets = append(cfg.Vocab.GlobalSets, name)
			}
		}
		if payload.Vocab.MaxPhrases != nil {
			cfg.Vocab.MaxPhrases = *payload.Vocab.MaxPhrases
		}
		if payload.Vocab.Sets != nil {
			if cfg.Vocab.Sets == nil {
				cfg.Vocab.Sets = make(map[string]VocabSet)
			}
			for name, set := range payload.Vocab.Sets {
				trimmedName := strings.TrimSpace(name)
				if trimmedName == "" {
					return nil, fmt.Errorf("vocab.sets contains an empty set name")
				}

				phrases := make([]string, 0, len(set.Phrases))
				phrases = append(phrases, set.Phrases...)

				entry := VocabSet{Name: trimmedName, Phrases: phrases}
				if set.Boost != nil {
					entry.Boost = *set.Boost
				}
				cfg.Vocab.Sets[trimmedName] = entry
			}
		}
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}

	return warnings, nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
