// Package config resolves, parses, validates, and defaults JustWhisper's
// runtime configuration, and exposes it as an observable store (store.go).
package config

// Config is the fully materialized runtime configuration used by JustWhisper.
type Config struct {
	GlobalEnable bool

	SpeechProvider string
	AzureWhisper   AzureWhisperConfig
	OpenAIWhisper  OpenAIWhisperConfig

	UseLLMEnhancement bool
	ChatProvider      string
	AzureChat         AzureChatConfig
	OpenAIChat        OpenAIChatConfig

	Cleaner   CleanerOptions
	Overlay   OverlayConfig
	Audio     AudioConfig
	Paste     PasteConfig
	Indicator IndicatorConfig
	Clipboard CommandConfig
	PasteCmd  CommandConfig
	Vocab     VocabConfig
	Debug     DebugConfig
}

// AzureWhisperConfig is the Azure OpenAI transcription provider variant of
// ProviderConfig. Usable iff every field is non-empty.
type AzureWhisperConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// Usable reports whether every credential field is populated.
func (c AzureWhisperConfig) Usable() bool {
	return c.APIKey != "" && c.Endpoint != "" && c.Deployment != "" && c.APIVersion != ""
}

// OpenAIWhisperConfig is the OpenAI-hosted transcription provider variant.
type OpenAIWhisperConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Usable reports whether every credential field is populated.
func (c OpenAIWhisperConfig) Usable() bool {
	return c.APIKey != "" && c.Model != "" && c.BaseURL != ""
}

// AzureChatConfig is the Azure OpenAI chat-completion provider variant used
// for the optional LLM transcript-enhancement stage.
type AzureChatConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// Usable reports whether every credential field is populated.
func (c AzureChatConfig) Usable() bool {
	return c.APIKey != "" && c.Endpoint != "" && c.Deployment != "" && c.APIVersion != ""
}

// OpenAIChatConfig is the OpenAI-hosted chat-completion provider variant.
type OpenAIChatConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Usable reports whether every credential field is populated.
func (c OpenAIChatConfig) Usable() bool {
	return c.APIKey != "" && c.Model != "" && c.BaseURL != ""
}

// CleanerOptions are the transcript-cleaning stage toggles, applied in the
// fixed order documented on the transcript package.
type CleanerOptions struct {
	RemoveFillers                  bool
	ProcessLineBreakCommands       bool
	ProcessPunctuationCommands     bool
	ProcessFormattingCommands      bool
	ApplySelfCorrection            bool
	AutomaticCapitalization        bool
	ApplyWordReplacements          bool
	UseIntelligentWordReplacements bool
}

// OverlayConfig controls the recording overlay's live-reconfigurable
// appearance: position, background color, and opacity.
type OverlayConfig struct {
	Position       string
	BackgroundRGBA string
	Opacity        float64
}

// AudioConfig controls preferred and fallback input-source selection. Input
// doubles as the persisted selectedDeviceUID: "default" is the sentinel for
// "follow OS default input."
type AudioConfig struct {
	Input    string
	Fallback string
}

// PasteConfig controls post-commit paste behavior.
type PasteConfig struct {
	Enable   bool
	Shortcut string
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	Height            int
	TextRecording     string
	TextProcessing    string
	TextError         string
	ErrorTimeoutMS    int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// VocabConfig controls enabled prompt-hint phrase sets fed to the Speech
// Client's "prompt" field, plus the dedupe/size limit applied when merging
// them.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value. Boost has no
// wire-level meaning for the Whisper REST API (which takes a free-text
// prompt, not weighted terms); it only ranks phrases when two sets disagree
// on a shared phrase.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is one normalized phrase destined for the Whisper prompt hint.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
