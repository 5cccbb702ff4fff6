package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSpeechPhrasesSortedAndHighestBoostWins(t *testing.T) {
	cfg := Default()
	cfg.Vocab.GlobalSets = []string{"core", "team"}
	cfg.Vocab.Sets["core"] = VocabSet{Name: "core", Boost: 10, Phrases: []string{"beta", "alpha"}}
	cfg.Vocab.Sets["team"] = VocabSet{Name: "team", Boost: 20, Phrases: []string{"alpha", "gamma"}}

	phrases, warnings, err := BuildSpeechPhrases(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, []SpeechPhrase{
		{Phrase: "alpha", Boost: 20},
		{Phrase: "beta", Boost: 10},
		{Phrase: "gamma", Boost: 20},
	}, phrases)

	require.Equal(t, "alpha, beta, gamma", PromptHint(phrases))
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty speech provider", mutate: func(c *Config) { c.SpeechProvider = "" }, wantErr: "speech_provider"},
		{name: "invalid speech provider", mutate: func(c *Config) { c.SpeechProvider = "bogus" }, wantErr: "speech_provider"},
		{name: "llm enhancement without chat provider", mutate: func(c *Config) {
			c.UseLLMEnhancement = true
			c.ChatProvider = ""
		}, wantErr: "chat_provider"},
		{name: "invalid overlay position", mutate: func(c *Config) { c.Overlay.Position = "middle" }, wantErr: "overlay.position"},
		{name: "overlay opacity too low", mutate: func(c *Config) { c.Overlay.Opacity = 0.1 }, wantErr: "overlay.opacity"},
		{name: "overlay opacity too high", mutate: func(c *Config) { c.Overlay.Opacity = 1.5 }, wantErr: "overlay.opacity"},
		{name: "empty overlay background", mutate: func(c *Config) { c.Overlay.BackgroundRGBA = "" }, wantErr: "overlay.background_rgba"},
		{name: "invalid indicator height", mutate: func(c *Config) { c.Indicator.Height = 0 }, wantErr: "indicator.height"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
		{name: "invalid max phrases", mutate: func(c *Config) { c.Vocab.MaxPhrases = 0 }, wantErr: "vocab.max_phrases"},
		{name: "empty clipboard argv", mutate: func(c *Config) { c.Clipboard.Argv = nil }, wantErr: "clipboard_cmd"},
		{name: "paste command raw but empty argv", mutate: func(c *Config) {
			c.Paste.Enable = true
			c.PasteCmd.Raw = "mycmd"
			c.PasteCmd.Argv = nil
		}, wantErr: "paste_cmd"},
		{name: "missing paste shortcut when using default paste", mutate: func(c *Config) {
			c.Paste.Enable = true
			c.PasteCmd = CommandConfig{}
			c.Paste.Shortcut = ""
		}, wantErr: "paste.shortcut"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestProviderConfigUsableRequiresEveryField(t *testing.T) {
	az := AzureWhisperConfig{APIKey: "k", Endpoint: "e", Deployment: "d"}
	require.False(t, az.Usable())
	az.APIVersion = "2024-02-01"
	require.True(t, az.Usable())

	oa := OpenAIChatConfig{APIKey: "k", Model: "gpt-4o-mini"}
	require.False(t, oa.Usable())
	oa.BaseURL = "https://api.openai.com/v1"
	require.True(t, oa.Usable())
}
