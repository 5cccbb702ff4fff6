package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		GlobalEnable:   true,
		SpeechProvider: "openai",
		ChatProvider:   "openai",
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Paste: PasteConfig{Enable: true, Shortcut: "CTRL,V"},
		Cleaner: CleanerOptions{
			RemoveFillers:              true,
			ProcessLineBreakCommands:   true,
			ProcessPunctuationCommands: true,
			ProcessFormattingCommands:  true,
			ApplySelfCorrection:        true,
			AutomaticCapitalization:    true,
			ApplyWordReplacements:      true,
		},
		Overlay: OverlayConfig{
			Position:       "bottom-right",
			BackgroundRGBA: "#1A1A1ACC",
			Opacity:        0.9,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "justwhisper-indicator",
			SoundEnable:    true,
			Height:         28,
			TextRecording:  "Recording…",
			TextProcessing: "Thinking…",
			TextError:      "Error",
			ErrorTimeoutMS: 1600,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Vocab: VocabConfig{
			GlobalSets: nil,
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		Debug: DebugConfig{},
	}
}
