package session

import (
	"context"
	"errors"

	"github.com/justwhisper/justwhisper/internal/config"
	"github.com/justwhisper/justwhisper/internal/output"
	"github.com/justwhisper/justwhisper/internal/viewmodel"
)

// ErrEmptyTranscript indicates the processing task produced only whitespace,
// per spec.md §4.8's "if result is whitespace" rule.
var ErrEmptyTranscript = errors.New("no speech recognized")

// CaptureResult describes a finished recording handed off to the processing
// task. The audio thread owns the file until Capture.Stop returns it; per
// spec.md §5, Stop() joining the writer must precede any read.
type CaptureResult struct {
	Path          string
	AudioDevice   string
	BytesCaptured int64
}

// Capture is the session-facing subset of the Recorder (C4) the coordinator
// drives directly: start on Hidden→Recording, stop on the way into Thinking.
// Per-buffer level updates bypass the coordinator entirely and go straight
// from C4 to the Overlay View Model (C10), so they are not modeled here.
type Capture interface {
	Start(ctx context.Context) error
	Stop() (CaptureResult, error)
}

// Speech is the session-facing subset of the Speech Client (C7): a one-shot
// upload of the finished recording.
type Speech interface {
	Transcribe(ctx context.Context, pcmPath string) (string, error)
}

// Cleaner is the session-facing subset of the Transcript Cleaner (C6):
// either the deterministic pipeline or the LLM-enhanced variant, chosen by
// config at construction time.
type Cleaner interface {
	Clean(ctx context.Context, raw string) string
}

// Output is the session-facing subset of the Output Sink (C9).
type Output interface {
	Emit(ctx context.Context, text string, mode output.Mode) error
}

// OutputFunc adapts a function to the Output interface.
type OutputFunc func(context.Context, string, output.Mode) error

func (f OutputFunc) Emit(ctx context.Context, text string, mode output.Mode) error {
	return f(ctx, text, mode)
}

// ViewModel is the session-facing subset of the Overlay View Model (C10).
// *viewmodel.Store satisfies this directly.
type ViewModel interface {
	SetIdle()
	SetRecording(level float64)
	SetThinking()
	SetMessage(kind viewmodel.MessageKind, text string)
}

// Cues plays the audio cues and carries the bits of indicator behavior that
// are not representable as pure view-model state: per-cue sounds, and the
// live overlay-appearance reapply spec.md §4.8 requires on every
// Hidden→Recording transition.
type Cues interface {
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	ApplyOverlayAppearance(config.OverlayConfig)
}

// noopCues preserves session flow when no cue sink is wired.
type noopCues struct{}

func (noopCues) CueStop(context.Context)                     {}
func (noopCues) CueComplete(context.Context)                 {}
func (noopCues) CueCancel(context.Context)                   {}
func (noopCues) ApplyOverlayAppearance(config.OverlayConfig) {}

// HotkeyMirror lets the coordinator mirror its recording flag into the
// Hotkey Controller (C5), which only grabs the CopyOnly/Cancel keys while
// recording is active.
type HotkeyMirror interface {
	ResetRecordingState(recording bool)
}

// noopHotkeyMirror preserves session flow when no hotkey controller is wired.
type noopHotkeyMirror struct{}

func (noopHotkeyMirror) ResetRecordingState(bool) {}

// ConfigSource hands back an immutable config snapshot. *config.Store
// satisfies this directly.
type ConfigSource interface {
	Get() config.Config
}

// staticConfigSource adapts a fixed config.Config to ConfigSource, for
// runs with no live Config Store wired.
type staticConfigSource struct{ cfg config.Config }

func (s staticConfigSource) Get() config.Config { return s.cfg }

// PlaceholderCapture is a no-op Capture used when no recorder is wired.
type PlaceholderCapture struct{}

func (PlaceholderCapture) Start(context.Context) error { return nil }
func (PlaceholderCapture) Stop() (CaptureResult, error) {
	return CaptureResult{}, errors.New("no capture pipeline wired")
}

// PlaceholderSpeech is a no-op Speech used when no speech client is wired.
type PlaceholderSpeech struct{}

func (PlaceholderSpeech) Transcribe(context.Context, string) (string, error) {
	return "", errors.New("no speech pipeline wired")
}

// CleanerFunc adapts a function to the Cleaner interface.
type CleanerFunc func(ctx context.Context, raw string) string

func (f CleanerFunc) Clean(ctx context.Context, raw string) string { return f(ctx, raw) }

// identityCleaner passes text through unchanged; used only as a safe
// zero-value fallback.
func identityCleaner(_ context.Context, raw string) string { return raw }
