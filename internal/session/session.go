// Package session implements the Session Coordinator (C8): the single
// owner of the dictation state machine, the processing-task scheduler, and
// the pending hide timer, per spec.md §4.8.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/justwhisper/justwhisper/internal/config"
	"github.com/justwhisper/justwhisper/internal/fsm"
	"github.com/justwhisper/justwhisper/internal/hotkey"
	"github.com/justwhisper/justwhisper/internal/ipc"
	"github.com/justwhisper/justwhisper/internal/output"
	"github.com/justwhisper/justwhisper/internal/speech"
	"github.com/justwhisper/justwhisper/internal/viewmodel"
)

// Hide delays for each ShowingMessage substate, per spec.md §4.8's
// allowed-transitions table.
const (
	cancelHideDelay   = 500 * time.Millisecond
	copyOnlyHideDelay = 1500 * time.Millisecond
	failureHideDelay  = 10 * time.Second
)

// thinking is the Thinking{mode, cancel} substate payload held alongside
// fsm.State. cancel is the single-flight processing task's cancellation
// token.
type thinking struct {
	mode   output.Mode
	cancel context.CancelFunc
}

// message is the ShowingMessage{kind, text, expiresAt} substate payload.
type message struct {
	kind      viewmodel.MessageKind
	text      string
	expiresAt time.Time
}

// Controller is the single owner of the session state machine. Hotkey and
// IPC intents are applied on the goroutine running Run; Handle only ever
// enqueues an intent and reads a snapshot. The processing task and the
// auto-hide timer apply their outcomes from their own goroutines, so state
// changes are serialized by mu rather than confined to one goroutine.
type Controller struct {
	logger *slog.Logger

	capture Capture
	speech  Speech
	cleaner Cleaner
	out     Output
	view    ViewModel
	cues    Cues
	hotkeys HotkeyMirror
	cfg     ConfigSource

	mu        sync.Mutex
	state     fsm.State
	thinking  thinking
	message   message
	hideTimer *time.Timer

	ipcIntents chan hotkey.Intent
}

// NewController constructs a session controller wired to its collaborators.
// A nil collaborator gets a safe no-op/placeholder fallback.
func NewController(
	logger *slog.Logger,
	capture Capture,
	spc Speech,
	cleaner Cleaner,
	out Output,
	view ViewModel,
	cues Cues,
	hotkeys HotkeyMirror,
	cfg ConfigSource,
) *Controller {
	if capture == nil {
		capture = PlaceholderCapture{}
	}
	if spc == nil {
		spc = PlaceholderSpeech{}
	}
	if cleaner == nil {
		cleaner = CleanerFunc(identityCleaner)
	}
	if out == nil {
		out = OutputFunc(func(context.Context, string, output.Mode) error { return nil })
	}
	if view == nil {
		view = viewmodel.New()
	}
	if cues == nil {
		cues = noopCues{}
	}
	if hotkeys == nil {
		hotkeys = noopHotkeyMirror{}
	}
	if cfg == nil {
		cfg = staticConfigSource{cfg: config.Default()}
	}

	return &Controller{
		logger:     logger,
		capture:    capture,
		speech:     spc,
		cleaner:    cleaner,
		out:        out,
		view:       view,
		cues:       cues,
		hotkeys:    hotkeys,
		cfg:        cfg,
		state:      fsm.StateHidden,
		ipcIntents: make(chan hotkey.Intent, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run drains intents from both C5 (the real event-tap queue) and IPC
// (enqueued by Handle) until ctx is cancelled. Both sources feed the same
// single-threaded dispatch path, preserving C8's single-writer invariant.
func (c *Controller) Run(ctx context.Context, hotkeyIntents <-chan hotkey.Intent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case intent := <-hotkeyIntents:
			c.handleIntent(ctx, intent)
		case intent := <-c.ipcIntents:
			c.handleIntent(ctx, intent)
		}
	}
}

func (c *Controller) handleIntent(ctx context.Context, intent hotkey.Intent) {
	switch intent {
	case hotkey.StartOrStop:
		c.onStartOrStop(ctx)
	case hotkey.StopCopyOnly:
		c.onStopCopyOnly()
	case hotkey.Cancel:
		c.onCancel()
	}
}

// onStartOrStop handles the Primary key/command: Hidden or ShowingMessage
// start a new recording; Recording stops into Thinking{Paste}.
func (c *Controller) onStartOrStop(ctx context.Context) {
	current := c.State()

	next, err := fsm.Transition(current, fsm.EventStartOrStop)
	if err != nil {
		return
	}

	switch next {
	case fsm.StateRecording:
		c.beginRecording(ctx)
	case fsm.StateThinking:
		c.beginProcessing(output.Paste)
	}
}

// onStopCopyOnly handles the CopyOnly key/command: only legal from
// Recording, stopping into Thinking{CopyOnly}.
func (c *Controller) onStopCopyOnly() {
	current := c.State()

	next, err := fsm.Transition(current, fsm.EventStopCopyOnly)
	if err != nil {
		return
	}
	if next == fsm.StateThinking {
		c.beginProcessing(output.CopyOnly)
	}
}

// onCancel handles the Cancel key/command from Recording or Thinking.
func (c *Controller) onCancel() {
	current := c.State()

	if _, err := fsm.Transition(current, fsm.EventCancel); err != nil {
		return
	}

	switch current {
	case fsm.StateRecording:
		_, _ = c.capture.Stop()
		c.hotkeys.ResetRecordingState(false)
		c.cues.CueCancel(context.Background())
		c.toShowingMessage(fsm.EventCancel, viewmodel.Error, "Recording canceled", cancelHideDelay)
	case fsm.StateThinking:
		c.mu.Lock()
		cancel := c.thinking.cancel
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		c.cues.CueCancel(context.Background())
		c.toShowingMessage(fsm.EventCancel, viewmodel.Error, "Transcription canceled", cancelHideDelay)
	}
}

// beginRecording re-reads and reapplies overlay appearance, starts C4, and
// enters Recording. A capture failure surfaces "Failed to start recording"
// and the coordinator stays Hidden.
func (c *Controller) beginRecording(ctx context.Context) {
	c.mu.Lock()
	c.stopHideTimerLocked()
	c.message = message{}
	c.mu.Unlock()

	c.cues.ApplyOverlayAppearance(c.cfg.Get().Overlay)

	if err := c.capture.Start(ctx); err != nil {
		c.logErr("start recording failed", err)
		// fsm has no Hidden→ShowingMessage edge (Start never committed to a
		// session); flash the failure on the view model only and stay Hidden.
		c.flashError("Failed to start recording", failureHideDelay)
		return
	}

	c.mu.Lock()
	c.state = fsm.StateRecording
	c.mu.Unlock()

	c.hotkeys.ResetRecordingState(true)
	c.view.SetRecording(0)
	c.logInfo("recording started")
}

// beginProcessing stops C4 synchronously on the coordinator goroutine (so
// Stop() joining the writer precedes any read, per spec.md §5), then spawns
// the processing task with its own cancellation token stored in Thinking.
func (c *Controller) beginProcessing(mode output.Mode) {
	captureResult, captureErr := c.capture.Stop()
	c.hotkeys.ResetRecordingState(false)
	c.cues.CueStop(context.Background())

	processCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.stopHideTimerLocked()
	c.state = fsm.StateThinking
	c.thinking = thinking{mode: mode, cancel: cancel}
	c.mu.Unlock()

	c.view.SetThinking()
	c.logInfo("processing started", "mode", modeName(mode))

	go c.process(processCtx, captureResult, captureErr, mode)
}

// process is the Thinking body from spec.md §4.8: read the PCM file (via
// CaptureResult, already resolved), transcribe, clean, and emit. Every step
// checks processCtx after resuming and discards late completions silently.
func (c *Controller) process(processCtx context.Context, capture CaptureResult, captureErr error, mode output.Mode) {
	if captureErr != nil {
		c.finishProcessing(processCtx, fmt.Errorf("stop recording: %w", captureErr))
		return
	}
	if processCtx.Err() != nil {
		return
	}

	raw, err := c.speech.Transcribe(processCtx, capture.Path)
	if processCtx.Err() != nil {
		return
	}
	if err != nil {
		c.finishProcessing(processCtx, err)
		return
	}

	cleaned := c.cleaner.Clean(processCtx, raw)
	if processCtx.Err() != nil {
		return
	}

	if strings.TrimSpace(cleaned) == "" {
		c.finishProcessing(processCtx, ErrEmptyTranscript)
		return
	}

	if err := c.out.Emit(processCtx, cleaned, mode); err != nil {
		c.finishProcessing(processCtx, fmt.Errorf("emit output: %w", err))
		return
	}

	c.finishProcessing(processCtx, nil)
}

// finishProcessing applies the processing task's outcome, first confirming
// this is still the active task (a Cancel may have already moved the
// coordinator out of Thinking, in which case the completion is discarded).
func (c *Controller) finishProcessing(processCtx context.Context, err error) {
	c.mu.Lock()
	if c.state != fsm.StateThinking || processCtx.Err() != nil {
		c.mu.Unlock()
		return
	}
	mode := c.thinking.mode
	c.mu.Unlock()

	switch {
	case errors.Is(err, ErrEmptyTranscript):
		c.toShowingMessage(fsm.EventFailed, viewmodel.Error, "No speech detected", failureHideDelay)
	case err != nil:
		c.logErr("processing failed", err)
		c.toShowingMessage(fsm.EventFailed, viewmodel.Error, userMessageFor(err), failureHideDelay)
	case mode == output.CopyOnly:
		c.cues.CueComplete(context.Background())
		c.toShowingMessage(fsm.EventCopySucceeded, viewmodel.Success, "Copied to clipboard", copyOnlyHideDelay)
	default:
		c.cues.CueComplete(context.Background())
		c.toHidden(fsm.EventPasteSucceeded)
	}
}

// toShowingMessage applies event (always landing on StateShowingMessage per
// fsm.go's table), arms the hide timer, and publishes the message.
func (c *Controller) toShowingMessage(event fsm.Event, kind viewmodel.MessageKind, text string, hideAfter time.Duration) {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.mu.Unlock()
		c.logErr("showing-message transition rejected", err)
		return
	}
	c.stopHideTimerLocked()
	c.state = next
	c.message = message{kind: kind, text: text, expiresAt: time.Now().Add(hideAfter)}
	c.hideTimer = time.AfterFunc(hideAfter, c.onHideTimerExpired)
	c.mu.Unlock()

	c.view.SetMessage(kind, text)
}

// flashError publishes a transient error to the view model without any fsm
// transition, for failures that occur before a session formally began
// (e.g. Capture.Start failing from Hidden, which fsm.go has no edge for).
func (c *Controller) flashError(text string, hideAfter time.Duration) {
	c.mu.Lock()
	c.stopHideTimerLocked()
	c.hideTimer = time.AfterFunc(hideAfter, func() { c.view.SetIdle() })
	c.mu.Unlock()

	c.view.SetMessage(viewmodel.Error, text)
}

// toHidden applies event (always landing on StateHidden).
func (c *Controller) toHidden(event fsm.Event) {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.mu.Unlock()
		c.logErr("hidden transition rejected", err)
		return
	}
	c.stopHideTimerLocked()
	c.state = next
	c.thinking = thinking{}
	c.message = message{}
	c.mu.Unlock()

	c.view.SetIdle()
}

// onHideTimerExpired fires EventTimerExpired. Guarded against a state
// change that already happened between arming and firing.
func (c *Controller) onHideTimerExpired() {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, fsm.EventTimerExpired)
	if err != nil {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.message = message{}
	c.mu.Unlock()

	c.view.SetIdle()
}

// stopHideTimerLocked cancels any pending hide timer. Caller holds c.mu.
func (c *Controller) stopHideTimerLocked() {
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
}

// Handle serves IPC commands, translating them into the same intents the
// Hotkey Controller emits and enqueuing them onto ipcIntents rather than
// mutating state directly.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return ipc.Response{OK: true, State: string(c.State()), Message: "status"}
	case "toggle":
		return c.enqueue(hotkey.StartOrStop, req.Command)
	case "stop":
		if state := c.State(); state != fsm.StateRecording {
			return ipc.Response{OK: true, State: string(state), Message: "not recording"}
		}
		return c.enqueue(hotkey.StartOrStop, req.Command)
	case "cancel":
		return c.enqueue(hotkey.Cancel, req.Command)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// enqueue posts intent onto ipcIntents without blocking; a full queue means
// a request is already pending, which is reported rather than stalled on.
func (c *Controller) enqueue(intent hotkey.Intent, source string) ipc.Response {
	state := c.State()
	select {
	case c.ipcIntents <- intent:
		return ipc.Response{OK: true, State: string(state), Message: source + " requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: source + " already requested"}
	}
}

// userMessageFor maps a processing failure to the UI text spec.md §7's
// error taxonomy specifies. Unrecognized errors fall back to a generic
// "Output dispatch failed" wording.
func userMessageFor(err error) string {
	var speechErr *speech.Error
	if errors.As(err, &speechErr) {
		switch speechErr.Kind {
		case speech.MissingCredential, speech.InvalidEndpoint:
			return "Configure speech provider in Preferences"
		case speech.Http:
			return fmt.Sprintf("Error: HTTP %d", speechErr.StatusCode)
		case speech.Io:
			return "Network error. Check your connection."
		case speech.ResponseParse, speech.AudioConversion:
			return "Transcription failed"
		}
	}
	return "Output dispatch failed"
}

func modeName(mode output.Mode) string {
	if mode == output.CopyOnly {
		return "copy_only"
	}
	return "paste"
}

func (c *Controller) logInfo(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, args...)
}

func (c *Controller) logErr(message string, err error) {
	if c.logger == nil || err == nil {
		return
	}
	c.logger.Error(message, "error", err.Error())
}
