package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/justwhisper/justwhisper/internal/audio"
	"github.com/justwhisper/justwhisper/internal/cli"
	"github.com/justwhisper/justwhisper/internal/config"
	"github.com/justwhisper/justwhisper/internal/doctor"
	"github.com/justwhisper/justwhisper/internal/hotkey"
	"github.com/justwhisper/justwhisper/internal/indicator"
	"github.com/justwhisper/justwhisper/internal/ipc"
	"github.com/justwhisper/justwhisper/internal/logging"
	"github.com/justwhisper/justwhisper/internal/logring"
	"github.com/justwhisper/justwhisper/internal/output"
	"github.com/justwhisper/justwhisper/internal/permission"
	"github.com/justwhisper/justwhisper/internal/recorder"
	"github.com/justwhisper/justwhisper/internal/session"
	"github.com/justwhisper/justwhisper/internal/speech"
	"github.com/justwhisper/justwhisper/internal/transcript"
	"github.com/justwhisper/justwhisper/internal/version"
	"github.com/justwhisper/justwhisper/internal/viewmodel"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("justwhisper"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("justwhisper"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	if speechPlan, _, err := config.BuildSpeechPhrases(cfgLoaded.Config); err == nil {
		logger.Debug("speech context plan", "phrase_count", len(speechPlan), "phrases", speechPlan)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, "stop")
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, "cancel")
	case cli.CommandToggle:
		return r.commandToggle(ctx, parsed.ConfigPath, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active justwhisper session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandToggle is JustWhisper's combined "start the daemon if none is
// running, then toggle recording" entrypoint, matching how a global hotkey
// binding invokes the CLI: the first invocation becomes the long-running
// daemon (serving IPC and the hotkey event-tap for the rest of its life);
// every subsequent invocation just forwards the toggle over the socket.
func (r Runner) commandToggle(ctx context.Context, configPath string, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, "toggle")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return 0
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, "toggle")
			if forwardErr != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", forwardErr)
				return 1
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	daemonCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	controller, hotkeys, cleanup, err := buildDaemon(daemonCtx, configPath, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: start daemon: %v\n", err)
		return 1
	}
	defer cleanup()

	serverErrCh := make(chan error, 1)
	go func() { serverErrCh <- ipc.Serve(daemonCtx, listener, controller) }()

	// The invocation that stood up the daemon is itself the toggle that was
	// requested; enqueue it the same way a forwarded IPC command would.
	controller.Handle(daemonCtx, ipc.Request{Command: "toggle"})

	runErr := controller.Run(daemonCtx, hotkeys.Intents())

	if serverErr := <-serverErrCh; serverErr != nil && !errors.Is(serverErr, context.Canceled) {
		logger.Error("ipc server failed", "error", serverErr.Error())
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}

// buildDaemon wires every collaborator the Session Coordinator (C8) depends
// on and returns the controller, the Hotkey Controller it should drain
// intents from, and a cleanup func releasing every long-lived resource.
func buildDaemon(ctx context.Context, configPath string, logger *slog.Logger) (*session.Controller, *hotkey.Controller, func(), error) {
	store, warnings, err := config.Open(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open config store: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	if err := store.Watch(); err != nil {
		logger.Warn("config file watch unavailable; live reload disabled", "error", err.Error())
	}

	ring := logring.New()

	gate := permission.New(permission.CompositeChecker{
		Microphone: permission.NewMicrophoneChecker(),
		// golang.design/x/hotkey exposes no separate permission probe; tap
		// registration success/failure is itself the real-world signal, and
		// hotkey.Controller.Start already retries its own installation.
		InputMonitoring: permission.CheckerFunc(alwaysGranted),
	})
	gate.StartPolling(ctx)

	viewModel := viewmodel.New()
	indicatorCtl := indicator.NewHyprNotify(store.Get().Indicator, logger)
	viewModel.Subscribe(func(state viewmodel.State) {
		mirrorViewState(ctx, indicatorCtl, state)
	})

	rec := recorder.New(func(level float64) { viewModel.SetRecording(level) })
	capture := &captureAdapter{rec: rec, store: store, gate: gate}

	hotkeys := hotkey.New()
	watchGlobalEnable(ctx, store, hotkeys, gate)

	go watchDevices(ctx, store, rec, gate)

	controller := session.NewController(
		logger,
		capture,
		speechAdapter{store: store, ring: ring},
		cleanerAdapter{store: store},
		outputAdapter{store: store, logger: logger},
		viewModel,
		indicatorCtl,
		hotkeys,
		store,
	)

	cleanup := func() {
		hotkeys.Stop()
		_ = gate.Close()
		_ = store.Close()
	}

	return controller, hotkeys, cleanup, nil
}

func alwaysGranted(context.Context, permission.Capability) (permission.Status, error) {
	return permission.Granted, nil
}

// watchGlobalEnable installs the Hotkey Controller's tap iff the config's
// Enable flag is currently on, and tears it down/reinstalls it as the flag
// is toggled live, per spec.md §4.5's "clearing the Enable flag tears down
// the hotkey tap" rule.
func watchGlobalEnable(ctx context.Context, store *config.Store, hotkeys *hotkey.Controller, gate *permission.Gate) {
	enabled := store.Get().GlobalEnable
	if enabled {
		hotkeys.Start(ctx, gate)
	}

	var mu sync.Mutex
	store.Subscribe(func(cfg config.Config) {
		mu.Lock()
		defer mu.Unlock()
		if cfg.GlobalEnable == enabled {
			return
		}
		enabled = cfg.GlobalEnable
		if enabled {
			hotkeys.Start(ctx, gate)
		} else {
			hotkeys.Stop()
		}
	})
}

// watchDevices keeps the Recorder pinned to the configured input selection as
// the Device Registry reports hot-plug/hot-unplug changes.
func watchDevices(ctx context.Context, store *config.Store, rec *recorder.Recorder, gate *permission.Gate) {
	for range audio.WatchDevices(ctx) {
		cfg := store.Get()
		selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
		if err != nil {
			continue
		}
		granted := gate.Status(permission.Microphone) == permission.Granted
		_, _ = rec.SetDevice(ctx, selection.Device, granted)
	}
}

// mirrorViewState translates C10's passive state into the concrete indicator
// calls it implies, keeping internal/indicator a subscriber of the view
// model rather than the view model itself.
func mirrorViewState(ctx context.Context, ind *indicator.HyprNotify, state viewmodel.State) {
	switch state.Kind {
	case viewmodel.Idle:
		ind.Hide(ctx)
	case viewmodel.Recording:
		ind.ShowRecording(ctx)
	case viewmodel.Thinking:
		ind.ShowTranscribing(ctx)
	case viewmodel.Message:
		if state.MessageKind == viewmodel.Error {
			ind.ShowError(ctx, state.Text)
		} else {
			ind.ShowSuccess(ctx, state.Text)
		}
	}
}

// captureAdapter satisfies session.Capture by resolving the configured input
// device and driving the Recorder (C4).
type captureAdapter struct {
	rec   *recorder.Recorder
	store *config.Store
	gate  *permission.Gate

	mu      sync.Mutex
	lastDev string
}

func (c *captureAdapter) Start(ctx context.Context) error {
	cfg := c.store.Get()
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return fmt.Errorf("select input device: %w", err)
	}

	c.mu.Lock()
	c.lastDev = selection.Device.Description
	c.mu.Unlock()

	granted := c.gate.Status(permission.Microphone) == permission.Granted
	_, err = c.rec.Start(ctx, selection.Device, granted)
	return err
}

func (c *captureAdapter) Stop() (session.CaptureResult, error) {
	handle, err := c.rec.Stop()

	c.mu.Lock()
	device := c.lastDev
	c.mu.Unlock()

	if handle == nil {
		if err != nil {
			return session.CaptureResult{}, err
		}
		return session.CaptureResult{}, errors.New("no active recording to stop")
	}

	return session.CaptureResult{
		Path:          handle.Path,
		AudioDevice:   device,
		BytesCaptured: handle.BytesCaptured(),
	}, err
}

// speechAdapter satisfies session.Speech by delegating to the Speech Client
// (C7) with a live config snapshot.
type speechAdapter struct {
	store *config.Store
	ring  *logring.Ring
}

func (s speechAdapter) Transcribe(ctx context.Context, pcmPath string) (string, error) {
	return speech.Transcribe(ctx, s.store.Get(), s.ring, pcmPath)
}

// cleanerAdapter satisfies session.Cleaner, choosing between the
// deterministic pipeline and the LLM-enhanced variant per spec.md §4.8's
// "useLLMEnhancement and chat provider configured" rule.
type cleanerAdapter struct {
	store *config.Store
}

func (c cleanerAdapter) Clean(ctx context.Context, raw string) string {
	cfg := c.store.Get()
	replacements := c.store.WordReplacements()
	provider := buildChatProvider(cfg)

	if cfg.UseLLMEnhancement && provider != nil {
		return transcript.Enhance(ctx, raw, cfg.Cleaner, replacements, provider)
	}
	return transcript.CleanWithProvider(ctx, raw, cfg.Cleaner, replacements, provider)
}

func buildChatProvider(cfg config.Config) transcript.ChatProvider {
	switch cfg.ChatProvider {
	case "azure":
		if p := transcript.NewAzureChatProvider(cfg.AzureChat.Endpoint, cfg.AzureChat.Deployment, cfg.AzureChat.APIVersion, cfg.AzureChat.APIKey); p != nil {
			return p
		}
	case "openai":
		if p := transcript.NewOpenAIChatProvider(cfg.OpenAIChat.BaseURL, cfg.OpenAIChat.Model, cfg.OpenAIChat.APIKey); p != nil {
			return p
		}
	}
	return nil
}

// outputAdapter satisfies session.Output, building a Committer from a live
// config snapshot per call so clipboard/paste commands honor live config
// changes.
type outputAdapter struct {
	store  *config.Store
	logger *slog.Logger
}

func (o outputAdapter) Emit(ctx context.Context, text string, mode output.Mode) error {
	return output.NewCommitter(o.store.Get(), o.logger).Emit(ctx, text, mode)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
