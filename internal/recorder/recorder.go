// Package recorder implements the Recorder (C4): owns the audio capture
// graph, appends raw PCM to a fixed on-disk file, and publishes a normalized
// RMS level per buffer.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justwhisper/justwhisper/internal/audio"
)

// Failure classifies why Start or setDevice could not produce a working
// capture graph.
type Failure int

const (
	_ Failure = iota
	PermissionDenied
	DeviceUnavailable
	IoFailure
)

// String renders the failure kind for logs.
func (f Failure) String() string {
	switch f {
	case PermissionDenied:
		return "PermissionDenied"
	case DeviceUnavailable:
		return "DeviceUnavailable"
	case IoFailure:
		return "IoFailure"
	default:
		return "Unknown"
	}
}

// Error wraps a Failure with its underlying cause.
type Error struct {
	Kind Failure
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// capture is the subset of *audio.Capture the Recorder depends on, narrowed
// to an interface so tests can substitute a scripted implementation without
// a live Pulse connection.
type capture interface {
	Chunks() <-chan []byte
	BytesCaptured() int64
	SampleRate() int
	Channels() int
	Stop() error
}

// wirelessNegotiationDelay matches spec.md §4.4's AirPods/Bluetooth
// 500ms negotiation allowance before starting capture.
const wirelessNegotiationDelay = 500 * time.Millisecond

// Handle describes one in-flight or completed recording. At most one may
// exist at a time; Recorder borrows it while recording.
type Handle struct {
	Path       string
	SampleRate int
	Channels   int
	StartedAt  time.Time

	bytesCaptured *atomic.Int64
}

// BytesCaptured reports the monotonically growing byte count, observable
// without touching the append goroutine.
func (h *Handle) BytesCaptured() int64 {
	return h.bytesCaptured.Load()
}

// LevelFunc receives one normalized [0,1] RMS level sample per capture buffer.
type LevelFunc func(level float64)

// Recorder owns at most one active capture graph and its backing file.
type Recorder struct {
	onLevel LevelFunc

	// selectDevice/startCapture are overridable for tests.
	selectDevice func(ctx context.Context, input, fallback string) (audio.Selection, error)
	startCapture func(ctx context.Context, device audio.Device) (capture, error)

	mu      sync.Mutex
	handle  *Handle
	capture capture
	file    *os.File
	device  audio.Device
	cancel  context.CancelFunc
}

// New returns a Recorder publishing levels to onLevel (may be nil).
func New(onLevel LevelFunc) *Recorder {
	return &Recorder{
		onLevel:      onLevel,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device) (capture, error) {
			return audio.StartCapture(ctx, device)
		},
	}
}

// Start opens the output file, builds a capture graph against device, and
// installs the per-buffer append+level callback. microphoneGranted must be
// true or Start fails with PermissionDenied.
func (r *Recorder) Start(ctx context.Context, device audio.Device, microphoneGranted bool) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !microphoneGranted {
		return nil, &Error{Kind: PermissionDenied, Err: errors.New("microphone permission not granted")}
	}
	if r.handle != nil {
		return nil, &Error{Kind: IoFailure, Err: errors.New("a recording is already in progress")}
	}

	path, err := recordingPath()
	if err != nil {
		return nil, &Error{Kind: IoFailure, Err: err}
	}

	file, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, &Error{Kind: IoFailure, Err: err}
	}

	captureCtx, cancel := context.WithCancel(ctx)
	cp, resolved, err := r.buildCapture(captureCtx, device)
	if err != nil {
		cancel()
		file.Close()
		return nil, &Error{Kind: DeviceUnavailable, Err: err}
	}

	handle := &Handle{
		Path:          path,
		SampleRate:    cp.SampleRate(),
		Channels:      cp.Channels(),
		StartedAt:     time.Now(),
		bytesCaptured: &atomic.Int64{},
	}

	r.handle = handle
	r.capture = cp
	r.file = file
	r.device = resolved
	r.cancel = cancel

	go r.appendLoop(cp, file, handle)

	return handle, nil
}

// buildCapture starts a capture graph against device, negotiating the
// wireless settle delay, and retries once against the true system default on
// failure when device was not already the default.
func (r *Recorder) buildCapture(ctx context.Context, device audio.Device) (capture, audio.Device, error) {
	cp, err := r.tryStart(ctx, device)
	if err == nil {
		return cp, device, nil
	}
	if device.Default {
		return nil, audio.Device{}, err
	}

	fallback, ferr := r.selectDevice(ctx, "default", "default")
	if ferr != nil {
		return nil, audio.Device{}, fmt.Errorf("start %q failed (%w) and default fallback unavailable: %v", device.ID, err, ferr)
	}

	cp, err = r.tryStart(ctx, fallback.Device)
	if err != nil {
		return nil, audio.Device{}, fmt.Errorf("start %q failed and default fallback also failed: %w", device.ID, err)
	}
	return cp, fallback.Device, nil
}

func (r *Recorder) tryStart(ctx context.Context, device audio.Device) (capture, error) {
	if isWireless(device) {
		time.Sleep(wirelessNegotiationDelay)
	}
	return r.startCapture(ctx, device)
}

// isWireless reports whether device is a known-wireless source per spec.md
// §4.4's name-substring heuristic.
func isWireless(device audio.Device) bool {
	desc := strings.ToLower(device.Description)
	return strings.Contains(desc, "airpods") || strings.Contains(desc, "bluetooth")
}

// appendLoop drains capture chunks, appending samples to file and publishing
// the normalized level for each buffer.
func (r *Recorder) appendLoop(cp capture, file *os.File, handle *Handle) {
	for chunk := range cp.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		if _, err := file.Write(chunk); err != nil {
			continue
		}
		handle.bytesCaptured.Add(int64(len(chunk)))

		if r.onLevel != nil {
			r.onLevel(level(chunk))
		}
	}
}

// Stop halts capture, flushes and closes the file, and returns the handle.
// Idempotent: a second call returns a nil handle and nil error with no
// further effect.
func (r *Recorder) Stop() (*Handle, error) {
	r.mu.Lock()
	handle := r.handle
	cp := r.capture
	file := r.file
	cancel := r.cancel
	r.handle = nil
	r.capture = nil
	r.file = nil
	r.cancel = nil
	r.mu.Unlock()

	if handle == nil {
		return nil, nil
	}

	if cp != nil {
		_ = cp.Stop()
	}
	if cancel != nil {
		cancel()
	}

	var stopErr error
	if file != nil {
		if err := file.Sync(); err != nil {
			stopErr = &Error{Kind: IoFailure, Err: err}
		}
		if err := file.Close(); err != nil && stopErr == nil {
			stopErr = &Error{Kind: IoFailure, Err: err}
		}
	}

	return handle, stopErr
}

// SetDevice stops any active recording, tears down the graph, and restarts
// against the new device. A hot-unplug removing the currently-selected
// device should call SetDevice with the Default sentinel; if a recording was
// active, it is restarted automatically.
func (r *Recorder) SetDevice(ctx context.Context, device audio.Device, microphoneGranted bool) (*Handle, error) {
	r.mu.Lock()
	wasRecording := r.handle != nil
	r.mu.Unlock()

	if wasRecording {
		if _, err := r.Stop(); err != nil {
			return nil, err
		}
		return r.Start(ctx, device, microphoneGranted)
	}

	return nil, nil
}
