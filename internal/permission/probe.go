package permission

import (
	"context"
	"errors"

	"github.com/justwhisper/justwhisper/internal/audio"
)

// MicrophoneChecker probes the microphone capability by attempting a
// throwaway capture start/stop against the Device Registry's default input
// device — the concrete signal spec.md §4.2 asks for, since there is no
// platform permission API in the pack to query directly.
type MicrophoneChecker struct {
	// SelectDevice defaults to audio.SelectDevice; overridable for tests.
	SelectDevice func(ctx context.Context, input, fallback string) (audio.Selection, error)
	// StartCapture defaults to audio.StartCapture; overridable for tests.
	StartCapture func(ctx context.Context, device audio.Device) (*audio.Capture, error)
}

// NewMicrophoneChecker returns a MicrophoneChecker wired to the real Device
// Registry.
func NewMicrophoneChecker() *MicrophoneChecker {
	return &MicrophoneChecker{
		SelectDevice: audio.SelectDevice,
		StartCapture: audio.StartCapture,
	}
}

// Check attempts to open and immediately close a capture stream against the
// default input device. Success means Granted; any failure to select the
// device or start the capture means Denied, with a nil error, so an absent
// or busy device also reads as Denied.
func (c *MicrophoneChecker) Check(ctx context.Context, capability Capability) (Status, error) {
	if capability != Microphone {
		return Undetermined, errors.New("MicrophoneChecker only probes the microphone capability")
	}

	selection, err := c.SelectDevice(ctx, "default", "default")
	if err != nil {
		return Denied, nil
	}

	capture, err := c.StartCapture(ctx, selection.Device)
	if err != nil {
		return Denied, nil
	}
	capture.Close()

	return Granted, nil
}

// CompositeChecker dispatches each capability to its own single-purpose
// Checker: a MicrophoneChecker backs microphone and any Checker the caller
// supplies backs inputMonitoring, without internal/permission importing
// internal/hotkey.
type CompositeChecker struct {
	Microphone      Checker
	InputMonitoring Checker
}

// Check dispatches to the matching sub-checker.
func (c CompositeChecker) Check(ctx context.Context, capability Capability) (Status, error) {
	switch capability {
	case Microphone:
		return c.Microphone.Check(ctx, capability)
	case InputMonitoring:
		return c.InputMonitoring.Check(ctx, capability)
	default:
		return Undetermined, errors.New("unknown capability")
	}
}
