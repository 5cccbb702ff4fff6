// Package hotkey implements the Hotkey Controller (C5): a system-wide event
// tap that watches three monitored keys and hands Start/Stop/CopyOnly/Cancel
// intents to the Session Coordinator through a thread-safe queue.
package hotkey

import (
	"context"
	"sync"
	"time"

	ghotkey "golang.design/x/hotkey"

	"github.com/justwhisper/justwhisper/internal/permission"
)

// Intent is one event the tap can hand to the Session Coordinator (C8).
type Intent int

const (
	_ Intent = iota
	StartOrStop
	StopCopyOnly
	Cancel
)

// String renders the intent for logs.
func (i Intent) String() string {
	switch i {
	case StartOrStop:
		return "StartOrStop"
	case StopCopyOnly:
		return "StopCopyOnly"
	case Cancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// recoveryRetryDelay is the permission-gating poll interval from spec.md
// §4.5's "start() is a no-op ... periodic (2s) retry" description.
const recoveryRetryDelay = 2 * time.Second

// tap is the subset of *hotkey.Hotkey the Controller depends on, narrowed to
// an interface so tests can substitute a scripted implementation without
// installing a real OS-level grab.
type tap interface {
	Register() error
	Unregister() error
	Keydown() <-chan ghotkey.Event
}

type tapFactory func(mods []ghotkey.Modifier, key ghotkey.Key) tap

func newOSTap(mods []ghotkey.Modifier, key ghotkey.Key) tap {
	return ghotkey.New(mods, key)
}

// keyBinding names one of the three monitored keys. golang.design/x/hotkey
// has no portable keycode for the bare function/Fn key or for a standalone
// modifier press, so Primary and CopyOnly are bound to dedicated function-row
// chords; Cancel binds Escape directly, matching spec.md §4.5 exactly.
var (
	primaryBinding  = keyBinding{mods: nil, key: ghotkey.KeyF13}
	copyOnlyBinding = keyBinding{mods: []ghotkey.Modifier{ghotkey.ModCtrl}, key: ghotkey.KeyF14}
	cancelBinding   = keyBinding{mods: nil, key: ghotkey.KeyEscape}
)

type keyBinding struct {
	mods []ghotkey.Modifier
	key  ghotkey.Key
}

// installedTap pairs a live tap with a done channel closed exactly when this
// specific installation is intentionally torn down, so its watch goroutine
// can distinguish "we unregistered this" from "the OS disabled it".
type installedTap struct {
	t    tap
	done chan struct{}
}

func (c *Controller) teardown(it **installedTap) {
	if *it == nil {
		return
	}
	close((*it).done)
	_ = (*it).t.Unregister()
	*it = nil
}

// Controller intercepts the Primary, CopyOnly, and Cancel keys system-wide
// and publishes intents on a buffered queue. It maintains its own isRecording
// mirror rather than sharing a lock or polling the Session Coordinator.
type Controller struct {
	newTap tapFactory

	intents chan Intent

	mu          sync.Mutex
	isRecording bool
	granted     bool

	primary  *installedTap
	copyOnly *installedTap
	cancel   *installedTap
}

// New constructs an uninstalled Controller. Call Start to begin the
// permission-gated installation of the event tap.
func New() *Controller {
	return &Controller{
		newTap:  newOSTap,
		intents: make(chan Intent, 4),
	}
}

// Intents returns the queue the Session Coordinator drains for C5 events.
func (c *Controller) Intents() <-chan Intent {
	return c.intents
}

// ResetRecordingState lets the Session Coordinator mirror its isRecording
// flag into the Controller. CopyOnly and Cancel are only grabbed while
// recording; Primary stays installed throughout.
func (c *Controller) ResetRecordingState(recording bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if recording == c.isRecording {
		return
	}
	c.isRecording = recording

	if !c.granted {
		return
	}
	if recording {
		c.installRecordingTapsLocked()
	} else {
		c.teardownRecordingTapsLocked()
	}
}

// emit enqueues an intent without blocking; a full queue drops the event
// rather than stalling the OS event-tap callback.
func (c *Controller) emit(intent Intent) {
	select {
	case c.intents <- intent:
	default:
	}
}

// statusChecker is the subset of *permission.Gate the Controller depends on.
type statusChecker interface {
	Status(capability permission.Capability) permission.Status
}

// Start installs the Primary tap once InputMonitoring is granted, retrying
// every 2s until then, per spec.md §4.5's permission gating.
func (c *Controller) Start(ctx context.Context, gate statusChecker) {
	if gate.Status(permission.InputMonitoring) == permission.Granted {
		c.grant()
		return
	}

	go func() {
		ticker := time.NewTicker(recoveryRetryDelay)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if gate.Status(permission.InputMonitoring) == permission.Granted {
					c.grant()
					return
				}
			}
		}
	}()
}

func (c *Controller) install(binding keyBinding, fn func()) *installedTap {
	t := c.newTap(binding.mods, binding.key)
	if err := t.Register(); err != nil {
		return nil
	}
	it := &installedTap{t: t, done: make(chan struct{})}
	go c.watch(it, fn)
	return it
}

func (c *Controller) grant() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.granted {
		return
	}
	c.granted = true

	c.primary = c.install(primaryBinding, func() { c.emit(StartOrStop) })

	if c.isRecording {
		c.installRecordingTapsLocked()
	}
}

func (c *Controller) installRecordingTapsLocked() {
	if c.copyOnly == nil {
		c.copyOnly = c.install(copyOnlyBinding, func() { c.emitIfRecording(StopCopyOnly) })
	}
	if c.cancel == nil {
		c.cancel = c.install(cancelBinding, func() { c.emitIfRecording(Cancel) })
	}
}

func (c *Controller) teardownRecordingTapsLocked() {
	c.teardown(&c.copyOnly)
	c.teardown(&c.cancel)
}

// emitIfRecording guards CopyOnly/Cancel delivery against a race where the
// tap fires just as the Session Coordinator resets isRecording to false.
func (c *Controller) emitIfRecording(intent Intent) {
	c.mu.Lock()
	recording := c.isRecording
	c.mu.Unlock()
	if recording {
		c.emit(intent)
	}
}

// watch drains keydown events from one installation and invokes fn for each
// one. If the underlying channel closes because it.done has also been
// closed, the teardown was intentional (ResetRecordingState or Stop) and
// watch exits quietly. Otherwise the OS disabled the tap out from under it:
// watch attempts one re-registration, falling back to a full rebuild on a
// second failure, per spec.md §4.5's recovery policy.
func (c *Controller) watch(it *installedTap, fn func()) {
	for range it.t.Keydown() {
		fn()
	}

	select {
	case <-it.done:
		return
	default:
	}

	if err := it.t.Register(); err == nil {
		go c.watch(it, fn)
		return
	}
	c.rebuild()
}

// rebuild tears down and reinstalls every currently-active tap.
func (c *Controller) rebuild() {
	c.mu.Lock()
	granted := c.granted
	c.teardown(&c.primary)
	c.teardownRecordingTapsLocked()
	c.granted = false
	c.mu.Unlock()

	if granted {
		c.grant()
	}
}

// Stop unregisters every active tap. Safe to call when nothing is installed.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown(&c.primary)
	c.teardownRecordingTapsLocked()
	c.granted = false
}
