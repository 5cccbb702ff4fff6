// Package permission implements the Permission Gate: an asynchronous,
// never-blocking tracker of the microphone and input-monitoring capabilities
// the daemon needs before it can record or install its global hotkeys.
package permission

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Capability is one of the two privacy-sensitive capabilities the daemon
// depends on.
type Capability int

const (
	Microphone Capability = iota
	InputMonitoring
)

// String renders the capability name used in logs and doctor output.
func (c Capability) String() string {
	switch c {
	case Microphone:
		return "microphone"
	case InputMonitoring:
		return "inputMonitoring"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Status is the tri-state result of probing a capability.
type Status int

const (
	Undetermined Status = iota
	Granted
	Denied
)

// pollInterval matches spec.md §4.2's "re-query every 2s while any
// permission is missing."
const pollInterval = 2 * time.Second

// Checker performs the platform-specific probe for one capability. A real
// Checker issues the OS permission prompt (or deep-links to the system
// privacy panel if the prompt was already dismissed); tests substitute a
// scripted implementation.
type Checker interface {
	Check(ctx context.Context, capability Capability) (Status, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, capability Capability) (Status, error)

// Check calls f.
func (f CheckerFunc) Check(ctx context.Context, capability Capability) (Status, error) {
	return f(ctx, capability)
}

// Gate tracks microphoneGranted and inputMonitoringGranted, polling every 2s
// while either is missing and publishing a change event whenever a
// capability flips status.
type Gate struct {
	checker Checker

	mu     sync.RWMutex
	status map[Capability]Status

	subMu     sync.Mutex
	subs      map[int]func(Capability, Status)
	nextSubID int

	dispatch chan change
	done     chan struct{}
	closeOnce sync.Once
}

type change struct {
	capability Capability
	status     Status
}

// New returns a Gate with both capabilities Undetermined. Call StartPolling
// to begin the 2s reconciliation loop.
func New(checker Checker) *Gate {
	g := &Gate{
		checker: checker,
		status: map[Capability]Status{
			Microphone:      Undetermined,
			InputMonitoring: Undetermined,
		},
		subs:     make(map[int]func(Capability, Status)),
		dispatch: make(chan change, 8),
		done:     make(chan struct{}),
	}
	go g.dispatchLoop()
	return g
}

// Status returns the last known status for capability. Never blocks on I/O.
func (g *Gate) Status(capability Capability) Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status[capability]
}

// Request issues the underlying probe asynchronously and never blocks the
// caller. Idempotent: calling it while a request is already granted just
// re-confirms the status. If the probe fails or denies, this is a no-op that
// relies on the polling loop to flip state later, matching "never blocks
// callers synchronously."
func (g *Gate) Request(ctx context.Context, capability Capability) {
	go func() {
		status, err := g.checker.Check(ctx, capability)
		if err != nil {
			return
		}
		g.setStatus(capability, status)
	}()
}

// Subscribe registers a callback invoked, on the Gate's dispatch goroutine,
// whenever a capability's status changes. It returns an unsubscribe
// function.
func (g *Gate) Subscribe(cb func(Capability, Status)) (unsubscribe func()) {
	g.subMu.Lock()
	id := g.nextSubID
	g.nextSubID++
	g.subs[id] = cb
	g.subMu.Unlock()

	return func() {
		g.subMu.Lock()
		delete(g.subs, id)
		g.subMu.Unlock()
	}
}

// StartPolling launches the 2s reconciliation loop: while either capability
// is missing, re-query both every tick; the loop stops itself once both are
// Granted, or when ctx is done, or after Close.
func (g *Gate) StartPolling(ctx context.Context) {
	go g.pollLoop(ctx)
}

func (g *Gate) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if g.allGranted() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		case <-ticker.C:
			for _, capability := range []Capability{Microphone, InputMonitoring} {
				status, err := g.checker.Check(ctx, capability)
				if err != nil {
					continue
				}
				g.setStatus(capability, status)
			}
		}
	}
}

func (g *Gate) allGranted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status[Microphone] == Granted && g.status[InputMonitoring] == Granted
}

func (g *Gate) setStatus(capability Capability, status Status) {
	g.mu.Lock()
	prev := g.status[capability]
	g.status[capability] = status
	g.mu.Unlock()

	if prev != status {
		g.broadcast(capability, status)
	}
}

func (g *Gate) broadcast(capability Capability, status Status) {
	select {
	case g.dispatch <- change{capability: capability, status: status}:
	case <-g.done:
	}
}

func (g *Gate) dispatchLoop() {
	for {
		select {
		case c := <-g.dispatch:
			g.subMu.Lock()
			callbacks := make([]func(Capability, Status), 0, len(g.subs))
			for _, cb := range g.subs {
				callbacks = append(callbacks, cb)
			}
			g.subMu.Unlock()

			for _, cb := range callbacks {
				cb(c.capability, c.status)
			}
		case <-g.done:
			return
		}
	}
}

// Close stops the dispatch and polling goroutines. Idempotent.
func (g *Gate) Close() error {
	g.closeOnce.Do(func() { close(g.done) })
	return nil
}
