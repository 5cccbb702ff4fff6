package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenSeedsDefaultWordReplacements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")

	store, warnings, err := Open(path)
	require.NoError(t, err)
	defer store.Close()
	require.NotEmpty(t, warnings)

	wordPath := ResolveWordReplacementsPath(path)
	_, statErr := os.Stat(wordPath)
	require.NoError(t, statErr)

	words := store.WordReplacements()
	require.Equal(t, "GitHub", words["git hub"])
}

func TestStoreSetIsDurableAndBroadcasts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	store, _, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	var mu sync.Mutex
	var received []Config
	unsubscribe := store.Subscribe(func(cfg Config) {
		mu.Lock()
		received = append(received, cfg)
		mu.Unlock()
	})
	defer unsubscribe()

	err = store.Set(func(cfg *Config) {
		cfg.Overlay.Position = "top-left"
	})
	require.NoError(t, err)
	require.Equal(t, "top-left", store.Get().Overlay.Position)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "top-left", reloaded.Config.Overlay.Position)
}

func TestStoreSetRejectsInvalidMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	store, _, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	err = store.Set(func(cfg *Config) {
		cfg.Overlay.Position = "nowhere"
	})
	require.Error(t, err)
	require.Equal(t, "bottom-right", store.Get().Overlay.Position)
}

func TestStoreSetWordReplacementsPersistsAndBroadcasts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	store, _, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	var mu sync.Mutex
	broadcasts := 0
	unsubscribe := store.Subscribe(func(Config) {
		mu.Lock()
		broadcasts++
		mu.Unlock()
	})
	defer unsubscribe()

	err = store.SetWordReplacements(map[string]string{"Teh": "the"})
	require.NoError(t, err)
	require.Equal(t, "the", store.WordReplacements()["teh"])

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return broadcasts == 1
	}, time.Second, 10*time.Millisecond)
}

func TestStoreWatchPicksUpExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	store, _, err := Open(path)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Watch())

	var mu sync.Mutex
	var received Config
	unsubscribe := store.Subscribe(func(cfg Config) {
		mu.Lock()
		received = cfg
		mu.Unlock()
	})
	defer unsubscribe()

	require.NoError(t, Save(mutateOverlayPosition(store.Get(), "center"), path))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return received.Overlay.Position == "center"
	}, 2*time.Second, 20*time.Millisecond)
}

func mutateOverlayPosition(cfg Config, position string) Config {
	cfg.Overlay.Position = position
	return cfg
}
