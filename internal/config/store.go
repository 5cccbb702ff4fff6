package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store is the Config Store (C1): an in-memory, mutex-protected Config
// snapshot that is durable before Set returns, and publishes a single change
// notification per write to registered subscribers on a dedicated dispatch
// goroutine — never inline in the writer's call stack.
type Store struct {
	mu       sync.RWMutex
	path     string
	wordPath string
	cfg      Config
	words    map[string]string

	subMu     sync.Mutex
	subs      map[int]func(Config)
	nextSubID int

	dispatch chan Config
	watcher  *fsnotify.Watcher
	done     chan struct{}
	closeOnce sync.Once
}

// Open resolves, loads, and validates the configuration at explicitPath (see
// ResolvePath), seeding default word replacements to the sibling
// word_replacements.json file on first run. The returned Store is ready to
// use; callers should defer Close. Call Watch separately to pick up external
// edits to the config file.
func Open(explicitPath string) (*Store, []Warning, error) {
	loaded, err := Load(explicitPath)
	if err != nil {
		return nil, nil, err
	}

	wordPath := ResolveWordReplacementsPath(loaded.Path)
	words, err := loadWordReplacements(wordPath)
	if err != nil {
		return nil, nil, err
	}
	if _, statErr := os.Stat(wordPath); os.IsNotExist(statErr) {
		if err := saveWordReplacements(wordPath, words); err != nil {
			return nil, nil, err
		}
	}

	s := &Store{
		path:     loaded.Path,
		wordPath: wordPath,
		cfg:      loaded.Config,
		words:    words,
		subs:     make(map[int]func(Config)),
		dispatch: make(chan Config, 8),
		done:     make(chan struct{}),
	}

	go s.dispatchLoop()

	return s, loaded.Warnings, nil
}

// Get returns the current configuration snapshot.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// WordReplacements returns a copy of the current dictionary.
func (s *Store) WordReplacements() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.words))
	for k, v := range s.words {
		out[k] = v
	}
	return out
}

// Set applies mutate to a copy of the current configuration, validates it,
// writes it to disk, and only then swaps the in-memory snapshot and
// broadcasts the change. The write is durable before Set returns.
func (s *Store) Set(mutate func(*Config)) error {
	s.mu.Lock()
	next := s.cfg
	mutate(&next)

	if _, err := Validate(next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("validate config: %w", err)
	}
	if err := Save(next, s.path); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cfg = next
	s.mu.Unlock()

	s.broadcast(next)
	return nil
}

// SetWordReplacements replaces the dictionary, persists it to the sibling
// word_replacements.json file, and broadcasts the current configuration
// snapshot so subscribers re-fetch in step with the durable write.
func (s *Store) SetWordReplacements(replacements map[string]string) error {
	normalized := make(map[string]string, len(replacements))
	for k, v := range replacements {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		normalized[key] = v
	}

	if err := saveWordReplacements(s.wordPath, normalized); err != nil {
		return err
	}

	s.mu.Lock()
	s.words = normalized
	snapshot := s.cfg
	s.mu.Unlock()

	s.broadcast(snapshot)
	return nil
}

// Subscribe registers a callback invoked, on the store's dispatch goroutine,
// once per Set, SetWordReplacements, or externally-detected file change (once
// Watch is running). It returns an unsubscribe function.
func (s *Store) Subscribe(cb func(Config)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = cb
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) broadcast(cfg Config) {
	select {
	case s.dispatch <- cfg:
	case <-s.done:
	}
}

func (s *Store) dispatchLoop() {
	for {
		select {
		case cfg := <-s.dispatch:
			s.subMu.Lock()
			callbacks := make([]func(Config), 0, len(s.subs))
			for _, cb := range s.subs {
				callbacks = append(callbacks, cb)
			}
			s.subMu.Unlock()

			for _, cb := range callbacks {
				cb(cfg)
			}
		case <-s.done:
			return
		}
	}
}

// Watch starts an fsnotify watch on the config file's directory so an
// external edit (hand-editing the file while the daemon runs) is reloaded
// and re-broadcast the same way a Set would be.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	s.watcher = watcher
	go s.watchLoop()
	return nil
}

func (s *Store) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.reload()
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Store) reload() {
	loaded, err := Load(s.path)
	if err != nil {
		return
	}

	s.mu.Lock()
	if reflect.DeepEqual(s.cfg, loaded.Config) {
		// The file holds what Set already broadcast (or nothing changed).
		s.mu.Unlock()
		return
	}
	s.cfg = loaded.Config
	s.mu.Unlock()

	s.broadcast(loaded.Config)
}

// Close stops the watcher and dispatch goroutines. Idempotent.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
