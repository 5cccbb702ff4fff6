// Package viewmodel implements the Overlay View Model (C10): a passive
// observable of the overlay's display state. It never calls UI code
// directly; consumers (internal/indicator) subscribe and render on their own
// schedule, per spec.md §4.10.
package viewmodel

import "sync"

// Kind is the overlay's displayed phase.
type Kind int

const (
	Idle Kind = iota
	Recording
	Thinking
	Message
)

// MessageKind classifies a Message state's tone.
type MessageKind int

const (
	Success MessageKind = iota
	Error
)

// State is one immutable snapshot handed to subscribers.
type State struct {
	Kind  Kind
	Level float64

	MessageKind MessageKind
	Text        string
}

// Observer receives every state change, most-recent-first not guaranteed —
// observers see states in the order Store applied them.
type Observer func(State)

// Store holds the current overlay state and notifies subscribers on change.
type Store struct {
	mu        sync.Mutex
	state     State
	observers map[int]Observer
	nextID    int
}

// New returns a Store at Idle.
func New() *Store {
	return &Store{observers: make(map[int]Observer)}
}

// Subscribe registers fn to receive every subsequent state change, and
// immediately delivers the current state. Returns an unsubscribe func.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	current := s.state
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// SetIdle transitions the overlay to Idle.
func (s *Store) SetIdle() {
	s.set(State{Kind: Idle})
}

// SetRecording transitions the overlay to Recording with a normalized [0,1]
// input level.
func (s *Store) SetRecording(level float64) {
	s.set(State{Kind: Recording, Level: level})
}

// SetThinking transitions the overlay to Thinking.
func (s *Store) SetThinking() {
	s.set(State{Kind: Thinking})
}

// SetMessage transitions the overlay to Message with kind and text.
func (s *Store) SetMessage(kind MessageKind, text string) {
	s.set(State{Kind: Message, MessageKind: kind, Text: text})
}

func (s *Store) set(next State) {
	s.mu.Lock()
	s.state = next
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
}

// Current returns the current state snapshot.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
