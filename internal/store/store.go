package store

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmelton/liftview/internal/model"
)

// RunningBufferSize is the capacity of the running-change channel.
const RunningBufferSize = 16

// DefaultHistorySize caps the rolling statistics history.
const DefaultHistorySize = 20

// Subscriber receives the new snapshot after each replacement.
type Subscriber func(model.Snapshot)

// subscription pairs a callback with its cancellation token.
type subscription struct {
	id uuid.UUID
	fn Subscriber
}

// Store holds the synchronized client-side view of the simulation.
type Store struct {
	logger *slog.Logger

	mu           sync.RWMutex
	snapshot     model.Snapshot
	running      bool
	events       []model.Event
	statsHistory []model.StatsPoint
	historyCap   int

	// Subscribers in registration order.
	subs []subscription

	// Running-flag transitions for the Polling Fallback.
	runningCh chan bool
}

// New creates a Store with the given stats history capacity.
func New(historyCap int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if historyCap < 1 {
		historyCap = DefaultHistorySize
	}
	return &Store{
		logger:     logger,
		historyCap: historyCap,
		runningCh:  make(chan bool, RunningBufferSize),
	}
}

// ApplySnapshot unconditionally replaces the held snapshot and notifies all
// subscribers synchronously, in registration order.
func (s *Store) ApplySnapshot(snap model.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// Snapshot returns the most recently applied snapshot.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe registers a callback invoked on every snapshot change. The
// returned token cancels delivery via Unsubscribe.
func (s *Store) Subscribe(fn Subscriber) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return id
}

// Unsubscribe removes a previously registered subscriber.
func (s *Store) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// SetRunning sets the running flag. Transitions are published on the
// running-change channel.
func (s *Store) SetRunning(running bool) {
	s.mu.Lock()
	changed := s.running != running
	s.running = running
	s.mu.Unlock()

	if changed {
		s.notifyRunning(running)
	}
}

// Running returns the running flag.
func (s *Store) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// RunningChanges returns the channel of running-flag transitions.
func (s *Store) RunningChanges() <-chan bool {
	return s.runningCh
}

// notifyRunning sends a transition without blocking, dropping the oldest
// pending value when the channel is full.
func (s *Store) notifyRunning(running bool) {
	select {
	case s.runningCh <- running:
	default:
		select {
		case <-s.runningCh:
			s.runningCh <- running
		default:
		}
	}
}

// Clear resets the snapshot, event list and stats history to empty. Invoked
// on reset command success. Subscribers observe the cleared snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	s.snapshot = model.Snapshot{}
	s.events = nil
	s.statsHistory = nil
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(model.Snapshot{})
	}
}

// ReplaceEvents replaces the local event list wholesale. The server is the
// source of truth for "most recent", so nothing is appended client-side.
func (s *Store) ReplaceEvents(events []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

// Events returns a copy of the current event list.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// AppendStatsPoint adds one sample to the rolling history, evicting the
// oldest on overflow.
func (s *Store) AppendStatsPoint(p model.StatsPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statsHistory = append(s.statsHistory, p)
	if len(s.statsHistory) > s.historyCap {
		s.statsHistory = s.statsHistory[len(s.statsHistory)-s.historyCap:]
	}
}

// StatsHistory returns a copy of the rolling history, oldest first.
func (s *Store) StatsHistory() []model.StatsPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.StatsPoint, len(s.statsHistory))
	copy(out, s.statsHistory)
	return out
}
