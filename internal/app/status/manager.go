// Package status tracks the controller's observable state and
// broadcasts changes to subscribers.
package status

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brian7m3/DRX/internal/app/playback"
)

const historySize = 10

// CommandRecord is one processed serial command.
type CommandRecord struct {
	Raw        string
	Accepted   bool
	ReceivedAt time.Time
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	State      playback.State
	NowPlaying string
	ChangedAt  time.Time
	History    []CommandRecord // newest first, at most historySize entries
	SequenceNo uint64
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// subscription represents a subscriber's subscription.
type subscription struct {
	id       string
	listener Listener
}

// Manager holds the current snapshot and fans out updates. It is the
// playback.StatusSink for the supervisor and the command history sink
// for the dispatcher.
type Manager struct {
	mu            sync.RWMutex
	state         playback.State
	nowPlaying    string
	changedAt     time.Time
	history       []CommandRecord
	sequenceNo    uint64
	subscriptions map[string]*subscription

	now func() time.Time
}

// NewManager creates a new status manager.
func NewManager() *Manager {
	return &Manager{
		state:         playback.StateIdle,
		subscriptions: make(map[string]*subscription),
		now:           time.Now,
	}
}

// SetState records a playback state change and notifies subscribers.
func (m *Manager) SetState(state playback.State, nowPlaying string) {
	m.mu.Lock()
	m.state = state
	m.nowPlaying = nowPlaying
	m.changedAt = m.now()
	m.sequenceNo++
	snap := m.snapshotLocked()
	subs := m.listenersLocked()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// RecordCommand appends a processed command to the history ring and
// notifies subscribers.
func (m *Manager) RecordCommand(raw string, accepted bool) {
	m.mu.Lock()
	rec := CommandRecord{Raw: raw, Accepted: accepted, ReceivedAt: m.now()}
	m.history = append([]CommandRecord{rec}, m.history...)
	if len(m.history) > historySize {
		m.history = m.history[:historySize]
	}
	m.sequenceNo++
	snap := m.snapshotLocked()
	subs := m.listenersLocked()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Subscribe adds a listener and returns its subscription ID.
func (m *Manager) Subscribe(fn Listener) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.subscriptions[id] = &subscription{id: id, listener: fn}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}

func (m *Manager) snapshotLocked() Snapshot {
	history := make([]CommandRecord, len(m.history))
	copy(history, m.history)
	return Snapshot{
		State:      m.state,
		NowPlaying: m.nowPlaying,
		ChangedAt:  m.changedAt,
		History:    history,
		SequenceNo: m.sequenceNo,
	}
}

func (m *Manager) listenersLocked() []Listener {
	subs := make([]Listener, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub.listener)
	}
	return subs
}
