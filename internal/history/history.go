// Package history keeps a bounded, linear undo/redo list of snapshots.
package history

import (
	"errors"
	"sync"
)

// DefaultDepth is the number of snapshots kept when no depth is configured
const DefaultDepth = 20

var (
	// ErrAtOldest is returned by Undo when there is no earlier snapshot
	ErrAtOldest = errors.New("history: at oldest entry")
	// ErrAtNewest is returned by Redo when there is no later snapshot
	ErrAtNewest = errors.New("history: at newest entry")
	// ErrEmpty is returned when nothing has been committed yet
	ErrEmpty = errors.New("history: empty")
)

// Manager records snapshots and moves a cursor over them.
// Committing after an undo discards everything after the cursor; once the
// depth is reached the oldest snapshot is dropped.
type Manager[T any] struct {
	mu     sync.RWMutex
	states []T
	index  int
	depth  int
}

// New creates a history bounded to depth entries (DefaultDepth if depth <= 0)
func New[T any](depth int) *Manager[T] {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Manager[T]{
		states: make([]T, 0, depth),
		index:  -1,
		depth:  depth,
	}
}

// Commit appends a snapshot after the cursor and moves the cursor onto it
func (m *Manager[T]) Commit(snapshot T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index < len(m.states)-1 {
		clear(m.states[m.index+1:])
		m.states = m.states[:m.index+1]
	}
	m.states = append(m.states, snapshot)

	if len(m.states) > m.depth {
		var zero T
		m.states[0] = zero
		m.states = append(m.states[:0], m.states[1:]...)
	} else {
		m.index++
	}
}

// Undo moves the cursor back one entry and returns the snapshot there
func (m *Manager[T]) Undo() (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.states) == 0 {
		return zero, ErrEmpty
	}
	if m.index <= 0 {
		return zero, ErrAtOldest
	}
	m.index--
	return m.states[m.index], nil
}

// Redo moves the cursor forward one entry and returns the snapshot there
func (m *Manager[T]) Redo() (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.states) == 0 {
		return zero, ErrEmpty
	}
	if m.index >= len(m.states)-1 {
		return zero, ErrAtNewest
	}
	m.index++
	return m.states[m.index], nil
}

// Current returns the snapshot under the cursor
func (m *Manager[T]) Current() (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero T
	if m.index < 0 || m.index >= len(m.states) {
		return zero, false
	}
	return m.states[m.index], true
}

// At returns the snapshot at a position
func (m *Manager[T]) At(i int) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero T
	if i < 0 || i >= len(m.states) {
		return zero, false
	}
	return m.states[i], true
}

// Index returns the cursor position (-1 when empty)
func (m *Manager[T]) Index() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index
}

// Size returns the number of stored snapshots
func (m *Manager[T]) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

// Depth returns the configured capacity
func (m *Manager[T]) Depth() int {
	return m.depth
}

// CanUndo reports whether Undo would succeed
func (m *Manager[T]) CanUndo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index > 0
}

// CanRedo reports whether Redo would succeed
func (m *Manager[T]) CanRedo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index >= 0 && m.index < len(m.states)-1
}

// Reset drops every snapshot
func (m *Manager[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.states)
	m.states = m.states[:0]
	m.index = -1
}
