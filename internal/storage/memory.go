// Package storage contains the in-memory persistence layer for the conversion
// queue: item metadata lives in MemoryStore, output bytes in a BlobStore. Go
// keeps each package in its own folder; files in the folder share a namespace.
package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

var (
	// ErrNotFound is exported so callers elsewhere can compare errors using
	// errors.Is; Go encourages sentinel errors for simple cases.
	ErrNotFound          = errors.New("queue item not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// CanTransition reports whether an item may move from one status to another:
// queued and failed items start converting, converting items complete or fail.
func CanTransition(from, to model.ItemStatus) bool {
	switch from {
	case model.StatusQueued, model.StatusFailed:
		return to == model.StatusConverting
	case model.StatusConverting:
		return to == model.StatusCompleted || to == model.StatusFailed
	case model.StatusCompleted:
		return false
	default:
		return false
	}
}

// MemoryStore keeps queue items keyed by id and remembers insertion order.
// RWMutex lets us differentiate read locks (multiple concurrent readers) from
// write locks (single writer); every update touches a single item.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*model.QueueItem
	order []string
	now   func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*model.QueueItem),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Save inserts or replaces an item. New items go to the end of the list.
func (m *MemoryStore) Save(item *model.QueueItem) {
	m.mu.Lock()
	// defer schedules code to run when the function returns, guaranteeing the
	// mutex unlock even if the function exits early.
	defer m.mu.Unlock()
	now := m.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if _, exists := m.items[item.ID]; !exists {
		m.order = append(m.order, item.ID)
	}
	stored := *item
	m.items[item.ID] = &stored
}

// Get returns a copy of the item.
func (m *MemoryStore) Get(id string) (*model.QueueItem, error) {
	m.mu.RLock()
	// Read locks allow multiple concurrent readers, improving throughput.
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Returning a shallow copy prevents callers from mutating internal state.
	out := *item
	return &out, nil
}

// List returns copies of every item in insertion order.
func (m *MemoryStore) List() []model.QueueItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.QueueItem, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}
	return out
}

// Delete removes an item and returns what it held.
func (m *MemoryStore) Delete(id string) (*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.items, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return item, nil
}

// Clear removes every item and returns them in insertion order.
func (m *MemoryStore) Clear() []model.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.QueueItem, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}
	m.items = make(map[string]*model.QueueItem)
	m.order = nil
	return out
}

// CompareAndSetStatus moves an item from one status to another, failing
// when the item is no longer in from or the move is not allowed. Starting a
// conversion resets progress and error.
func (m *MemoryStore) CompareAndSetStatus(id string, from, to model.ItemStatus) error {
	return m.update(id, func(item *model.QueueItem) error {
		if item.Status != from {
			return fmt.Errorf("%w: %s is %s, not %s", ErrInvalidTransition, id, item.Status, from)
		}
		if !CanTransition(from, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
		}
		item.Status = to
		if to == model.StatusConverting {
			item.Progress = 0
			item.Error = ""
		}
		return nil
	})
}

// ResetForRetry moves a failed item back to converting with progress reset
// and the old error cleared.
func (m *MemoryStore) ResetForRetry(id string) error {
	return m.CompareAndSetStatus(id, model.StatusFailed, model.StatusConverting)
}

// SetProgress records progress for a converting item. Values below the
// current one are ignored so readers never see progress go backwards.
func (m *MemoryStore) SetProgress(id string, progress int) error {
	return m.update(id, func(item *model.QueueItem) error {
		if item.Status != model.StatusConverting {
			return fmt.Errorf("%w: progress on %s item", ErrInvalidTransition, item.Status)
		}
		progress = min(max(progress, 0), 100)
		if progress > item.Progress {
			item.Progress = progress
		}
		return nil
	})
}

// Complete marks a converting item completed with its result.
func (m *MemoryStore) Complete(id string, result model.Blob, handle model.BlobHandle) error {
	return m.update(id, func(item *model.QueueItem) error {
		if item.Status != model.StatusConverting {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, item.Status, model.StatusCompleted)
		}
		result.Data = nil
		item.Status = model.StatusCompleted
		item.Progress = 100
		item.Result = &result
		item.ResultHandle = handle
		item.Error = ""
		return nil
	})
}

// Fail marks a converting item failed with a human-readable reason.
func (m *MemoryStore) Fail(id, msg string) error {
	return m.update(id, func(item *model.QueueItem) error {
		if item.Status != model.StatusConverting {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, item.Status, model.StatusFailed)
		}
		item.Status = model.StatusFailed
		item.Error = msg
		item.Result = nil
		item.ResultHandle = ""
		return nil
	})
}

// update applies fn to the stored item under the write lock and stamps
// UpdatedAt when fn succeeds.
func (m *MemoryStore) update(id string, fn func(item *model.QueueItem) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Maps in Go return (value, bool) when looked up; bool indicates presence.
	item, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(item); err != nil {
		return err
	}
	item.UpdatedAt = m.now()
	return nil
}
