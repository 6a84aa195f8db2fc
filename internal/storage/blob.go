package storage

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

// ErrReleased is returned for handles that were released or never issued.
var ErrReleased = errors.New("blob handle released")

// BlobStore holds converted outputs until the caller is done with them.
type BlobStore interface {
	Put(blob model.Blob) model.BlobHandle
	Get(handle model.BlobHandle) (model.Blob, error)
	Release(handle model.BlobHandle)
}

// MemoryBlobs is a BlobStore backed by a map. Released bytes become garbage
// as soon as no caller holds them.
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[model.BlobHandle]model.Blob
}

var _ BlobStore = (*MemoryBlobs)(nil)

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[model.BlobHandle]model.Blob)}
}

// Put stores blob under a fresh handle.
func (m *MemoryBlobs) Put(blob model.Blob) model.BlobHandle {
	h := model.BlobHandle("blob-" + uuid.NewString())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[h] = blob
	return h
}

// Get returns the blob stored under handle.
func (m *MemoryBlobs) Get(handle model.BlobHandle) (model.Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[handle]
	if !ok {
		return model.Blob{}, ErrReleased
	}
	return blob, nil
}

// Release drops the blob. Releasing twice is a no-op.
func (m *MemoryBlobs) Release(handle model.BlobHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, handle)
}

// Len reports how many blobs are held.
func (m *MemoryBlobs) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
