package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

func queued(id string) *model.QueueItem {
	return &model.QueueItem{ID: id, Filename: id + ".txt", Status: model.StatusQueued}
}

func TestMemoryStoreKeepsInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"c", "a", "b"} {
		s.Save(queued(id))
	}
	s.Save(queued("a"))

	var ids []string
	for _, item := range s.List() {
		ids = append(ids, item.ID)
		assert.False(t, item.CreatedAt.IsZero())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	removed, err := s.Delete("a")
	require.NoError(t, err)
	assert.Equal(t, "a", removed.ID)
	_, err = s.Get("a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, s.List(), 2)

	assert.Len(t, s.Clear(), 2)
	assert.Empty(t, s.List())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	item := queued("x")
	s.Save(item)
	item.Status = model.StatusFailed

	got, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, got.Status)
	got.Progress = 50

	again, err := s.Get("x")
	require.NoError(t, err)
	assert.Zero(t, again.Progress)
}

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	s.Save(queued("x"))

	assert.ErrorIs(t, s.SetProgress("x", 10), ErrInvalidTransition)
	assert.ErrorIs(t, s.CompareAndSetStatus("x", model.StatusQueued, model.StatusCompleted), ErrInvalidTransition)
	require.NoError(t, s.CompareAndSetStatus("x", model.StatusQueued, model.StatusConverting))
	assert.ErrorIs(t, s.CompareAndSetStatus("x", model.StatusQueued, model.StatusConverting), ErrInvalidTransition)

	require.NoError(t, s.SetProgress("x", 40))
	require.NoError(t, s.SetProgress("x", 20))
	got, _ := s.Get("x")
	assert.Equal(t, 40, got.Progress)

	require.NoError(t, s.Fail("x", "broken"))
	got, _ = s.Get("x")
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "broken", got.Error)

	require.NoError(t, s.ResetForRetry("x"))
	got, _ = s.Get("x")
	assert.Equal(t, model.StatusConverting, got.Status)
	assert.Zero(t, got.Progress)
	assert.Empty(t, got.Error)

	require.NoError(t, s.Complete("x", model.Blob{Name: "x.pdf", MIMEType: model.MIMEPDF, Data: []byte("%PDF")}, "h1"))
	got, _ = s.Get("x")
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "x.pdf", got.Result.Name)
	assert.Nil(t, got.Result.Data)
	assert.Equal(t, model.BlobHandle("h1"), got.ResultHandle)

	assert.ErrorIs(t, s.ResetForRetry("x"), ErrInvalidTransition)
	assert.ErrorIs(t, s.Fail("missing", "x"), ErrNotFound)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.ItemStatus
		want     bool
	}{
		{model.StatusQueued, model.StatusConverting, true},
		{model.StatusConverting, model.StatusCompleted, true},
		{model.StatusConverting, model.StatusFailed, true},
		{model.StatusFailed, model.StatusConverting, true},
		{model.StatusQueued, model.StatusFailed, false},
		{model.StatusCompleted, model.StatusConverting, false},
		{model.StatusFailed, model.StatusCompleted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestMemoryBlobs(t *testing.T) {
	b := NewMemoryBlobs()
	h := b.Put(model.Blob{Name: "a.txt", Data: []byte("hello")})
	assert.NotEmpty(t, h)
	assert.Equal(t, 1, b.Len())

	blob, err := b.Get(h)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(blob.Data))

	b.Release(h)
	b.Release(h)
	_, err = b.Get(h)
	assert.ErrorIs(t, err, ErrReleased)
	assert.Zero(t, b.Len())
}
