// Package processing runs the conversion queue. Items are converted one at a
// time: the converters underneath are memory hungry and not safe to run many
// at once, so a single goroutine owns each batch and reports through
// callbacks and channels.
package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/DocShift/internal/archive"
	"github.com/dharsanguruparan/DocShift/internal/classify"
	"github.com/dharsanguruparan/DocShift/internal/compat"
	"github.com/dharsanguruparan/DocShift/internal/model"
	"github.com/dharsanguruparan/DocShift/internal/storage"
)

// ErrNoResults is returned by Archive when nothing has been converted yet.
var ErrNoResults = errors.New("no completed conversions")

// Converter converts one file. *engine.Engine satisfies it.
type Converter interface {
	Convert(ctx context.Context, file model.FileRef, target model.Format, onProgress func(int), settings *model.PreservationSettings) (*model.Blob, error)
}

// BatchRejectedError reports the first item of a batch that cannot be
// converted to the requested format. Nothing in the batch was converted.
type BatchRejectedError struct {
	ItemID   string
	Filename string
	Reason   string
}

func (e *BatchRejectedError) Error() string {
	return fmt.Sprintf("batch rejected: %s: %s", e.Filename, e.Reason)
}

// Event is a status or progress change of one item. Simple structs like this
// make it easy to extend later without changing channel type signatures.
type Event struct {
	ItemID   string
	Filename string
	Status   model.ItemStatus
	Progress int
	Error    string
}

// BatchSummary counts how a batch ended.
type BatchSummary struct {
	Total     int
	Completed int
	Failed    int
}

// Queue holds files waiting for conversion and their results.
type Queue struct {
	store     *storage.MemoryStore
	blobs     storage.BlobStore
	converter Converter
	events    chan<- Event
	onBatch   func(done, total int)
	logger    *slog.Logger
	now       func() time.Time

	// run serialises batches and retries; one conversion at a time.
	run sync.Mutex
}

// Option configures a Queue.
type Option func(*Queue)

// WithBlobStore replaces the in-memory store holding converted outputs.
func WithBlobStore(b storage.BlobStore) Option {
	return func(q *Queue) {
		if b != nil {
			q.blobs = b
		}
	}
}

// WithEvents publishes per-item status and progress changes on ch. Sends
// block until received or the batch context ends.
func WithEvents(ch chan<- Event) Option {
	return func(q *Queue) {
		q.events = ch
	}
}

// WithBatchProgress reports done/total after each item of a batch reaches a
// terminal state.
func WithBatchProgress(fn func(done, total int)) Option {
	return func(q *Queue) {
		q.onBatch = fn
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// New builds an empty Queue converting with c.
func New(c Converter, opts ...Option) *Queue {
	q := &Queue{
		store:     storage.NewMemoryStore(),
		blobs:     storage.NewMemoryBlobs(),
		converter: c,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add queues files and returns the new items. Ids are "<name>-<uuid>".
func (q *Queue) Add(refs ...model.FileRef) []model.QueueItem {
	out := make([]model.QueueItem, 0, len(refs))
	for _, ref := range refs {
		item := &model.QueueItem{
			ID:       ref.Name + "-" + uuid.NewString(),
			File:     ref,
			Filename: ref.Name,
			Size:     ref.Size(),
			MIMEType: ref.MIMEType,
			Status:   model.StatusQueued,
		}
		q.store.Save(item)
		out = append(out, *item)
	}
	return out
}

// Get returns one item.
func (q *Queue) Get(id string) (*model.QueueItem, error) {
	return q.store.Get(id)
}

// Items returns every item in the order it was added.
func (q *Queue) Items() []model.QueueItem {
	return q.store.List()
}

// Remove drops an item and its result. An item that is converting finishes
// in the background and its result is discarded.
func (q *Queue) Remove(id string) error {
	item, err := q.store.Delete(id)
	if err != nil {
		return err
	}
	q.release(item.ResultHandle)
	return nil
}

// Clear drops every item and result.
func (q *Queue) Clear() {
	for _, item := range q.store.Clear() {
		q.release(item.ResultHandle)
	}
}

// ConvertAll converts every queued item to target.
func (q *Queue) ConvertAll(ctx context.Context, target model.Format, settings *model.PreservationSettings) (BatchSummary, error) {
	var ids []string
	for _, item := range q.store.List() {
		if item.Status == model.StatusQueued {
			ids = append(ids, item.ID)
		}
	}
	return q.convertBatch(ctx, ids, target, settings)
}

// ConvertSelected converts the given items to target. Failed items are
// retried; items that are converting or completed are skipped.
func (q *Queue) ConvertSelected(ctx context.Context, ids []string, target model.Format, settings *model.PreservationSettings) (BatchSummary, error) {
	var eligible []string
	for _, id := range ids {
		item, err := q.store.Get(id)
		if err != nil {
			return BatchSummary{}, fmt.Errorf("%w: %s", err, id)
		}
		switch item.Status {
		case model.StatusQueued, model.StatusFailed:
			eligible = append(eligible, id)
		case model.StatusConverting, model.StatusCompleted:
			q.logger.Debug("skipping item", slog.String("item", id), slog.String("status", string(item.Status)))
		}
	}
	return q.convertBatch(ctx, eligible, target, settings)
}

// Retry converts one failed item again without batch validation.
func (q *Queue) Retry(ctx context.Context, id string, target model.Format, settings *model.PreservationSettings) error {
	q.run.Lock()
	defer q.run.Unlock()
	item, err := q.store.Get(id)
	if err != nil {
		return err
	}
	if err := q.store.ResetForRetry(id); err != nil {
		return err
	}
	return q.convertItem(ctx, *item, target, settings)
}

// convertBatch validates every item against the compatibility rules before
// converting any, then converts them in order. One item failing never stops
// the rest; a cancelled context does.
func (q *Queue) convertBatch(ctx context.Context, ids []string, target model.Format, settings *model.PreservationSettings) (BatchSummary, error) {
	q.run.Lock()
	defer q.run.Unlock()

	items := make([]model.QueueItem, 0, len(ids))
	for _, id := range ids {
		item, err := q.store.Get(id)
		if err != nil {
			return BatchSummary{}, fmt.Errorf("%w: %s", err, id)
		}
		if msg := compat.ConversionError(classify.Classify(item.File), target); msg != "" {
			return BatchSummary{}, &BatchRejectedError{ItemID: item.ID, Filename: item.Filename, Reason: msg}
		}
		items = append(items, *item)
	}

	summary := BatchSummary{Total: len(items)}
	log := q.logger.With(slog.String("target", string(target)), slog.Int("items", len(items)))
	log.Info("batch started")
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			log.Warn("batch interrupted", slog.Any("error", err))
			return summary, err
		}
		var err error
		if item.Status == model.StatusFailed {
			err = q.store.ResetForRetry(item.ID)
		} else {
			err = q.store.CompareAndSetStatus(item.ID, model.StatusQueued, model.StatusConverting)
		}
		if err != nil {
			// Removed or picked up since validation.
			log.Debug("item skipped", slog.String("item", item.ID), slog.Any("error", err))
			summary.Total--
			continue
		}
		if err := q.convertItem(ctx, item, target, settings); err != nil {
			summary.Failed++
		} else {
			summary.Completed++
		}
		if q.onBatch != nil {
			q.onBatch(summary.Completed+summary.Failed, summary.Total)
		}
	}
	log.Info("batch finished", slog.Int("completed", summary.Completed), slog.Int("failed", summary.Failed))
	return summary, nil
}

// convertItem runs the converter for an item already marked converting and
// records the outcome. The returned error is the conversion error, if any.
func (q *Queue) convertItem(ctx context.Context, item model.QueueItem, target model.Format, settings *model.PreservationSettings) error {
	log := q.logger.With(slog.String("item", item.ID), slog.String("file", item.Filename))
	q.publish(ctx, Event{ItemID: item.ID, Filename: item.Filename, Status: model.StatusConverting})

	blob, convErr := q.converter.Convert(ctx, item.File, target, func(p int) {
		if err := q.store.SetProgress(item.ID, p); err == nil {
			q.publish(ctx, Event{ItemID: item.ID, Filename: item.Filename, Status: model.StatusConverting, Progress: p})
		}
	}, settings)

	if convErr != nil {
		msg := errorMessage(convErr)
		if err := q.store.Fail(item.ID, msg); err != nil {
			log.Debug("failure not recorded", slog.Any("error", err))
		}
		log.Warn("conversion failed", slog.String("reason", msg))
		q.publish(ctx, Event{ItemID: item.ID, Filename: item.Filename, Status: model.StatusFailed, Error: msg})
		return convErr
	}

	handle := q.blobs.Put(*blob)
	if err := q.store.Complete(item.ID, *blob, handle); err != nil {
		// The item was removed while converting.
		q.blobs.Release(handle)
		log.Info("result discarded", slog.Any("error", err))
		return nil
	}
	log.Debug("conversion completed", slog.String("output", blob.Name))
	q.publish(ctx, Event{ItemID: item.ID, Filename: item.Filename, Status: model.StatusCompleted, Progress: 100})
	return nil
}

// Results returns the output of every completed item in queue order.
func (q *Queue) Results() ([]model.Blob, error) {
	var out []model.Blob
	for _, item := range q.store.List() {
		if item.Status != model.StatusCompleted {
			continue
		}
		blob, err := q.blobs.Get(item.ResultHandle)
		if err != nil {
			return nil, fmt.Errorf("result of %s: %w", item.Filename, err)
		}
		out = append(out, blob)
	}
	return out, nil
}

// Archive zips every completed result into converted-<timestamp>.zip.
// Zipped results are flattened into their entries.
func (q *Queue) Archive() (*model.Blob, error) {
	results, err := q.Results()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	// Multi-page image results arrive zipped; their pages go into the batch
	// archive directly so it never nests a zip.
	entries := make([]archive.Entry, 0, len(results))
	for _, r := range results {
		if r.MIMEType != model.MIMEZip {
			entries = append(entries, archive.Entry{Name: r.Name, Data: r.Data})
			continue
		}
		pages, err := archive.Entries(r.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", r.Name, err)
		}
		entries = append(entries, pages...)
	}
	data, err := archive.Build(entries)
	if err != nil {
		return nil, err
	}
	return &model.Blob{Name: archive.Name(q.now()), MIMEType: model.MIMEZip, Data: data}, nil
}

func (q *Queue) publish(ctx context.Context, ev Event) {
	if q.events == nil {
		return
	}
	select {
	case q.events <- ev:
	case <-ctx.Done():
	}
}

func (q *Queue) release(h model.BlobHandle) {
	if h != "" {
		q.blobs.Release(h)
	}
}

// errorMessage extracts the short reason stored on a failed item.
func errorMessage(err error) string {
	var m interface{ Message() string }
	if errors.As(err, &m) {
		return m.Message()
	}
	return err.Error()
}
