// Package dedupe tracks submission IDs so each submission is reviewed once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// Deduper records seen submission IDs.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. It returns true when id had already been recorded.
	SeenAndRecord(ctx context.Context, id string) (bool, error)

	// Unrecord forgets id so it can be submitted again, e.g. after the queue
	// refused it.
	Unrecord(ctx context.Context, id string) error

	// Size reports how many IDs are tracked, or a negative value when the
	// count is unavailable.
	Size(ctx context.Context) int64
}

// Option applies a configuration option to the MemoryDeduper.
type Option func(*MemoryDeduper)

// WithMaxSize bounds the number of remembered IDs. Once full, the oldest ID
// is forgotten first. Zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *MemoryDeduper) {
		d.maxSize = maxSize
	}
}

const defaultMaxSize = 50000

// MemoryDeduper keeps IDs in process memory in insertion order.
type MemoryDeduper struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List // front is oldest
	maxSize int
}

// NewMemoryDeduper creates an in-memory deduper.
func NewMemoryDeduper(opts ...Option) *MemoryDeduper {
	d := &MemoryDeduper{
		index:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord implements Deduper. It never fails.
func (d *MemoryDeduper) SeenAndRecord(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[id]; ok {
		return true, nil
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.index, oldest.Value.(string))
	}
	d.index[id] = d.order.PushBack(id)
	return false, nil
}

// Unrecord implements Deduper.
func (d *MemoryDeduper) Unrecord(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[id]; ok {
		d.order.Remove(el)
		delete(d.index, id)
	}
	return nil
}

// Size implements Deduper.
func (d *MemoryDeduper) Size(context.Context) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
