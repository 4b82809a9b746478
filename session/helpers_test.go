package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errBackendDown = errors.New("backend down")

// flakyBackend wraps a MemoryBackend and fails on demand.
type flakyBackend struct {
	*MemoryBackend

	mu        sync.Mutex
	failLoad  bool
	failFlush bool
	loads     int
	flushes   int
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{MemoryBackend: NewMemoryBackend()}
}

func (b *flakyBackend) Load(ctx context.Context) ([]Session, error) {
	b.mu.Lock()
	b.loads++
	fail := b.failLoad
	b.mu.Unlock()
	if fail {
		return nil, errBackendDown
	}
	return b.MemoryBackend.Load(ctx)
}

func (b *flakyBackend) Flush(ctx context.Context, upserts []Session, deletes []string) error {
	b.mu.Lock()
	b.flushes++
	fail := b.failFlush
	b.mu.Unlock()
	if fail {
		return errBackendDown
	}
	return b.MemoryBackend.Flush(ctx, upserts, deletes)
}

func (b *flakyBackend) setFail(load, flush bool) {
	b.mu.Lock()
	b.failLoad, b.failFlush = load, flush
	b.mu.Unlock()
}

func (b *flakyBackend) flushCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushes
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// panicStore panics on Remove.
type panicStore struct {
	Store
}

func (panicStore) Remove(context.Context, Session) error {
	panic("store exploded")
}
