package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/samber/oops"
)

// Store is the session persistence contract used by [Manager].
//
// Reload re-synchronises the in-memory view from the backing medium and
// Persist flushes pending mutations to it. Search only consults the view.
type Store interface {
	Reload(ctx context.Context) error
	Search(ctx context.Context, filter Filter) ([]Session, error)
	Insert(ctx context.Context, s Session) error
	Remove(ctx context.Context, s Session) error
	Persist(ctx context.Context) error
}

// Backend is a backing medium for [SnapshotStore].
//
// Flush must apply upserts and deletes atomically or report an error.
// Deleting an absent id is not an error.
type Backend interface {
	Load(ctx context.Context) ([]Session, error)
	Flush(ctx context.Context, upserts []Session, deletes []string) error
}

// SnapshotStore is a [Store] holding the last loaded view of a [Backend]
// plus the mutations not yet flushed. Pending mutations are re-applied on top
// of every reload, so a concurrent Reload never hides them. A failed Persist
// keeps them pending for the next attempt.
type SnapshotStore struct {
	backend Backend

	// ioMu orders backend round trips so a reload never observes a
	// half-applied flush from this store.
	ioMu sync.Mutex

	mu             sync.Mutex
	records        map[string]Session
	pendingUpserts map[string]Session
	pendingDeletes map[string]struct{}
}

// NewSnapshotStore returns an empty, unloaded store over backend.
func NewSnapshotStore(backend Backend) *SnapshotStore {
	return &SnapshotStore{
		backend:        backend,
		records:        make(map[string]Session),
		pendingUpserts: make(map[string]Session),
		pendingDeletes: make(map[string]struct{}),
	}
}

// Reload implements [Store].
func (s *SnapshotStore) Reload(ctx context.Context) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	loaded, err := s.backend.Load(ctx)
	if err != nil {
		return unavailable("reload", err)
	}

	records := make(map[string]Session, len(loaded))
	for _, rec := range loaded {
		records[rec.ID] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.pendingUpserts {
		records[id] = rec
	}
	for id := range s.pendingDeletes {
		delete(records, id)
	}
	s.records = records
	return nil
}

// Search implements [Store]. Results are ordered by CreatedAt, then ID.
func (s *SnapshotStore) Search(ctx context.Context, filter Filter) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if filter.SessionID != "" {
		rec, ok := s.records[filter.SessionID]
		if !ok || !filter.Matches(rec) {
			return nil, nil
		}
		return []Session{rec}, nil
	}

	var out []Session
	for _, rec := range s.records {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Insert implements [Store]. The record becomes visible to Search at once and
// reaches the backend on the next Persist.
func (s *SnapshotStore) Insert(ctx context.Context, rec Session) error {
	if err := rec.validate(); err != nil {
		return oops.Code("SESSION_INVALID_RECORD").With("user_id", rec.UserID).Wrap(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	s.pendingUpserts[rec.ID] = rec
	delete(s.pendingDeletes, rec.ID)
	return nil
}

// Remove implements [Store]. Removing a record that is no longer in the view
// fails with ErrSessionNotFound.
func (s *SnapshotStore) Remove(ctx context.Context, rec Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return oops.Code("SESSION_NOT_FOUND").With("user_id", rec.UserID).Wrap(ErrSessionNotFound)
	}
	delete(s.records, rec.ID)
	delete(s.pendingUpserts, rec.ID)
	s.pendingDeletes[rec.ID] = struct{}{}
	return nil
}

// Persist implements [Store].
func (s *SnapshotStore) Persist(ctx context.Context) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	s.mu.Lock()
	upserts := make([]Session, 0, len(s.pendingUpserts))
	for _, rec := range s.pendingUpserts {
		upserts = append(upserts, rec)
	}
	deletes := make([]string, 0, len(s.pendingDeletes))
	for id := range s.pendingDeletes {
		deletes = append(deletes, id)
	}
	s.mu.Unlock()

	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	if err := s.backend.Flush(ctx, upserts, deletes); err != nil {
		return unavailable("persist", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Only drop what was flushed; newer mutations stay pending.
	for _, rec := range upserts {
		if cur, ok := s.pendingUpserts[rec.ID]; ok && cur == rec {
			delete(s.pendingUpserts, rec.ID)
		}
	}
	for _, id := range deletes {
		delete(s.pendingDeletes, id)
	}
	return nil
}

// Pending returns the number of mutations not yet flushed.
func (s *SnapshotStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingUpserts) + len(s.pendingDeletes)
}

func unavailable(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return WrapUnavailable("snapshot", op, err)
}

// MemoryBackend is a process-local [Backend].
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Session
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Session)}
}

// Load implements [Backend].
func (b *MemoryBackend) Load(ctx context.Context) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Session, 0, len(b.records))
	for _, rec := range b.records {
		out = append(out, rec)
	}
	return out, nil
}

// Flush implements [Backend].
func (b *MemoryBackend) Flush(ctx context.Context, upserts []Session, deletes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range deletes {
		delete(b.records, id)
	}
	for _, rec := range upserts {
		b.records[rec.ID] = rec
	}
	return nil
}

// Len returns the number of stored records.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}
