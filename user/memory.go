package user

import (
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/deniswachira/sessionauth/internal"
)

// MemoryStore is an in-process [Store]. Lookups scan records in insertion
// order, so FindOne returns the oldest match.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	byID    map[string]*User
	byEmail map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// Add implements [Store].
func (s *MemoryStore) Add(ctx context.Context, email, hashedPassword string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, oops.Code("USER_DUPLICATE_EMAIL").With("email", email).Wrap(ErrDuplicateEmail)
	}

	u := &User{
		ID:             internal.NewUserID(),
		Email:          email,
		HashedPassword: hashedPassword,
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	s.order = append(s.order, u.ID)

	return u.Clone(), nil
}

// FindOne implements [Store].
func (s *MemoryStore) FindOne(ctx context.Context, filter Filter) (*User, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Fast paths for the unique columns.
	if len(filter) == 1 {
		if id, ok := filter[FieldID]; ok {
			return s.matchOne(id, filter)
		}
		if email, ok := filter[FieldEmail]; ok {
			return s.matchOne(s.byEmail[email], filter)
		}
	}

	for _, id := range s.order {
		if u := s.byID[id]; filter.Matches(u) {
			return u.Clone(), nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").With("filter", filter.Redacted()).Wrap(ErrNotFound)
}

func (s *MemoryStore) matchOne(id string, filter Filter) (*User, error) {
	if u, ok := s.byID[id]; ok && filter.Matches(u) {
		return u.Clone(), nil
	}
	return nil, oops.Code("USER_NOT_FOUND").With("filter", filter.Redacted()).Wrap(ErrNotFound)
}

// Update implements [Store].
func (s *MemoryStore) Update(ctx context.Context, id string, fields Update) error {
	if err := fields.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return s.apply(u, fields)
}

// UpdateIf implements [Store].
func (s *MemoryStore) UpdateIf(ctx context.Context, id string, cond Filter, fields Update) error {
	if err := cond.Validate(); err != nil {
		return err
	}
	if err := fields.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok || !cond.Matches(u) {
		return oops.Code("USER_NOT_FOUND").With("id", id).With("cond", cond.Redacted()).Wrap(ErrNotFound)
	}
	return s.apply(u, fields)
}

// apply writes fields onto u. Callers hold s.mu.
func (s *MemoryStore) apply(u *User, fields Update) error {
	if v, ok := fields[FieldEmail]; ok && *v != u.Email {
		if _, taken := s.byEmail[*v]; taken {
			return oops.Code("USER_DUPLICATE_EMAIL").With("email", *v).Wrap(ErrDuplicateEmail)
		}
		delete(s.byEmail, u.Email)
		s.byEmail[*v] = u.ID
	}

	fields.Apply(u)
	return nil
}
