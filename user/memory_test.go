package user

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deniswachira/sessionauth/internal/errutil"
)

func TestMemoryStoreAddAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u, err := s.Add(ctx, "bob@example.com", "digest")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Nil(t, u.SessionID)
	assert.Nil(t, u.ResetToken)

	byEmail, err := s.FindOne(ctx, Filter{FieldEmail: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, u, byEmail)

	byID, err := s.FindOne(ctx, Filter{FieldID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, u, byID)
}

func TestMemoryStoreDuplicateEmailLeavesRecord(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	orig, err := s.Add(ctx, "bob@example.com", "first")
	require.NoError(t, err)

	_, err = s.Add(ctx, "bob@example.com", "second")
	require.ErrorIs(t, err, ErrDuplicateEmail)
	errutil.AssertErrorCode(t, err, "USER_DUPLICATE_EMAIL")

	got, err := s.FindOne(ctx, Filter{FieldEmail: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestMemoryStoreFindErrors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Add(ctx, "bob@example.com", "digest")
	require.NoError(t, err)

	_, err = s.FindOne(ctx, Filter{FieldEmail: "alice@example.com"})
	require.ErrorIs(t, err, ErrNotFound)
	errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")

	_, err = s.FindOne(ctx, Filter{Field("nickname"): "bob"})
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = s.FindOne(ctx, Filter{FieldResetToken: "nope"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u, err := s.Add(ctx, "bob@example.com", "digest")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, u.ID, Update{FieldSessionID: Value("sid-1"), FieldResetToken: Value("tok")}))

	got, err := s.FindOne(ctx, Filter{FieldSessionID: "sid-1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.FindOne(ctx, Filter{FieldResetToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.Update(ctx, u.ID, Update{FieldResetToken: nil}))
	_, err = s.FindOne(ctx, Filter{FieldResetToken: "tok"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdateErrors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	bob, err := s.Add(ctx, "bob@example.com", "digest")
	require.NoError(t, err)
	_, err = s.Add(ctx, "alice@example.com", "digest")
	require.NoError(t, err)

	err = s.Update(ctx, "missing", Update{FieldSessionID: Value("x")})
	require.ErrorIs(t, err, ErrNotFound)

	err = s.Update(ctx, bob.ID, Update{Field("admin"): Value("true")})
	require.ErrorIs(t, err, ErrInvalidField)

	err = s.Update(ctx, bob.ID, Update{FieldEmail: Value("alice@example.com")})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	require.NoError(t, s.Update(ctx, bob.ID, Update{FieldEmail: Value("robert@example.com")}))
	_, err = s.FindOne(ctx, Filter{FieldEmail: "bob@example.com"})
	require.ErrorIs(t, err, ErrNotFound)
	got, err := s.FindOne(ctx, Filter{FieldEmail: "robert@example.com"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)
}

func TestMemoryStoreUpdateIf(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	bob, err := s.Add(ctx, "bob@example.com", "digest")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, bob.ID, Update{FieldResetToken: Value("tok")}))

	redeem := Update{FieldHashedPassword: Value("new-digest"), FieldResetToken: nil}
	require.NoError(t, s.UpdateIf(ctx, bob.ID, Filter{FieldResetToken: "tok"}, redeem))

	got, err := s.FindOne(ctx, Filter{FieldID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, "new-digest", got.HashedPassword)
	assert.Nil(t, got.ResetToken)

	err = s.UpdateIf(ctx, bob.ID, Filter{FieldResetToken: "tok"}, Update{FieldHashedPassword: Value("again")})
	require.ErrorIs(t, err, ErrNotFound)
	got, err = s.FindOne(ctx, Filter{FieldID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, "new-digest", got.HashedPassword, "failed condition must not write")

	err = s.UpdateIf(ctx, "missing", Filter{FieldEmail: "bob@example.com"}, redeem)
	require.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateIf(ctx, bob.ID, Filter{}, redeem)
	require.ErrorIs(t, err, ErrInvalidFilter)
}

func TestMemoryStoreUpdateIfConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	bob, err := s.Add(ctx, "bob@example.com", "digest")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, bob.ID, Update{FieldResetToken: Value("tok")}))

	const workers = 16
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.UpdateIf(ctx, bob.ID, Filter{FieldResetToken: "tok"}, Update{FieldResetToken: nil}) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u, err := s.Add(ctx, "bob@example.com", "digest")
	require.NoError(t, err)

	u.HashedPassword = "tampered"
	got, err := s.FindOne(ctx, Filter{FieldID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, "digest", got.HashedPassword)
}

func TestMemoryStoreConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every other goroutine races on the same address.
			email := fmt.Sprintf("user%d@example.com", i)
			if i%2 == 0 {
				email = "shared@example.com"
			}
			_, err := s.Add(ctx, email, "digest")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrDuplicateEmail):
			dup++
		}
	}
	assert.Equal(t, 17, ok)
	assert.Equal(t, 15, dup)
}
