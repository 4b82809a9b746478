package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestManager(t *testing.T, d time.Duration) (*Manager, *flakyBackend, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	backend := newFlakyBackend()
	m := NewManager(NewSnapshotStore(backend), Policy{Duration: d, Now: clock.Now})
	return m, backend, clock
}

func TestCreateThenResolve(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager(t, time.Hour)

	sid, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if sid == "" {
		t.Fatal("expected session id")
	}
	if backend.Len() != 1 {
		t.Fatalf("expected session persisted, backend has %d", backend.Len())
	}

	uid, err := m.UserIDForSessionID(ctx, sid)
	if err != nil {
		t.Fatalf("UserIDForSessionID error: %v", err)
	}
	if uid != "u1" {
		t.Fatalf("expected u1, got %q", uid)
	}
}

func TestCreateEmptyUserIsNoop(t *testing.T) {
	m, backend, _ := newTestManager(t, time.Hour)

	sid, err := m.Create(context.Background(), "")
	if err != nil || sid != "" {
		t.Fatalf("expected empty result, got %q, %v", sid, err)
	}
	if backend.flushCount() != 0 || backend.Len() != 0 {
		t.Fatal("empty user id must not write to the store")
	}
}

func TestCreateIssuesDistinctIDs(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, time.Hour)

	a, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	b, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct session ids")
	}
}

func TestCreateGeneratorFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")
	backend := NewMemoryBackend()
	m := NewManager(NewSnapshotStore(backend), NewPolicy(60), WithIDGenerator(func() (string, error) {
		return "", boom
	}))

	if _, err := m.Create(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected generator error, got %v", err)
	}
	if backend.Len() != 0 {
		t.Fatal("failed create must not persist")
	}
}

func TestCreatePersistFailure(t *testing.T) {
	m, backend, _ := newTestManager(t, time.Hour)
	backend.setFail(false, true)

	if _, err := m.Create(context.Background(), "u1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	sid, err := m.SessionIDForUser(context.Background(), "u1")
	if err != nil || sid != "" {
		t.Fatalf("failed create left a resolvable session: %q, %v", sid, err)
	}
}

func TestUserIDForUnknownAndEmpty(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager(t, time.Hour)

	for _, sid := range []string{"", "does-not-exist"} {
		uid, err := m.UserIDForSessionID(ctx, sid)
		if err != nil || uid != "" {
			t.Fatalf("sid %q: expected empty result, got %q, %v", sid, uid, err)
		}
	}
	if backend.loads != 1 {
		t.Fatalf("empty id must short-circuit before reload, loads=%d", backend.loads)
	}
}

func TestExpirationIsReadTimeOnly(t *testing.T) {
	ctx := context.Background()
	m, backend, clock := newTestManager(t, 10*time.Second)

	sid, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	clock.Advance(9 * time.Second)
	if uid, _ := m.UserIDForSessionID(ctx, sid); uid != "u1" {
		t.Fatalf("expected valid session before window ends, got %q", uid)
	}

	clock.Advance(time.Second)
	uid, err := m.UserIDForSessionID(ctx, sid)
	if err != nil {
		t.Fatalf("UserIDForSessionID error: %v", err)
	}
	if uid != "" {
		t.Fatalf("expected expired session at boundary, got %q", uid)
	}
	if backend.Len() != 1 {
		t.Fatal("expired record must stay in the store")
	}
}

func TestZeroAndNegativeDurationExpireImmediately(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		t.Run(fmt.Sprint(d), func(t *testing.T) {
			ctx := context.Background()
			m, _, _ := newTestManager(t, d)

			sid, err := m.Create(ctx, "u1")
			if err != nil {
				t.Fatalf("Create error: %v", err)
			}
			if uid, _ := m.UserIDForSessionID(ctx, sid); uid != "" {
				t.Fatalf("expected immediate expiry, got %q", uid)
			}
		})
	}
}

func TestRealClockZeroDuration(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewSnapshotStore(NewMemoryBackend()), NewPolicy(0))

	sid, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if uid, _ := m.UserIDForSessionID(ctx, sid); uid != "" {
		t.Fatalf("expected immediate expiry, got %q", uid)
	}
}

func TestSessionIDForUserReturnsNewestValid(t *testing.T) {
	ctx := context.Background()
	m, _, clock := newTestManager(t, 10*time.Second)

	first, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	clock.Advance(5 * time.Second)
	second, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := m.Create(ctx, "u2"); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := m.SessionIDForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("SessionIDForUser error: %v", err)
	}
	if got != second {
		t.Fatalf("expected newest session %q, got %q (first %q)", second, got, first)
	}

	clock.Advance(20 * time.Second)
	if got, _ := m.SessionIDForUser(ctx, "u1"); got != "" {
		t.Fatalf("expected no valid session, got %q", got)
	}
	if got, _ := m.SessionIDForUser(ctx, ""); got != "" {
		t.Fatalf("expected empty for empty user, got %q", got)
	}
}

func TestDestroyValidSession(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager(t, time.Hour)

	sid, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	res := m.Destroy(ctx, sid)
	if !res.OK() || res.Err != nil {
		t.Fatalf("expected successful destroy, got %+v", res)
	}
	if backend.Len() != 0 {
		t.Fatal("destroy must persist the removal")
	}
	if uid, _ := m.UserIDForSessionID(ctx, sid); uid != "" {
		t.Fatalf("destroyed session still resolves to %q", uid)
	}

	again := m.Destroy(ctx, sid)
	if again.OK() || !errors.Is(again.Err, ErrSessionNotFound) {
		t.Fatalf("expected not-found on second destroy, got %+v", again)
	}
}

func TestDestroyFailureReasons(t *testing.T) {
	ctx := context.Background()
	m, backend, clock := newTestManager(t, time.Minute)

	if res := m.Destroy(ctx, ""); res.OK() || !errors.Is(res.Err, ErrNoSessionID) {
		t.Fatalf("expected ErrNoSessionID, got %+v", res)
	}
	if res := m.Destroy(ctx, "missing"); res.OK() || !errors.Is(res.Err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %+v", res)
	}

	sid, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	flushesBefore := backend.flushCount()

	clock.Advance(2 * time.Minute)
	res := m.Destroy(ctx, sid)
	if res.OK() || !errors.Is(res.Err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %+v", res)
	}
	if backend.flushCount() != flushesBefore || backend.Len() != 1 {
		t.Fatal("destroying an expired session must not mutate the store")
	}
}

func TestDestroyAbsorbsStoreFailures(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager(t, time.Hour)

	sid, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	backend.setFail(false, true)
	res := m.Destroy(ctx, sid)
	if res.OK() || !errors.Is(res.Err, ErrStoreUnavailable) {
		t.Fatalf("expected absorbed persist failure, got %+v", res)
	}

	backend.setFail(true, false)
	res = m.Destroy(ctx, sid)
	if res.OK() || !errors.Is(res.Err, ErrStoreUnavailable) {
		t.Fatalf("expected absorbed reload failure, got %+v", res)
	}
}

func TestDestroyPersistFailureKeepsSessionLive(t *testing.T) {
	ctx := context.Background()
	m, backend, _ := newTestManager(t, time.Hour)

	sid, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	backend.setFail(false, true)
	if res := m.Destroy(ctx, sid); res.OK() {
		t.Fatalf("expected failed destroy, got %+v", res)
	}
	backend.setFail(false, false)

	if uid, err := m.UserIDForSessionID(ctx, sid); err != nil || uid != "u1" {
		t.Fatalf("unpersisted destroy must not hide the session, got %q, %v", uid, err)
	}
	if err := m.store.Persist(ctx); err != nil {
		t.Fatalf("Persist error: %v", err)
	}
	if backend.Len() != 1 {
		t.Fatalf("a later flush must not apply the failed removal, backend has %d records", backend.Len())
	}
	if res := m.Destroy(ctx, sid); !res.OK() {
		t.Fatalf("retry destroy failed: %+v", res)
	}
	if backend.Len() != 0 {
		t.Fatalf("expected empty backend, got %d", backend.Len())
	}
}

func TestDestroyRecoversFromStorePanic(t *testing.T) {
	ctx := context.Background()
	inner := NewSnapshotStore(NewMemoryBackend())
	m := NewManager(panicStore{Store: inner}, NewPolicy(3600))

	sid, err := m.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	res := m.Destroy(ctx, sid)
	if res.OK() || !errors.Is(res.Err, ErrStoreUnavailable) {
		t.Fatalf("expected panic converted to failure, got %+v", res)
	}
}

func TestConcurrentDestroyHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	creator := NewManager(NewSnapshotStore(backend), NewPolicy(3600))
	sid, err := creator.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// One store view per request handler, all sharing the backend.
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if creator.Destroy(ctx, sid).OK() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one successful destroy, got %d", wins.Load())
	}
	if backend.Len() != 0 {
		t.Fatal("session must be gone")
	}
}
