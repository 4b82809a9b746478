package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/deniswachira/sessionauth/session"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestFlushAndLoad(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	b := New(rdb, Options{Prefix: "t"})

	created := time.Unix(1700000000, 42)
	recs := []session.Session{
		{ID: "s1", UserID: "u1", CreatedAt: created},
		{ID: "s2", UserID: "u2", CreatedAt: created},
	}
	if err := b.Flush(ctx, recs, nil); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if !mr.Exists("t:s:s1") || !mr.Exists("t:s:s2") {
		t.Fatal("expected record keys")
	}
	if ttl := mr.TTL("t:s:s1"); ttl != 0 {
		t.Fatalf("expected no TTL by default, got %v", ttl)
	}

	loaded, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded))
	}
	for _, rec := range loaded {
		if !rec.CreatedAt.Equal(created) {
			t.Fatalf("created_at mismatch for %s: %v", rec.ID, rec.CreatedAt)
		}
	}

	if err := b.Flush(ctx, nil, []string{"s1", "never-existed"}); err != nil {
		t.Fatalf("Flush delete error: %v", err)
	}
	if mr.Exists("t:s:s1") {
		t.Fatal("expected s1 deleted")
	}
	members, err := rdb.SMembers(ctx, "t:idx").Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 1 || members[0] != "s2" {
		t.Fatalf("unexpected index members: %v", members)
	}
}

func TestLoadPrunesEvictedAndSkipsCorrupt(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	b := New(rdb, Options{Prefix: "t", RecordTTL: time.Minute})

	if err := b.Flush(ctx, []session.Session{{ID: "s1", UserID: "u1", CreatedAt: time.Unix(1, 0)}}, nil); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if ttl := mr.TTL("t:s:s1"); ttl != time.Minute {
		t.Fatalf("expected record TTL, got %v", ttl)
	}

	if _, err := mr.SAdd("t:idx", "gone", "junk"); err != nil {
		t.Fatalf("sadd: %v", err)
	}
	if err := mr.Set("t:s:junk", "not-a-record"); err != nil {
		t.Fatalf("set: %v", err)
	}

	loaded, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "s1" {
		t.Fatalf("unexpected load result: %+v", loaded)
	}
	if ok, _ := mr.SIsMember("t:idx", "gone"); ok {
		t.Fatal("expected evicted id pruned from index")
	}

	mr.FastForward(2 * time.Minute)
	loaded, err = b.Load(ctx)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected TTL eviction, got %+v", loaded)
	}
}

func TestUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	b := New(rdb, Options{})
	mr.Close()

	if _, err := b.Load(ctx); !errors.Is(err, session.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Load, got %v", err)
	}
	err := b.Flush(ctx, []session.Session{{ID: "s", UserID: "u"}}, nil)
	if !errors.Is(err, session.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from Flush, got %v", err)
	}
}

func TestManagerOverRedis(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	// Two managers model two processes sharing one Redis.
	a := session.NewManager(session.NewSnapshotStore(New(rdb, Options{})), session.NewPolicy(3600))
	b := session.NewManager(session.NewSnapshotStore(New(rdb, Options{})), session.NewPolicy(3600))

	sid, err := a.Create(ctx, "u1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	uid, err := b.UserIDForSessionID(ctx, sid)
	if err != nil || uid != "u1" {
		t.Fatalf("expected peer to resolve session, got %q, %v", uid, err)
	}

	if res := b.Destroy(ctx, sid); !res.OK() {
		t.Fatalf("Destroy failed: %v", res.Err)
	}
	if uid, _ := a.UserIDForSessionID(ctx, sid); uid != "" {
		t.Fatalf("destroyed session still visible to peer: %q", uid)
	}
}
