package sessionauth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deniswachira/sessionauth/password"
	"github.com/deniswachira/sessionauth/user"
)

func TestBuildRequiresUserStore(t *testing.T) {
	_, err := New().WithConfig(testConfig()).Build()
	if err == nil || !strings.Contains(err.Error(), "user store") {
		t.Fatalf("expected user store error, got %v", err)
	}
}

func TestBuildRejectsReuse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithUserStore(user.NewMemoryStore())
	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Session.DurationSeconds = -1

	if _, err := New().WithConfig(cfg).WithUserStore(user.NewMemoryStore()).Build(); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}

func TestBuildRedisBackendRequiresClient(t *testing.T) {
	cfg := testConfig()
	cfg.Session.Backend = SessionBackendRedis

	_, err := New().WithConfig(cfg).WithUserStore(user.NewMemoryStore()).Build()
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("expected redis client error, got %v", err)
	}
}

func TestBuildRedisBackend(t *testing.T) {
	rdb, mr := newRedisForTest(t)
	e := newTestEngine(t, func(cfg *Config, b *Builder) {
		cfg.Session.Backend = SessionBackendRedis
		cfg.Session.RedisPrefix = "it"
		b.WithRedis(rdb)
	})
	ctx := context.Background()
	mustRegister(t, e, "bob@example.com", "s3cret")
	sid := mustCreateSession(t, e, "bob@example.com")

	if !mr.Exists("it:s:" + sid) {
		t.Fatal("session not written to redis")
	}
	if u, err := e.GetUserFromSessionID(ctx, sid); err != nil || u == nil {
		t.Fatalf("GetUserFromSessionID = %+v, %v", u, err)
	}
}

func TestBuildBoltBackendSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	users := user.NewMemoryStore()
	cfg := testConfig()
	cfg.Session.Backend = SessionBackendBolt
	cfg.Session.BoltPath = path
	ctx := context.Background()

	first, err := New().WithConfig(cfg).WithUserStore(users).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := first.RegisterUser(ctx, "bob@example.com", "s3cret"); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	sid, err := first.CreateSession(ctx, "bob@example.com")
	if err != nil || sid == "" {
		t.Fatalf("CreateSession = %q, %v", sid, err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := New().WithConfig(cfg).WithUserStore(users).Build()
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}
	defer second.Close()

	u, err := second.GetUserFromSessionID(ctx, sid)
	if err != nil || u == nil || u.Email != "bob@example.com" {
		t.Fatalf("session lost across restart: %+v, %v", u, err)
	}
}

func TestBuildBcryptPrimaryVerifiesArgon2(t *testing.T) {
	cfg := testConfig()
	argon, err := password.NewArgon2(cfg.Password.argon2())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	digest, err := argon.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	cfg.Password.Algorithm = AlgorithmBcrypt
	cfg.Password.UpgradeOnLogin = false
	users := user.NewMemoryStore()
	if _, err := users.Add(context.Background(), "bob@example.com", digest); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	e, err := New().WithConfig(cfg).WithUserStore(users).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !e.ValidLogin(context.Background(), "bob@example.com", "s3cret") {
		t.Fatal("argon2 digest not verified under bcrypt primary")
	}

	u, err := e.RegisterUser(context.Background(), "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if !strings.HasPrefix(u.HashedPassword, "$2") {
		t.Fatalf("expected bcrypt digest, got %q", u.HashedPassword)
	}
}
