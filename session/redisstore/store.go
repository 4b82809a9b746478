// Package redisstore is a session.Backend on Redis.
//
// Each session is a string key "<prefix>:s:<id>" holding the binary record
// from session.Encode. The set "<prefix>:idx" lists every stored id so Load
// can enumerate records without SCAN.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deniswachira/sessionauth/session"
)

const backendName = "redis"

// Options tunes a [Backend].
type Options struct {
	// Prefix namespaces every key. Defaults to "sa".
	Prefix string
	// RecordTTL, when positive, lets Redis evict records that long after
	// they were written. Zero keeps records until they are destroyed.
	RecordTTL time.Duration
}

// Backend implements session.Backend.
type Backend struct {
	redis     redis.UniversalClient
	prefix    string
	recordTTL time.Duration
}

// New returns a Backend using client.
func New(client redis.UniversalClient, opts Options) *Backend {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "sa"
	}
	return &Backend{
		redis:     client,
		prefix:    prefix,
		recordTTL: opts.RecordTTL,
	}
}

func (b *Backend) key(id string) string {
	return b.prefix + ":s:" + id
}

func (b *Backend) indexKey() string {
	return b.prefix + ":idx"
}

// Load implements session.Backend. Index entries whose record has been
// evicted are pruned; undecodable records are skipped.
func (b *Backend) Load(ctx context.Context) ([]session.Session, error) {
	ids, err := b.redis.SMembers(ctx, b.indexKey()).Result()
	if err != nil {
		return nil, session.WrapUnavailable(backendName, "load index", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.StringCmd, len(ids))
	_, err = b.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.Get(ctx, b.key(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, session.WrapUnavailable(backendName, "load records", err)
	}

	out := make([]session.Session, 0, len(ids))
	var stale []any
	for i, cmd := range cmds {
		raw, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			stale = append(stale, ids[i])
			continue
		}
		if err != nil {
			return nil, session.WrapUnavailable(backendName, "load record", err)
		}
		rec, err := session.Decode(raw)
		if err != nil || rec.ID != ids[i] {
			continue
		}
		out = append(out, rec)
	}

	if len(stale) > 0 {
		// Best-effort; the next load retries.
		_ = b.redis.SRem(ctx, b.indexKey(), stale...).Err()
	}
	return out, nil
}

// Flush implements session.Backend in a single MULTI/EXEC.
func (b *Backend) Flush(ctx context.Context, upserts []session.Session, deletes []string) error {
	encoded := make([][]byte, len(upserts))
	for i, rec := range upserts {
		raw, err := session.Encode(rec)
		if err != nil {
			return err
		}
		encoded[i] = raw
	}

	_, err := b.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range deletes {
			pipe.Del(ctx, b.key(id))
			pipe.SRem(ctx, b.indexKey(), id)
		}
		for i, rec := range upserts {
			pipe.Set(ctx, b.key(rec.ID), encoded[i], b.recordTTL)
			pipe.SAdd(ctx, b.indexKey(), rec.ID)
		}
		return nil
	})
	if err != nil {
		return session.WrapUnavailable(backendName, "flush", err)
	}
	return nil
}
