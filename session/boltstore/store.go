// Package boltstore is a session.Backend on a single bbolt file.
package boltstore

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/deniswachira/sessionauth/session"
)

const backendName = "bolt"

var sessionsBucket = []byte("sessions")

// Backend implements session.Backend over a bbolt database.
type Backend struct {
	db *bbolt.DB
}

// New returns a Backend over db and makes sure the sessions bucket exists.
func New(db *bbolt.DB) (*Backend, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating sessions bucket: %w", err)
	}
	return &Backend{db: db}, nil
}

// Open opens (or creates) the bbolt file at path and returns a Backend over it.
func Open(path string, options *bbolt.Options) (*Backend, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	b, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Load implements session.Backend. Undecodable records are skipped.
func (b *Backend) Load(ctx context.Context) ([]session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []session.Session
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sessionsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			rec, err := session.Decode(v)
			if err != nil || rec.ID != string(k) {
				return nil
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, session.WrapUnavailable(backendName, "load", err)
	}
	return out, nil
}

// Flush implements session.Backend in one read-write transaction.
func (b *Backend) Flush(ctx context.Context, upserts []session.Session, deletes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(sessionsBucket)
		if err != nil {
			return err
		}
		for _, id := range deletes {
			if err := bucket.Delete([]byte(id)); err != nil {
				return err
			}
		}
		for _, rec := range upserts {
			raw, err := session.Encode(rec)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(rec.ID), raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return session.WrapUnavailable(backendName, "flush", err)
	}
	return nil
}
