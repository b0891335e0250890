// Package store persists dictionary terms and word tags in an embedded bbolt
// database. Keys are canonical forms, so a term added as "ＢＡＤ" and one
// removed as "bad" refer to the same entry.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wordsift/wordsift/internal/checkers"
	"github.com/wordsift/wordsift/internal/normalize"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketDeny  = []byte("deny")
	bucketAllow = []byte("allow")
	bucketTags  = []byte("tags")
)

// Store is a term store backed by bbolt.
type Store struct {
	db   *bolt.DB
	opts normalize.Options
}

// Open opens (or creates) the database at path and ensures its buckets exist.
func Open(path string, opts normalize.Options) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketDeny, bucketAllow, bucketTags} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}
	return &Store{db: db, opts: opts}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func bucketFor(p checkers.Partition) []byte {
	if p == checkers.Allow {
		return bucketAllow
	}
	return bucketDeny
}

func (s *Store) key(term string) ([]byte, error) {
	c := normalize.Canonical(term, s.opts)
	if c == "" {
		return nil, fmt.Errorf("empty term %q", term)
	}
	return []byte(c), nil
}

// AddTerm stores term in partition p and reports whether it was new.
func (s *Store) AddTerm(term string, p checkers.Partition) (bool, error) {
	k, err := s.key(term)
	if err != nil {
		return false, err
	}
	added := false
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFor(p))
		if b.Get(k) != nil {
			return nil
		}
		added = true
		return b.Put(k, []byte(term))
	})
	return added, err
}

// RemoveTerm deletes term from partition p and reports whether it existed.
func (s *Store) RemoveTerm(term string, p checkers.Partition) (bool, error) {
	k, err := s.key(term)
	if err != nil {
		return false, err
	}
	removed := false
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFor(p))
		if b.Get(k) == nil {
			return nil
		}
		removed = true
		return b.Delete(k)
	})
	return removed, err
}

// List returns the canonical terms of partition p in key order.
func (s *Store) List(p checkers.Partition) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFor(p)).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

// SetTags replaces the tags of word. An empty list deletes the entry.
func (s *Store) SetTags(word string, tags []string) error {
	k, err := s.key(word)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTags)
		if len(tags) == 0 {
			return b.Delete(k)
		}
		v, err := json.Marshal(tags)
		if err != nil {
			return err
		}
		return b.Put(k, v)
	})
}

// TagsOf returns the stored tags of word, or nil.
func (s *Store) TagsOf(word string) ([]string, error) {
	k, err := s.key(word)
	if err != nil {
		return nil, nil
	}
	var tags []string
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTags).Get(k)
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &tags)
	})
	return tags, err
}

// Terms implements dict.TermSource.
func (s *Store) Terms(ctx context.Context) ([]string, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	deny, err := s.List(checkers.Deny)
	if err != nil {
		return nil, nil, err
	}
	allow, err := s.List(checkers.Allow)
	if err != nil {
		return nil, nil, err
	}
	return deny, allow, nil
}

// Tags implements dict.TagSource.
func (s *Store) Tags(ctx context.Context) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := map[string][]string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTags).ForEach(func(k, v []byte) error {
			var tags []string
			if err := json.Unmarshal(v, &tags); err != nil {
				return fmt.Errorf("tags of %q: %w", k, err)
			}
			out[string(k)] = tags
			return nil
		})
	})
	return out, err
}
