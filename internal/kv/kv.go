// Package kv wraps the embedded bbolt key/value store used as the
// persistence substrate for every on-disk table vx maintains (blob
// metadata, tree nodes, commits, branches, and repository metadata). bbolt
// has no native multi-value key, which is why the commit store layers a
// version stack on top of a single value per key (see internal/store).
package kv

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// openTimeout bounds how long Open waits for the file lock bbolt takes on
// the database file, so a second vx process fails fast with a clear error
// instead of hanging.
const openTimeout = 2 * time.Second

// DB is a single bbolt-backed database file holding one or more buckets.
type DB struct {
	bolt *bolt.DB
	path string
}

// Open opens (creating if absent) the bbolt database at path and ensures
// every bucket in buckets exists.
func Open(path string, buckets ...string) (*DB, error) {
	b, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("kv: opening %s: %w", path, err)
	}

	if len(buckets) > 0 {
		err = b.Update(func(tx *bolt.Tx) error {
			for _, name := range buckets {
				if _, createErr := tx.CreateBucketIfNotExists([]byte(name)); createErr != nil {
					return fmt.Errorf("creating bucket %q: %w", name, createErr)
				}
			}
			return nil
		})
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("kv: initializing %s: %w", path, err)
		}
	}

	return &DB{bolt: b, path: path}, nil
}

// Close releases the file lock and flushes any pending writes.
func (d *DB) Close() error {
	if err := d.bolt.Close(); err != nil {
		return fmt.Errorf("kv: closing %s: %w", d.path, err)
	}
	return nil
}

// Get returns the value stored under key in bucket, or (nil, false) if
// absent. The returned slice is a copy safe to retain past the call.
func (d *DB) Get(bucket, key string) ([]byte, bool, error) {
	var value []byte
	err := d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("kv: get %s/%s: %w", bucket, key, err)
	}
	return value, value != nil, nil
}

// Put writes value under key in bucket, overwriting any existing value.
func (d *DB) Put(bucket, key string, value []byte) error {
	err := d.bolt.Update(func(tx *bolt.Tx) error {
		b, bucketErr := tx.CreateBucketIfNotExists([]byte(bucket))
		if bucketErr != nil {
			return bucketErr
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("kv: put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Has reports whether key exists in bucket.
func (d *DB) Has(bucket, key string) (bool, error) {
	_, ok, err := d.Get(bucket, key)
	return ok, err
}

// ForEach iterates every key/value pair in bucket in key order. Returning
// a non-nil error from fn stops iteration and is returned to the caller.
func (d *DB) ForEach(bucket string, fn func(key, value []byte) error) error {
	err := d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(fn)
	})
	if err != nil {
		return fmt.Errorf("kv: foreach %s: %w", bucket, err)
	}
	return nil
}

// Update runs fn inside a single read-write transaction scoped to bucket,
// giving callers an atomic read-modify-write over one key — the mechanism
// the commit store's version-stack save and the branch store's
// compare-and-swap create / head-advance both build on.
func (d *DB) Update(bucket string, fn func(b *bolt.Bucket) error) error {
	err := d.bolt.Update(func(tx *bolt.Tx) error {
		b, bucketErr := tx.CreateBucketIfNotExists([]byte(bucket))
		if bucketErr != nil {
			return bucketErr
		}
		return fn(b)
	})
	if err != nil {
		return fmt.Errorf("kv: update %s: %w", bucket, err)
	}
	return nil
}
