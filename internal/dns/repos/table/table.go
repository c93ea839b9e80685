// Package table is a small named-table abstraction over bbolt. Each table is
// a bucket of opaque byte keys and values; callers own the encoding.
package table

import (
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var bucketMeta = []byte("meta")

// ErrNoTable is returned when an operation names a table that was never created.
var ErrNoTable = errors.New("table does not exist")

// DB is a bbolt file holding any number of named tables.
type DB struct {
	db *bbolt.DB
}

// Open opens (or creates) a bbolt database at path.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Path returns the database file path.
func (d *DB) Path() string { return d.db.Path() }

// Create ensures the named table exists.
func (d *DB) Create(name string) error {
	if name == "" || name == string(bucketMeta) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
}

// Insert stores value under key, replacing any previous value.
func (d *DB) Insert(name string, key, value []byte) error {
	return d.update(name, func(b *bbolt.Bucket) error {
		return b.Put(key, value)
	})
}

// InsertMany stores every key/value pair in one transaction.
func (d *DB) InsertMany(name string, pairs map[string][]byte) error {
	return d.update(name, func(b *bbolt.Bucket) error {
		for k, v := range pairs {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Select returns a copy of the value stored under key.
func (d *DB) Select(name string, key []byte) ([]byte, bool, error) {
	var out []byte
	err := d.view(name, func(b *bbolt.Bucket) error {
		if v := b.Get(key); v != nil {
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	return out, out != nil, err
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DB) Delete(name string, key []byte) error {
	return d.update(name, func(b *bbolt.Bucket) error {
		return b.Delete(key)
	})
}

// Fold calls fn for every key/value pair in key order. The slices are only
// valid for the duration of the call. A non-nil error from fn stops the fold
// and is returned.
func (d *DB) Fold(name string, fn func(key, value []byte) error) error {
	return d.view(name, func(b *bbolt.Bucket) error {
		return b.ForEach(fn)
	})
}

// Len returns the number of keys in the table.
func (d *DB) Len(name string) (int, error) {
	var n int
	err := d.view(name, func(b *bbolt.Bucket) error {
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

// Touch records the current time as the last modification of the table.
func (d *DB) Touch(name string, at time.Time) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		buf, err := at.UTC().MarshalBinary()
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put([]byte(name), buf)
	})
}

// Updated returns the time last recorded by Touch, or the zero time.
func (d *DB) Updated(name string) (time.Time, error) {
	var t time.Time
	err := d.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(name))
		if v == nil {
			return nil
		}
		return t.UnmarshalBinary(v)
	})
	return t, err
}

func (d *DB) view(name string, fn func(*bbolt.Bucket) error) error {
	return d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrNoTable, name)
		}
		return fn(b)
	})
}

func (d *DB) update(name string, fn func(*bbolt.Bucket) error) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrNoTable, name)
		}
		return fn(b)
	})
}
