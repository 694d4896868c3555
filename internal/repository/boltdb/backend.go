// Package boltdb provides a BoltDB-backed store.Backend.
//
// Each kind gets three buckets: documents keyed by id, the index keyed by a
// big-endian sequence number (so cursor order is insertion order), and a
// reverse map from id to its index key.
package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"loyalty-service/internal/store"

	bolt "go.etcd.io/bbolt"
)

type Backend struct {
	db *bolt.DB
}

// Open opens (or creates) the database file at path.
func Open(path string) (*Backend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func posBucket(k store.Kind) []byte { return []byte(k.Index + ".pos") }

type buckets struct {
	data, index, pos *bolt.Bucket
}

func writeBuckets(tx *bolt.Tx, k store.Kind) (buckets, error) {
	var bs buckets
	var err error
	if bs.data, err = tx.CreateBucketIfNotExists([]byte(k.Entity)); err != nil {
		return bs, err
	}
	if bs.index, err = tx.CreateBucketIfNotExists([]byte(k.Index)); err != nil {
		return bs, err
	}
	if bs.pos, err = tx.CreateBucketIfNotExists(posBucket(k)); err != nil {
		return bs, err
	}
	return bs, nil
}

func put(bs buckets, id string, data []byte) error {
	seq, err := bs.index.NextSequence()
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	if err := bs.index.Put(key, []byte(id)); err != nil {
		return err
	}
	if err := bs.pos.Put([]byte(id), key); err != nil {
		return err
	}
	return bs.data.Put([]byte(id), data)
}

func (b *Backend) Exists(_ context.Context, k store.Kind, id string) (bool, error) {
	var ok bool
	err := b.db.View(func(tx *bolt.Tx) error {
		if bk := tx.Bucket([]byte(k.Entity)); bk != nil {
			ok = bk.Get([]byte(id)) != nil
		}
		return nil
	})
	return ok, err
}

func (b *Backend) Get(_ context.Context, k store.Kind, id string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(k.Entity))
		if bk == nil {
			return store.ErrNotFound
		}
		v := bk.Get([]byte(id))
		if v == nil {
			return store.ErrNotFound
		}
		// values are only valid for the life of the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (b *Backend) Insert(_ context.Context, k store.Kind, id string, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bs, err := writeBuckets(tx, k)
		if err != nil {
			return err
		}
		if bs.data.Get([]byte(id)) != nil {
			return store.ErrConflict
		}
		return put(bs, id, data)
	})
}

// Update runs inside a single read-write transaction. Bolt allows one writer
// at a time, which linearizes updates.
func (b *Backend) Update(_ context.Context, k store.Kind, id string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	var out []byte
	err := b.db.Update(func(tx *bolt.Tx) error {
		bs, err := writeBuckets(tx, k)
		if err != nil {
			return err
		}
		cur := bs.data.Get([]byte(id))
		if cur == nil {
			return store.ErrNotFound
		}
		next, err := fn(append([]byte(nil), cur...))
		if err != nil {
			return err
		}
		if err := bs.data.Put([]byte(id), next); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

func (b *Backend) Delete(_ context.Context, k store.Kind, id string) (bool, error) {
	var deleted bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bs, err := writeBuckets(tx, k)
		if err != nil {
			return err
		}
		if bs.data.Get([]byte(id)) == nil {
			return nil
		}
		if key := bs.pos.Get([]byte(id)); key != nil {
			if err := bs.index.Delete(append([]byte(nil), key...)); err != nil {
				return err
			}
		}
		if err := bs.pos.Delete([]byte(id)); err != nil {
			return err
		}
		deleted = true
		return bs.data.Delete([]byte(id))
	})
	return deleted, err
}

func (b *Backend) List(_ context.Context, k store.Kind) ([][]byte, error) {
	out := [][]byte{}
	err := b.db.View(func(tx *bolt.Tx) error {
		idx, data := tx.Bucket([]byte(k.Index)), tx.Bucket([]byte(k.Entity))
		if idx == nil || data == nil {
			return nil
		}
		return idx.ForEach(func(_, id []byte) error {
			if v := data.Get(id); v != nil {
				out = append(out, append([]byte(nil), v...))
			}
			return nil
		})
	})
	return out, err
}

func (b *Backend) Count(_ context.Context, k store.Kind) (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		if idx := tx.Bucket([]byte(k.Index)); idx != nil {
			n = idx.Stats().KeyN
		}
		return nil
	})
	return n, err
}

func (b *Backend) SeedIfEmpty(_ context.Context, k store.Kind, records []store.Record) (bool, error) {
	var seeded bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bs, err := writeBuckets(tx, k)
		if err != nil {
			return err
		}
		if first, _ := bs.index.Cursor().First(); first != nil {
			return nil
		}
		for _, r := range records {
			if bs.data.Get([]byte(r.ID)) != nil {
				continue
			}
			if err := put(bs, r.ID, r.Data); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}
