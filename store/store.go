// Copyright 2019 tapir.run authors. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/blake2b"

	"tapir.run/codec/binary"
	"tapir.run/tvm/val"
)

const (
	InitialMmapSize = 1024 * 1024 * 16 // 16MB
	Perm            = 0700
)

// Store persists script-global table state across runs. Each named
// table lives in its own bucket; entries are keyed by a digest of the
// encoded index and hold the encoded (index, yield) pair so that both
// halves round-trip.
type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, e := bolt.Open(path, Perm, &bolt.Options{
		InitialMmapSize: InitialMmapSize,
		Timeout:         time.Second * 3,
	})
	if e != nil {
		return nil, e
	}
	return &Store{db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// digest gives the fixed-size bucket key for a table index. Structurally
// equal indexes encode equally, so their digests collide by design.
func digest(index val.Value) []byte {
	sum := blake2b.Sum256(binary.Encode(index))
	return sum[:]
}

// SaveTable replaces the persisted state of the named table.
func (s *Store) SaveTable(name string, t *val.Table) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(name)) != nil {
			if e := tx.DeleteBucket([]byte(name)); e != nil {
				return e
			}
		}
		bk, e := tx.CreateBucket([]byte(name))
		if e != nil {
			return e
		}
		t.ForEach(func(index, yield val.Value) bool {
			e = bk.Put(digest(index), binary.Encode(val.List{index, yield}))
			return e == nil
		})
		return e
	})
}

// LoadTable reads the persisted state of the named table. A table that
// was never saved comes back empty, not as an error.
func (s *Store) LoadTable(name string) (*val.Table, error) {
	out := val.NewTable(0)
	e := s.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(name))
		if bk == nil {
			return nil
		}
		return bk.ForEach(func(k, v []byte) error {
			w, de := binary.Decode(v)
			if de != nil {
				return de
			}
			pair, ok := w.(val.List)
			if !ok || len(pair) != 2 || pair[0] == nil {
				return fmt.Errorf("corrupt table entry in bucket %q", name)
			}
			out.Assign(pair[0], pair[1])
			return nil
		})
	})
	if e != nil {
		return nil, e
	}
	return out, nil
}

func (s *Store) DeleteTable(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(name)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(name))
	})
}

// Tables lists every persisted table name.
func (s *Store) Tables() ([]string, error) {
	names := []string(nil)
	e := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if e != nil {
		return nil, e
	}
	return names, nil
}
