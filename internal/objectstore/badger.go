// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mealreco/internal/logging"
)

// Key prefixes for BadgerDB storage
const (
	objectKeyPrefix = "obj:"
	metaKeyPrefix   = "meta:"
)

type badgerMeta struct {
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Badger stores lake objects in an embedded BadgerDB.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger lake at dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	logging.Info().Str("path", dir).Bool("in_memory", dir == "").Msg("Lake opened")
	return &Badger{db: db}, nil
}

// Get implements Store.
func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var body []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(objectKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrObjectNotFound
		}
		if err != nil {
			return fmt.Errorf("get object: %w", err)
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Put implements Store.
func (b *Badger) Put(_ context.Context, key string, body []byte) error {
	meta, err := json.Marshal(badgerMeta{Size: int64(len(body)), ModifiedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal object meta: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(objectKeyPrefix+key), body); err != nil {
			return fmt.Errorf("set object: %w", err)
		}
		if err := txn.Set([]byte(metaKeyPrefix+key), meta); err != nil {
			return fmt.Errorf("set object meta: %w", err)
		}
		return nil
	})
}

// List implements Store. Keys come back in lexical order.
func (b *Badger) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(metaKeyPrefix + prefix)
		for it.Seek(seek); it.ValidForPrefix(seek); it.Next() {
			item := it.Item()
			var meta badgerMeta
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("decode object meta: %w", err)
			}
			out = append(out, ObjectInfo{
				Key:        string(item.Key()[len(metaKeyPrefix):]),
				Size:       meta.Size,
				ModifiedAt: meta.ModifiedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return out, nil
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (b *Badger) RunGC(ratio float64) error {
	for {
		err := b.db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
