package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/moviedeck/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketImages = []byte("images")
	bucketState  = []byte("state")
)

const keyLists = "lists"

// Stats summarizes the persisted image tier.
type Stats struct {
	Entries int
	Bytes   int64
}

// Store implements domain.DiskStore and domain.ListStore using BoltDB.
// With an empty directory it runs in memory-only mode (no persistence).
type Store struct {
	db *bolt.DB

	mu  sync.RWMutex // Protects mem in memory-only mode
	mem map[string][]byte
}

var (
	_ domain.DiskStore = (*Store)(nil)
	_ domain.ListStore = (*Store)(nil)
)

// Open opens (or creates) moviedeck.db under dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return &Store{mem: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "moviedeck.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketImages, bucketState} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func memKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

func (s *Store) get(bucket []byte, key string) ([]byte, bool) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		data, ok := s.mem[memKey(bucket, key)]
		return data, ok
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		// Values are only valid for the life of the transaction
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, data != nil
}

func (s *Store) put(bucket []byte, key string, data []byte) error {
	if s.db == nil {
		buf := make([]byte, len(data))
		copy(buf, data)
		s.mu.Lock()
		s.mem[memKey(bucket, key)] = buf
		s.mu.Unlock()
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *Store) clearBucket(bucket []byte) error {
	if s.db == nil {
		prefix := memKey(bucket, "")
		s.mu.Lock()
		for k := range s.mem {
			if strings.HasPrefix(k, prefix) {
				delete(s.mem, k)
			}
		}
		s.mu.Unlock()
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	})
}

// === Images (disk tier) ===

// Get returns the encoded bytes stored under key.
func (s *Store) Get(key string) ([]byte, bool) {
	return s.get(bucketImages, key)
}

// Put stores encoded image bytes under key, overwriting any previous value.
func (s *Store) Put(key string, data []byte) error {
	return s.put(bucketImages, key, data)
}

// Delete removes one image.
func (s *Store) Delete(key string) error {
	if s.db == nil {
		s.mu.Lock()
		delete(s.mem, memKey(bucketImages, key))
		s.mu.Unlock()
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketImages).Delete([]byte(key))
	})
}

// ClearImages wipes the image tier; lists are kept.
func (s *Store) ClearImages() error {
	return s.clearBucket(bucketImages)
}

// ImageStats counts stored images and their total size.
func (s *Store) ImageStats() (Stats, error) {
	var stats Stats
	if s.db == nil {
		prefix := memKey(bucketImages, "")
		s.mu.RLock()
		for k, v := range s.mem {
			if strings.HasPrefix(k, prefix) {
				stats.Entries++
				stats.Bytes += int64(len(v))
			}
		}
		s.mu.RUnlock()
		return stats, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketImages).ForEach(func(_, v []byte) error {
			stats.Entries++
			stats.Bytes += int64(len(v))
			return nil
		})
	})
	return stats, err
}

// === Lists snapshot ===

func (s *Store) LoadLists() (domain.SavedLists, bool) {
	var lists domain.SavedLists
	data, ok := s.get(bucketState, keyLists)
	if !ok {
		return lists, false
	}
	if err := json.Unmarshal(data, &lists); err != nil {
		return domain.SavedLists{}, false
	}
	return lists, true
}

func (s *Store) SaveLists(lists domain.SavedLists) error {
	data, err := json.Marshal(lists)
	if err != nil {
		return err
	}
	return s.put(bucketState, keyLists, data)
}
