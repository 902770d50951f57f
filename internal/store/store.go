package store

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/marquee/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketFavorites = []byte("favorites")
	bucketWatched   = []byte("watched")
)

var allBuckets = [][]byte{bucketFavorites, bucketWatched}

const dbFile = "marquee.db"

// HistoryStore persists favorite and watched records using BoltDB.
// Each history kind has its own bucket of JSON records keyed by movie id.
type HistoryStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access).
	// In memory-only mode it is the whole store.
	cache map[string][]byte
}

// NewHistoryStore opens the store under dir. An empty dir keeps everything in
// memory.
func NewHistoryStore(dir string) (*HistoryStore, error) {
	if dir == "" {
		// Memory-only mode (no persistence)
		return &HistoryStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
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

	return &HistoryStore{db: db, cache: make(map[string][]byte)}, nil
}

// Close releases the database
func (s *HistoryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func bucketFor(kind domain.HistoryKind) ([]byte, error) {
	switch kind {
	case domain.HistoryFavorite:
		return bucketFavorites, nil
	case domain.HistoryWatched:
		return bucketWatched, nil
	default:
		return nil, fmt.Errorf("unknown history kind %q", kind)
	}
}

// === Generic helpers ===

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

func (s *HistoryStore) get(bucket []byte, key string, dest any) (bool, error) {
	ck := cacheKey(bucket, key)

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return true, json.Unmarshal(data, dest)
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = slices.Clone(v)
		}
		return nil
	})
	if err != nil || data == nil {
		return false, err
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[ck] = data
	s.mu.Unlock()

	return true, json.Unmarshal(data, dest)
}

func (s *HistoryStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()
	return nil
}

func (s *HistoryStore) delete(bucket []byte, key string) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Delete([]byte(key))
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	delete(s.cache, cacheKey(bucket, key))
	s.mu.Unlock()
	return nil
}

// scan returns every raw value in bucket
func (s *HistoryStore) scan(bucket []byte) ([][]byte, error) {
	var values [][]byte

	if s.db == nil {
		prefix := string(bucket) + ":"
		s.mu.RLock()
		for k, v := range s.cache {
			if strings.HasPrefix(k, prefix) {
				values = append(values, v)
			}
		}
		s.mu.RUnlock()
		return values, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, v []byte) error {
			values = append(values, slices.Clone(v))
			return nil
		})
	})
	return values, err
}

// === History records ===

// Get returns the record of id for kind
func (s *HistoryStore) Get(kind domain.HistoryKind, id string) (domain.HistoryRecord, bool, error) {
	bucket, err := bucketFor(kind)
	if err != nil {
		return domain.HistoryRecord{}, false, err
	}
	var rec domain.HistoryRecord
	ok, err := s.get(bucket, id, &rec)
	return rec, ok, err
}

// Put stores rec under kind
func (s *HistoryStore) Put(kind domain.HistoryKind, rec domain.HistoryRecord) error {
	bucket, err := bucketFor(kind)
	if err != nil {
		return err
	}
	if rec.ID == "" {
		return fmt.Errorf("history record without id")
	}
	return s.set(bucket, rec.ID, rec)
}

// Delete removes id from kind. Deleting a missing id is not an error.
func (s *HistoryStore) Delete(kind domain.HistoryKind, id string) error {
	bucket, err := bucketFor(kind)
	if err != nil {
		return err
	}
	return s.delete(bucket, id)
}

// List returns every record of kind, oldest first.
func (s *HistoryStore) List(kind domain.HistoryKind) ([]domain.HistoryRecord, error) {
	bucket, err := bucketFor(kind)
	if err != nil {
		return nil, err
	}
	values, err := s.scan(bucket)
	if err != nil {
		return nil, err
	}

	records := make([]domain.HistoryRecord, 0, len(values))
	for _, v := range values {
		var rec domain.HistoryRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", kind, err)
		}
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b domain.HistoryRecord) int {
		return cmp.Or(cmp.Compare(a.UpdatedAt, b.UpdatedAt), cmp.Compare(a.ID, b.ID))
	})
	return records, nil
}
