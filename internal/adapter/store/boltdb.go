// Package store persists generated summaries in a content-addressed cache
// and keeps the document line-mapping index alongside it. Summaries and
// mappings live in separate buckets so either can be cleared without
// touching the other. Fingerprint equality is the only validity gate; a
// corrupt record is a miss for that record, never a store failure.
package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kstonekuan/docs-tree-ai/internal/domain"
	"github.com/kstonekuan/docs-tree-ai/internal/logger"
)

var (
	bucketSummaries = []byte("summaries")
	bucketMappings  = []byte("mappings")
	bucketMeta      = []byte("meta")
	keyMappingSet   = []byte("document")
)

// SummaryStore is the bbolt-backed summary cache.
type SummaryStore struct {
	db *bbolt.DB
}

// NewSummaryStore opens (or creates) the cache database at path and
// rebuilds it if the on-disk schema is from an incompatible version.
func NewSummaryStore(path string) (*SummaryStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketSummaries, bucketMappings, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SummaryStore{db: db}
	if err := s.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SummaryStore) Close() error {
	return s.db.Close()
}

// cacheKey normalizes a node path into its cache key. Backslashes are
// flattened so keys are stable across platforms.
func cacheKey(path string) []byte {
	return []byte(strings.ReplaceAll(path, "\\", "/"))
}

// Get returns the cached summary for the node, but only if the stored
// fingerprint equals fingerprint. Any mismatch, absence or parse failure
// is a miss.
func (s *SummaryStore) Get(path, fingerprint string) (string, bool) {
	var summary string
	var ok bool

	s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSummaries).Get(cacheKey(path))
		if data == nil {
			logger.Debug("cache miss (not found): %s", path)
			return nil
		}
		var entry domain.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			logger.Warn("corrupt cache entry for %s, treating as miss: %v", path, err)
			return nil
		}
		if entry.Fingerprint != fingerprint {
			logger.Debug("cache miss (fingerprint mismatch): %s", path)
			return nil
		}
		summary = entry.Summary
		ok = true
		return nil
	})

	return summary, ok
}

// GetEntry returns the full cache record for a node, if present and
// readable.
func (s *SummaryStore) GetEntry(path string) (domain.CacheEntry, bool) {
	var entry domain.CacheEntry
	var ok bool

	s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSummaries).Get(cacheKey(path))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			logger.Warn("corrupt cache entry for %s, treating as miss: %v", path, err)
			return nil
		}
		ok = true
		return nil
	})

	return entry, ok
}

// Put persists (or overwrites) the entry for a node. The write is durable
// before Put returns.
func (s *SummaryStore) Put(path, fingerprint, summary string, isDir bool) error {
	entry := domain.CacheEntry{
		Path:        strings.ReplaceAll(path, "\\", "/"),
		Fingerprint: fingerprint,
		Summary:     summary,
		CreatedAt:   time.Now().Unix(),
		IsDir:       isDir,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSummaries).Put(cacheKey(path), data)
	})
}

// Invalidate removes the entry for a node. Removing an absent entry is a
// no-op.
func (s *SummaryStore) Invalidate(path string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSummaries).Delete(cacheKey(path))
	})
}

// Clear removes all summary entries. The mapping index is untouched; use
// ClearMappings for that.
func (s *SummaryStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketSummaries); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketSummaries)
		return err
	})
}

// ClearMappings removes the document mapping index. Summary entries are
// untouched.
func (s *SummaryStore) ClearMappings() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketMappings); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketMappings)
		return err
	})
}

// CleanupOlderThan removes entries created before now-maxAge and returns
// how many were removed. Housekeeping only: correctness comes from
// fingerprint comparison, never from age.
func (s *SummaryStore) CleanupOlderThan(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	removed := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSummaries)
		var stale [][]byte
		b.ForEach(func(k, v []byte) error {
			var entry domain.CacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				// Unreadable entries are stale by definition.
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if entry.CreatedAt < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})

	return removed, err
}

// Stats returns the entry count and the total size of stored records.
func (s *SummaryStore) Stats() (domain.CacheStats, error) {
	var stats domain.CacheStats
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSummaries).ForEach(func(k, v []byte) error {
			stats.Entries++
			stats.TotalBytes += int64(len(k) + len(v))
			return nil
		})
	})
	return stats, err
}

// Entries returns a snapshot of all readable cache entries, for the
// staleness mapper. Corrupt records are skipped.
func (s *SummaryStore) Entries() ([]domain.CacheEntry, error) {
	var entries []domain.CacheEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSummaries).ForEach(func(k, v []byte) error {
			var entry domain.CacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				logger.Warn("skipping corrupt cache entry %s: %v", k, err)
				return nil
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}

// GetMappings returns the stored document mapping set. A store with no
// mapping record returns an empty set and no error.
func (s *SummaryStore) GetMappings() (domain.MappingSet, error) {
	var set domain.MappingSet
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMappings).Get(keyMappingSet)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &set); err != nil {
			logger.Warn("corrupt mapping record, rebuilding from scratch: %v", err)
			set = domain.MappingSet{}
		}
		return nil
	})
	return set, err
}

// PutMappings persists the document mapping set, replacing any previous
// record.
func (s *SummaryStore) PutMappings(set domain.MappingSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode mapping set: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMappings).Put(keyMappingSet, data)
	})
}
