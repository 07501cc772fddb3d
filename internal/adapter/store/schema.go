package store

import (
	"encoding/json"

	"go.etcd.io/bbolt"

	"github.com/kstonekuan/docs-tree-ai/internal/logger"
)

// CurrentSchemaVersion is the on-disk record format version. Increment on
// breaking changes; old caches are cleared, not migrated, because every
// entry can be regenerated from source.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

// checkSchema compares the stored schema version with the current one and
// clears the cache on mismatch. A fresh database is stamped in place.
func (s *SummaryStore) checkSchema() error {
	var stored int
	var present bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		present = true
		if err := json.Unmarshal(data, &stored); err != nil {
			stored = 0
		}
		return nil
	})
	if err != nil {
		return err
	}

	if present && stored == CurrentSchemaVersion {
		return nil
	}

	if present {
		logger.Info("cache schema version %d != %d, rebuilding cache", stored, CurrentSchemaVersion)
		if err := s.Clear(); err != nil {
			return err
		}
		if err := s.ClearMappings(); err != nil {
			return err
		}
	}

	return s.stampSchema()
}

// SchemaValid reports whether the stored schema version matches the
// current format.
func (s *SummaryStore) SchemaValid() bool {
	var stored int
	s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data != nil {
			json.Unmarshal(data, &stored)
		}
		return nil
	})
	return stored == CurrentSchemaVersion
}

func (s *SummaryStore) stampSchema() error {
	data, err := json.Marshal(CurrentSchemaVersion)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}
