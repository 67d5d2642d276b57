package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current storage layout version.
// Increment this when making breaking changes to bucket contents.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

// SchemaVersion reads the layout version stamped into the database.
// A fresh database reports zero until ensureSchema stamps it.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	return version, err
}

func (s *BoltStore) setSchemaVersion(version int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(version)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

// ensureSchema stamps fresh databases and refuses ones written by a newer
// build. Incremental migrations slot in here once a layout change ships.
func (s *BoltStore) ensureSchema() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return err
	}

	switch {
	case version > CurrentSchemaVersion:
		return fmt.Errorf("library written by a newer version (schema v%d, this build supports v%d)", version, CurrentSchemaVersion)
	case version == CurrentSchemaVersion:
		return nil
	default:
		return s.setSchemaVersion(CurrentSchemaVersion)
	}
}
