// Package localstore provides a bolt-backed fallback store for track
// lists, used when the primary database schema is not provisioned.
package localstore

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// fileMode sets permissions so owner can read and write.
	fileMode = 0600

	bucketName = "musicvault"
)

var defaultTimeout = 1 * time.Second

// Store persists a user's entire track list as one serialized blob under
// a fixed per-user key. It is an availability fallback, not a sync layer:
// it never merges with remote data.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the fallback store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: defaultTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening fallback store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating fallback bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func userKey(userID string) []byte {
	return []byte("songs/" + userID)
}

// Save serializes v and stores it under the user's key, replacing any
// previous snapshot wholesale.
func (s *Store) Save(userID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding track list: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(userKey(userID), data)
	})
	if err != nil {
		return fmt.Errorf("writing track list: %w", err)
	}
	return nil
}

// Load reads the user's snapshot into v. Missing data is not an error;
// v is left untouched and ok is false.
func (s *Store) Load(userID string, v any) (ok bool, err error) {
	var data []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketName)).Get(userKey(userID))
		if raw != nil {
			data = make([]byte, len(raw))
			copy(data, raw)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("reading track list: %w", err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding track list: %w", err)
	}
	return true, nil
}
