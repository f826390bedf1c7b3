// Package sessionstore keeps the signed-in session in a local bbolt file so the
// monitor daemon and the login command share it.
//
// The database is opened per operation. bbolt holds an exclusive file lock
// while open and several processes use the same file.
package sessionstore

import (
	"encoding/json"
	"fmt"
	"time"

	"rotafacil/internal/client/ports"

	"go.etcd.io/bbolt"
)

var (
	bucketName = []byte("session")
	currentKey = []byte("current")
)

const openTimeout = 2 * time.Second

// Store implements SessionStorePort backed by a bbolt database.
type Store struct {
	path    string
	options *bbolt.Options
}

var _ ports.SessionStorePort = (*Store)(nil)

// New returns a Store for the database file at path
func New(path string) *Store {
	return &Store{path: path, options: &bbolt.Options{Timeout: openTimeout}}
}

func (s *Store) withDB(fn func(db *bbolt.DB) error) error {
	db, err := bbolt.Open(s.path, 0600, s.options)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer db.Close()
	return fn(db)
}

// Load returns the stored session, or nil when nobody is signed in
func (s *Store) Load() (*ports.Session, error) {
	var session *ports.Session
	err := s.withDB(func(db *bbolt.DB) error {
		return db.View(func(tx *bbolt.Tx) error {
			b := tx.Bucket(bucketName)
			if b == nil {
				return nil
			}
			data := b.Get(currentKey)
			if data == nil {
				return nil
			}
			session = &ports.Session{}
			return json.Unmarshal(data, session)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return session, nil
}

// Save replaces the stored session
func (s *Store) Save(session *ports.Session) error {
	if session == nil {
		return s.Clear()
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.withDB(func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists(bucketName)
			if err != nil {
				return err
			}
			return b.Put(currentKey, data)
		})
	})
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	return s.withDB(func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			b := tx.Bucket(bucketName)
			if b == nil {
				return nil
			}
			return b.Delete(currentKey)
		})
	})
}
