package storage

import (
	"errors"
	"fmt"
	"sync"

	"streamdash/pkg/logging"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces dashboard keys inside the badger directory.
const keyPrefix = "streamdash/"

// Badger is a Store persisted in a badger database directory.
type Badger struct {
	mu     sync.RWMutex
	db     *badger.DB
	closed bool
}

// OpenBadger opens (or creates) the store rooted at dir.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store at %s: %w", dir, err)
	}
	logging.Debug("Storage", "Opened badger store at %s", dir)
	return &Badger{db: db}, nil
}

func (b *Badger) Get(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return "", false
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Error("Storage", err, "Failed to read %s", key)
		}
		return "", false
	}
	return string(value), true
}

func (b *Badger) Set(key, value string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (b *Badger) Delete(key string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the database.
func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
