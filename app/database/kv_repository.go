package database

import (
	"database/sql"
	"fmt"
	"sync"
)

// KVRepository implements KVStore on top of the storage table. Change
// notifications are delivered synchronously after a successful write, in the
// caller's goroutine.
type KVRepository struct {
	db *DB

	mu          sync.RWMutex
	subscribers []func(key, value string)
}

var _ KVStore = (*KVRepository)(nil)

func NewKVRepository(db *DB) *KVRepository {
	return &KVRepository{db: db}
}

func (r *KVRepository) Get(key, defaultValue string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM storage WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return defaultValue, nil
	}
	if err != nil {
		return defaultValue, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

func (r *KVRepository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO storage (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}

	r.mu.RLock()
	subscribers := r.subscribers
	r.mu.RUnlock()

	for _, fn := range subscribers {
		fn(key, value)
	}

	return nil
}

func (r *KVRepository) Subscribe(fn func(key, value string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}
