package repositories

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// KVRepository implements [Store] on the kv_store table.
type KVRepository struct {
	db   *sql.DB
	mu   sync.Mutex
	subs subscribers
}

// NewKVRepository creates a new KVRepository with the given database connection
func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value stored under key. ok is false when the key is absent.
func (r *KVRepository) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value and notifies subscribers.
func (r *KVRepository) Set(key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	r.notify(key)
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *KVRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	r.notify(key)
	return nil
}

// Keys lists stored keys in lexical order.
func (r *KVRepository) Keys() ([]string, error) {
	rows, err := r.db.Query("SELECT key FROM kv_store ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}

// Subscribe registers fn to be called after every write.
func (r *KVRepository) Subscribe(fn func(key string)) func() {
	r.mu.Lock()
	id := r.subs.add(fn)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs.fns, id)
		r.mu.Unlock()
	}
}

func (r *KVRepository) notify(key string) {
	r.mu.Lock()
	fns := r.subs.snapshot()
	r.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}
