package repository

import (
	"context"
	"database/sql"
	"errors"

	"flashquiz/internal/database"
	"flashquiz/internal/storage"
)

// KVRepository persists string key/value entries in the kv_store table.
// It implements storage.Store.
type KVRepository struct {
	db database.DBTX
}

// NewKVRepository creates a new key/value repository over a DB or Tx
func NewKVRepository(db database.DBTX) *KVRepository {
	return &KVRepository{db: db}
}

// Get retrieves a value by key
func (r *KVRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT store_value FROM kv_store WHERE store_key = ?`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", &storage.StorageError{Op: "get", Key: key, Err: err}
	}
	return value, nil
}

// Set updates or inserts a value
func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, r.db.GetDialect().UpsertKVQuery(), key, value); err != nil {
		return &storage.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes a value by key
func (r *KVRepository) Remove(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE store_key = ?`, key); err != nil {
		return &storage.StorageError{Op: "remove", Key: key, Err: err}
	}
	return nil
}

// All returns every stored entry
func (r *KVRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT store_key, store_value FROM kv_store ORDER BY store_key`)
	if err != nil {
		return nil, &storage.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, &storage.StorageError{Op: "list", Err: err}
		}
		entries[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.StorageError{Op: "list", Err: err}
	}
	return entries, nil
}

// Clear removes every stored entry
func (r *KVRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store`); err != nil {
		return &storage.StorageError{Op: "clear", Err: err}
	}
	return nil
}
