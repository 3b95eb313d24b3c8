package store

import (
	"context"
	"database/sql"
)

// MetadataRepository exposes raw key-value access to the kv table for small
// pieces of client state that live outside the entry collection, such as the
// persisted auth session.
type MetadataRepository struct {
	kv *kvRepository
}

func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{kv: newKVRepository(db)}
}

// Get returns the value under key, or common.ErrNotFound.
func (r *MetadataRepository) Get(ctx context.Context, key string) ([]byte, error) {
	return r.kv.Get(ctx, key)
}

// Set upserts the value under key.
func (r *MetadataRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.kv.Set(ctx, key, value)
}

// Delete removes key if present. Missing keys are not an error.
func (r *MetadataRepository) Delete(ctx context.Context, key string) error {
	_, err := r.kv.db.ExecContext(ctx, `delete from kv where k=?`, key)
	return err
}
