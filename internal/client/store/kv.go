package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
)

// kvRepository is a minimal key-value repository over the kv table.
type kvRepository struct {
	db dbx.DBTX
}

func newKVRepository(db dbx.DBTX) *kvRepository {
	return &kvRepository{db: db}
}

// Get returns the value stored under key, or common.ErrNotFound.
func (r *kvRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `select v from kv where k=?`
	row := r.db.QueryRowContext(ctx, query, key)

	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select value: %w", err)
	}
	return value, nil
}

// Set upserts the value stored under key.
func (r *kvRepository) Set(ctx context.Context, key string, value []byte) error {
	query := ` INSERT INTO kv (k, v) values (?, ?)
			ON CONFLICT(k) DO UPDATE SET v = excluded.v
	`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to upsert value: %w", err)
	}
	return nil
}

// Clear removes every key.
func (r *kvRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `delete from kv`); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}
