package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, entry *models.Entry) error {

	images, err := json.Marshal(entry.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	query :=
		`INSERT INTO entries (doc_id, id, user_id, entry_date, content, mood, images, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (doc_id) DO UPDATE SET
		   content = EXCLUDED.content,
		   mood = EXCLUDED.mood,
		   images = EXCLUDED.images,
		   updated_at = EXCLUDED.updated_at
		 `

	_, err = r.db.ExecContext(ctx, query,
		models.MakeDocID(entry.UserID, entry.Date),
		entry.ID, entry.UserID, entry.Date, entry.Content, entry.Mood, images,
		entry.CreatedAt, entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, date string) (*models.Entry, error) {

	query :=
		`SELECT id, user_id, to_char(entry_date, 'YYYY-MM-DD'), content, mood, images, created_at, updated_at
		 FROM entries
		 WHERE doc_id = $1
		 `

	entry, err := r.scanEntry(r.db.QueryRowContext(ctx, query, models.MakeDocID(userID, date)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Entry, error) {

	query :=
		`SELECT id, user_id, to_char(entry_date, 'YYYY-MM-DD'), content, mood, images, created_at, updated_at
		 FROM entries
		 WHERE user_id = $1
		 ORDER BY entry_date DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, date string) error {

	query :=
		`DELETE FROM entries
		 WHERE doc_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, models.MakeDocID(userID, date))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, userID, cutoff string) error {

	query :=
		`DELETE FROM entries
		 WHERE user_id = $1 AND entry_date < $2
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, cutoff); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {

	query :=
		`DELETE FROM entries
		 WHERE user_id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanEntry(row scanner) (*models.Entry, error) {
	entry := &models.Entry{}
	var images []byte

	err := row.Scan(&entry.ID, &entry.UserID, &entry.Date, &entry.Content,
		&entry.Mood, &images, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &entry.Images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}
	entry.DocID = models.MakeDocID(entry.UserID, entry.Date)

	return entry, nil
}
