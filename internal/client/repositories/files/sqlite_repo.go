package files

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
	"github.com/dmitrijs2005/gophsync/internal/timex"
)

const columns = `id, entry_id, remote_id, last_modified, name, storage_key, size`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) FindByRemoteIDs(ctx context.Context, ids []string) ([]*models.File, error) {
	var out []*models.File
	for _, chunk := range dbx.Chunks(ids, dbx.MaxBatchSize) {
		query := `SELECT ` + columns + ` FROM files WHERE remote_id IN (` + dbx.Placeholders(len(chunk)) + `)`
		found, err := r.query(ctx, query, dbx.Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to find files: %w", err)
		}
		out = append(out, found...)
	}
	return out, nil
}

func (r *SQLiteRepository) FindByEntry(ctx context.Context, entryID string) ([]*models.File, error) {
	out, err := r.query(ctx, `SELECT `+columns+` FROM files WHERE entry_id = ? ORDER BY remote_id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of entry %s: %w", entryID, err)
	}
	return out, nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]*models.File, error) {
	out, err := r.query(ctx, `SELECT `+columns+` FROM files ORDER BY remote_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, f *models.File) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO files (id, entry_id, remote_id, last_modified, name, storage_key, size)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.EntryID, f.RemoteID, timex.Stamp{Time: f.LastModified}, f.Name, f.StorageKey, f.Size)
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", f.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, f *models.File) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE files SET entry_id = ?, last_modified = ?, name = ?, storage_key = ?, size = ?
		WHERE id = ?`,
		f.EntryID, timex.Stamp{Time: f.LastModified}, f.Name, f.StorageKey, f.Size, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update file %s: %w", f.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, f *models.File) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, f.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", f.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.File
	for rows.Next() {
		var (
			f        models.File
			modified timex.Stamp
		)
		if err := rows.Scan(&f.ID, &f.EntryID, &f.RemoteID, &modified, &f.Name, &f.StorageKey, &f.Size); err != nil {
			return nil, err
		}
		f.LastModified = modified.Time
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
