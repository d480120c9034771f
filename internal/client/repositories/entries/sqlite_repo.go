package entries

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
	"github.com/dmitrijs2005/gophsync/internal/timex"
)

const columns = `id, vault_id, remote_id, last_modified, deleted_at, title, kind, payload`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) FindByRemoteIDs(ctx context.Context, ids []string) ([]*models.Entry, error) {
	var out []*models.Entry
	for _, chunk := range dbx.Chunks(ids, dbx.MaxBatchSize) {
		query := `SELECT ` + columns + ` FROM entries WHERE remote_id IN (` + dbx.Placeholders(len(chunk)) + `)`
		found, err := r.query(ctx, query, dbx.Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to find entries: %w", err)
		}
		out = append(out, found...)
	}
	return out, nil
}

func (r *SQLiteRepository) FindByVault(ctx context.Context, vaultID string) ([]*models.Entry, error) {
	out, err := r.query(ctx, `SELECT `+columns+` FROM entries WHERE vault_id = ? ORDER BY remote_id`, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries of vault %s: %w", vaultID, err)
	}
	return out, nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]*models.Entry, error) {
	out, err := r.query(ctx, `SELECT `+columns+` FROM entries ORDER BY remote_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, vault_id, remote_id, last_modified, deleted_at, title, kind, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.VaultID, e.RemoteID, timex.Stamp{Time: e.LastModified}, timex.NullStamp{Time: e.DeletedAt},
		e.Title, string(e.Kind), e.Payload)
	if err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", e.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, e *models.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET vault_id = ?, last_modified = ?, deleted_at = ?, title = ?, kind = ?, payload = ?
		WHERE id = ?`,
		e.VaultID, timex.Stamp{Time: e.LastModified}, timex.NullStamp{Time: e.DeletedAt},
		e.Title, string(e.Kind), e.Payload, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", e.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, e *models.Entry) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, e.ID)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", e.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		var (
			e        models.Entry
			kind     string
			modified timex.Stamp
			deleted  timex.NullStamp
		)
		if err := rows.Scan(&e.ID, &e.VaultID, &e.RemoteID, &modified, &deleted, &e.Title, &kind, &e.Payload); err != nil {
			return nil, err
		}
		e.Kind = models.EntryType(kind)
		e.LastModified = modified.Time
		e.DeletedAt = deleted.Time
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
