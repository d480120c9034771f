package vaults

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
	"github.com/dmitrijs2005/gophsync/internal/timex"
)

const columns = `id, remote_id, last_modified, deleted_at, name`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) FindByRemoteIDs(ctx context.Context, ids []string) ([]*models.Vault, error) {
	var out []*models.Vault
	for _, chunk := range dbx.Chunks(ids, dbx.MaxBatchSize) {
		query := `SELECT ` + columns + ` FROM vaults WHERE remote_id IN (` + dbx.Placeholders(len(chunk)) + `)`
		found, err := r.query(ctx, query, dbx.Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to find vaults: %w", err)
		}
		out = append(out, found...)
	}
	return out, nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]*models.Vault, error) {
	out, err := r.query(ctx, `SELECT `+columns+` FROM vaults ORDER BY remote_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListActive(ctx context.Context) ([]*models.Vault, error) {
	out, err := r.query(ctx, `SELECT `+columns+` FROM vaults WHERE deleted_at IS NULL ORDER BY name, remote_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active vaults: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, v *models.Vault) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaults (id, remote_id, last_modified, deleted_at, name)
		VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.RemoteID, timex.Stamp{Time: v.LastModified}, timex.NullStamp{Time: v.DeletedAt}, v.Name)
	if err != nil {
		return fmt.Errorf("failed to insert vault %s: %w", v.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, v *models.Vault) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE vaults SET last_modified = ?, deleted_at = ?, name = ?
		WHERE id = ?`,
		timex.Stamp{Time: v.LastModified}, timex.NullStamp{Time: v.DeletedAt}, v.Name, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update vault %s: %w", v.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, v *models.Vault) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM vaults WHERE id = ?`, v.ID)
	if err != nil {
		return fmt.Errorf("failed to delete vault %s: %w", v.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*models.Vault, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Vault
	for rows.Next() {
		var (
			v        models.Vault
			modified timex.Stamp
			deleted  timex.NullStamp
		)
		if err := rows.Scan(&v.ID, &v.RemoteID, &modified, &deleted, &v.Name); err != nil {
			return nil, err
		}
		v.LastModified = modified.Time
		v.DeletedAt = deleted.Time
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
