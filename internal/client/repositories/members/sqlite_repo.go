package members

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
	"github.com/dmitrijs2005/gophsync/internal/timex"
)

const columns = `id, vault_id, remote_id, last_modified, username, role`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) FindByRemoteIDs(ctx context.Context, ids []string) ([]*models.Member, error) {
	var out []*models.Member
	for _, chunk := range dbx.Chunks(ids, dbx.MaxBatchSize) {
		query := `SELECT ` + columns + ` FROM members WHERE remote_id IN (` + dbx.Placeholders(len(chunk)) + `)`
		found, err := r.query(ctx, query, dbx.Args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("failed to find members: %w", err)
		}
		out = append(out, found...)
	}
	return out, nil
}

func (r *SQLiteRepository) FindByVault(ctx context.Context, vaultID string) ([]*models.Member, error) {
	out, err := r.query(ctx, `SELECT `+columns+` FROM members WHERE vault_id = ? ORDER BY remote_id`, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of vault %s: %w", vaultID, err)
	}
	return out, nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]*models.Member, error) {
	out, err := r.query(ctx, `SELECT `+columns+` FROM members ORDER BY remote_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, m *models.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, vault_id, remote_id, last_modified, username, role)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.VaultID, m.RemoteID, timex.Stamp{Time: m.LastModified}, m.Username, m.Role)
	if err != nil {
		return fmt.Errorf("failed to insert member %s: %w", m.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, m *models.Member) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE members SET vault_id = ?, last_modified = ?, username = ?, role = ?
		WHERE id = ?`,
		m.VaultID, timex.Stamp{Time: m.LastModified}, m.Username, m.Role, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update member %s: %w", m.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, m *models.Member) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, m.ID)
	if err != nil {
		return fmt.Errorf("failed to delete member %s: %w", m.RemoteID, err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*models.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Member
	for rows.Next() {
		var (
			m        models.Member
			modified timex.Stamp
		)
		if err := rows.Scan(&m.ID, &m.VaultID, &m.RemoteID, &modified, &m.Username, &m.Role); err != nil {
			return nil, err
		}
		m.LastModified = modified.Time
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
