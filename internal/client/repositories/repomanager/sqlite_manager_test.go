package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpenDatabase_RunsMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sync.db")
	m := NewSQLiteRepositoryManager()

	db, err := OpenDatabase(ctx, path, m)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"goose_db_version", "metadata", "vaults", "entries", "members", "files"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	require.NoError(t, m.RunMigrations(ctx, db), "migrations must be idempotent")
}

func TestRunMigrations_PropagatesGooseError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("boom")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}

	db, err := sql.Open("sqlite", DSN(filepath.Join(t.TempDir(), "x.db")))
	require.NoError(t, err)
	defer db.Close()

	err = NewSQLiteRepositoryManager().RunMigrations(context.Background(), db)
	require.ErrorIs(t, err, boom)

	_, err = OpenDatabase(context.Background(), filepath.Join(t.TempDir(), "y.db"), NewSQLiteRepositoryManager())
	require.ErrorIs(t, err, boom)
}

func TestManager_VendsRepositories(t *testing.T) {
	ctx := context.Background()
	m := NewSQLiteRepositoryManager()
	db, err := OpenDatabase(ctx, filepath.Join(t.TempDir(), "sync.db"), m)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, m.Metadata(db).Set(ctx, "k", []byte("v")))

	all, err := m.Vaults(db).All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = m.Entries(db).FindByVault(ctx, "none")
	require.NoError(t, err)
	_, err = m.Members(db).FindByVault(ctx, "none")
	require.NoError(t, err)
	_, err = m.Files(db).FindByEntry(ctx, "none")
	require.NoError(t, err)
}
