package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/v2mng/internal/migrations"
	"github.com/creamcroissant/v2mng/internal/repository"
	"github.com/creamcroissant/v2mng/internal/repository/repotest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.db")
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, migrations.Up(db))
	return db
}

func TestStoreContract(t *testing.T) {
	repotest.RunStoreContract(t, func(t *testing.T) repository.Store {
		store := NewStore(openTestDB(t))
		t.Cleanup(func() { store.Close() })
		return store
	})
}
