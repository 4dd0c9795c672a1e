package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pintlog.db")
	conn, dialect, err := Open("sqlite://" + path)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, SQLite, dialect)
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)

	var one int
	require.NoError(t, conn.Get(&one, `SELECT 1`))
	assert.Equal(t, 1, one)
}

func TestOpen_BarePathIsSQLite(t *testing.T) {
	conn, dialect, err := Open(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, SQLite, dialect)
}

func TestOpenSQLite_ForeignKeysEnabled(t *testing.T) {
	conn, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	var enabled int
	require.NoError(t, conn.Get(&enabled, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, enabled)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	assert.Error(t, err)
}
