package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	require.Equal(t, 1, one)
}

func TestRebind(t *testing.T) {
	q := "SELECT id FROM offers WHERE origin_id = ? AND created_at >= ?"

	require.Equal(t, q, SQLite.Rebind(q))
	require.Equal(t, "SELECT id FROM offers WHERE origin_id = $1 AND created_at >= $2", Postgres.Rebind(q))
}
