package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRunMigrations(t *testing.T) {
	conn := openTestDB(t)
	mm := NewMigrationManager(conn)

	n, err := mm.RunMigrations()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, table := range []string{"events", "risk_profiles", "training_tasks"} {
		var name string
		err := conn.Get(&name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	// second run is a no-op
	n, err = mm.RunMigrations()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	applied, err := mm.GetAppliedMigrations()
	require.NoError(t, err)
	assert.True(t, applied[1])
	assert.True(t, applied[2])

	var cols int
	require.NoError(t, conn.Get(&cols, "SELECT COUNT(*) FROM pragma_table_info('risk_profiles') WHERE name = 'last_event_id'"))
	assert.Equal(t, 1, cols)
}

func TestLoadMigrationsOrdersAndSkips(t *testing.T) {
	files := fstest.MapFS{
		"m/002_second.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"m/001_first.sql":  {Data: []byte("-- first\nCREATE TABLE a (id INTEGER);\nCREATE TABLE c (id INTEGER);")},
		"m/notes.txt":      {Data: []byte("ignored")},
		"m/bad.sql":        {Data: []byte("ignored")},
	}
	mm := NewMigrationManagerFS(openTestDB(t), files, "m")

	migrations, err := mm.LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "001_first", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)

	n, err := mm.RunMigrations()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFailedMigrationIsRolledBack(t *testing.T) {
	conn := openTestDB(t)
	files := fstest.MapFS{
		"m/001_broken.sql": {Data: []byte("CREATE TABLE ok (id INTEGER);\nTHIS IS NOT SQL;")},
	}
	mm := NewMigrationManagerFS(conn, files, "m")

	_, err := mm.RunMigrations()
	require.Error(t, err)

	var count int
	require.NoError(t, conn.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE name = 'ok'"))
	assert.Equal(t, 0, count)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- header\nCREATE TABLE a (x INTEGER);\n\n;  \nINSERT INTO a VALUES (1);\n-- trailing")
	assert.Equal(t, []string{"CREATE TABLE a (x INTEGER)", "INSERT INTO a VALUES (1)"}, stmts)
}

func TestTransaction(t *testing.T) {
	conn := openTestDB(t)
	_, err := conn.Exec("CREATE TABLE items (id INTEGER)")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = Transaction(context.Background(), conn, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, conn.Get(&count, "SELECT COUNT(*) FROM items"))
	assert.Equal(t, 0, count)

	err = Transaction(context.Background(), conn, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("INSERT INTO items (id) VALUES (2)")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, conn.Get(&count, "SELECT COUNT(*) FROM items"))
	assert.Equal(t, 1, count)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
