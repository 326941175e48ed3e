package sqlutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver(t *testing.T) {
	var cases = []struct {
		uri    string
		driver string
		dsn    string
	}{
		{"postgres://user:pw@localhost/persons?sslmode=disable", "postgres", "postgres://user:pw@localhost/persons?sslmode=disable"},
		{"postgresql://localhost/persons", "postgres", "postgresql://localhost/persons"},
		{"oracle://user:pw@localhost:1521/XE", "oracle", "oracle://user:pw@localhost:1521/XE"},
		{"sqlite::memory:", "sqlite", ":memory:"},
		{"file:persons.db", "sqlite", "file:persons.db"},
	}
	for _, c := range cases {
		driver, dsn, err := Driver(c.uri)
		require.NoError(t, err, c.uri)
		assert.Equal(t, c.driver, driver, c.uri)
		assert.Equal(t, c.dsn, dsn, c.uri)
	}

	_, _, err := Driver("mongodb://localhost")
	assert.ErrorIs(t, err, ErrUnsupportedURI)
	assert.False(t, IsDatabaseURI("ldap://localhost"))
	assert.True(t, IsDatabaseURI("sqlite::memory:"))
}

func TestIsMemoryDSN(t *testing.T) {
	assert.True(t, IsMemoryDSN(":memory:"))
	assert.True(t, IsMemoryDSN("file::memory:?cache=shared"))
	assert.True(t, IsMemoryDSN("file:persons?mode=memory&cache=shared"))
	assert.False(t, IsMemoryDSN("persons.db"))
	assert.False(t, IsMemoryDSN("file:persons.db?_pragma=journal_mode(WAL)"))
}

func TestGetDBFileIsNotSerialized(t *testing.T) {
	var dbs = map[string]*sql.DB{}
	db, err := GetDB(dbs, "sqlite:"+filepath.Join(t.TempDir(), "persons.db"))
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 0, db.Stats().MaxOpenConnections)

	mem, err := GetDB(dbs, "sqlite::memory:")
	require.NoError(t, err)
	defer mem.Close()
	assert.Equal(t, 1, mem.Stats().MaxOpenConnections)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$2", Placeholder("postgres://localhost/x", 2))
	assert.Equal(t, ":1", Placeholder("oracle://localhost/x", 1))
	assert.Equal(t, "?", Placeholder("sqlite::memory:", 3))
}

func TestGetDBCaches(t *testing.T) {
	var dbs = map[string]*sql.DB{}
	db1, err := GetDB(dbs, "sqlite::memory:")
	require.NoError(t, err)
	defer db1.Close()
	db2, err := GetDB(dbs, "sqlite::memory:")
	require.NoError(t, err)
	assert.Same(t, db1, db2)
	assert.NoError(t, db1.Ping())
}
