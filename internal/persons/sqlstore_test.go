package persons

import (
	"context"
	"iter"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSqliteStore(t *testing.T) *sqlStore {
	t.Helper()
	return openSqliteStore(t, "sqlite::memory:")
}

func openSqliteStore(t *testing.T, uri string) *sqlStore {
	t.Helper()
	var store, err = NewSqlStore(&StoreSettings{URI: uri})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	var s = store.(*sqlStore)
	_, err = s.dbconn.Exec(`CREATE TABLE person (
		id TEXT NOT NULL PRIMARY KEY,
		first_name TEXT,
		last_name TEXT
	)`)
	require.NoError(t, err)
	return s
}

func TestSqlStoreColumns(t *testing.T) {
	var store = newSqliteStore(t)
	assert.Equal(t, []string{"id", "first_name", "last_name"}, store.columns)
	assert.Equal(t, "SELECT id, first_name, last_name FROM person", store.selectQuery())
}

func TestSqlStoreRoundTrip(t *testing.T) {
	var ctx = context.Background()
	var store = newSqliteStore(t)

	saved, err := store.SaveAll(ctx, slices.Values([]Person{
		{FirstName: "Ada", LastName: "Lovelace"},
		{FirstName: "Grace", LastName: "Hopper"},
	}))
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotEmpty(t, saved[0].ID)

	var all = collect(t, store.FindAll(ctx))
	assert.ElementsMatch(t, saved, all)

	var ada = collect(t, store.FindByField(ctx, FieldFirstName, "Ada"))
	require.Len(t, ada, 1)
	assert.Equal(t, saved[0], ada[0])

	assert.Empty(t, collect(t, store.FindByField(ctx, FieldFirstName, "nonexistent")))
}

func TestSqlStoreSaveWithIDUpserts(t *testing.T) {
	var ctx = context.Background()
	var store = newSqliteStore(t)

	_, err := store.SaveAll(ctx, slices.Values([]Person{{ID: "p1", FirstName: "Ada", LastName: "Byron"}}))
	require.NoError(t, err)
	_, err = store.SaveAll(ctx, slices.Values([]Person{{ID: "p1", FirstName: "Ada", LastName: "Lovelace"}}))
	require.NoError(t, err)

	var all = collect(t, store.FindAll(ctx))
	assert.Equal(t, []Person{{ID: "p1", FirstName: "Ada", LastName: "Lovelace"}}, all)
}

func TestSqlStoreDeleteAll(t *testing.T) {
	var ctx = context.Background()
	var store = newSqliteStore(t)

	_, err := store.SaveAll(ctx, slices.Values([]Person{{FirstName: "Ada", LastName: "Lovelace"}}))
	require.NoError(t, err)
	require.NoError(t, store.DeleteAll(ctx))
	assert.Empty(t, collect(t, store.FindAll(ctx)))
	assert.NoError(t, store.Ping(ctx))
}

func TestSqlStoreUnknownField(t *testing.T) {
	var store = newSqliteStore(t)
	for _, err := range store.FindByField(context.Background(), "first_name; DROP TABLE person", "x") {
		assert.ErrorIs(t, err, ErrUnknownField)
	}
}

func TestSqlStoreEarlyBreakReleasesRows(t *testing.T) {
	var ctx = context.Background()
	var store = newSqliteStore(t)

	_, err := store.SaveAll(ctx, slices.Values([]Person{{FirstName: "Ada"}, {FirstName: "Grace"}}))
	require.NoError(t, err)

	for range store.FindAll(ctx) {
		break
	}
	// single connection pool, a leaked cursor would block this call
	require.NoError(t, store.DeleteAll(ctx))
}

func TestSqlStoreWritesWhileReadIsOpen(t *testing.T) {
	var uri = "sqlite:" + filepath.Join(t.TempDir(), "persons.db") +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	var store = openSqliteStore(t, uri)
	var ctx = context.Background()

	_, err := store.SaveAll(ctx, slices.Values([]Person{{FirstName: "Ada"}, {FirstName: "Grace"}}))
	require.NoError(t, err)

	next, stop := iter.Pull2(store.FindAll(ctx))
	defer stop()
	_, err, ok := next()
	require.True(t, ok)
	require.NoError(t, err)

	var writeCtx, cancel = context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err = store.SaveAll(writeCtx, slices.Values([]Person{{FirstName: "Katherine"}}))
	require.NoError(t, err)
	require.NoError(t, store.Ping(writeCtx))
	require.NoError(t, store.DeleteAll(writeCtx))
}
