package persons

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreSelectsBackendByURI(t *testing.T) {
	var ctx = context.Background()

	store, err := NewStore(ctx, []Person{{FirstName: "Ada"}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &inMemoryStore{}, store)
	assert.Len(t, collect(t, store.FindAll(ctx)), 1)

	store, err = NewStore(ctx, nil, &StoreSettings{})
	require.NoError(t, err)
	assert.IsType(t, &inMemoryStore{}, store)

	store, err = NewStore(ctx, nil, &StoreSettings{URI: "sqlite::memory:"})
	require.NoError(t, err)
	assert.IsType(t, &sqlStore{}, store)
	store.Close()

	store, err = NewStore(ctx, nil, &StoreSettings{URI: "ldap://localhost/ou=people,dc=example,dc=org"})
	require.NoError(t, err)
	assert.IsType(t, &ldapStore{}, store)

	_, err = NewStore(ctx, nil, &StoreSettings{URI: "redis://localhost"})
	assert.ErrorIs(t, err, ErrUnsupportedURI)
}

func TestStoreSettingsCollectionName(t *testing.T) {
	assert.Equal(t, "person", StoreSettings{}.CollectionName())
	assert.Equal(t, "people", StoreSettings{Collection: "people"}.CollectionName())
}
