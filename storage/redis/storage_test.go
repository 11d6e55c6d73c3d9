package redis_test

import (
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/snapshot"
	storage "github.com/lodengine/loden/storage/redis"
)

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	s := miniredis.RunT(t)
	st := storage.NewRedisStorage(storage.Options{Addr: s.Addr()}, "test")
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestPrefabRoundTrip(t *testing.T) {
	st := newTestStorage(t)

	bag := snapshot.Bag{
		{TypeName: "Position", Data: []byte(`{"x":1,"y":2}`)},
		{TypeName: "Health", Data: []byte(`{"current":10,"max":10}`)},
	}
	require.NoError(t, st.SetPrefab("goblin", bag))

	got, err := st.GetPrefab("goblin")
	require.NoError(t, err)
	assert.Equal(t, bag, got)
}

func TestGetMissingPrefab(t *testing.T) {
	st := newTestStorage(t)
	_, err := st.GetPrefab("nothing")
	assert.True(t, eris.Is(err, storage.ErrNoPrefabFound))
}

func TestListAndDeletePrefabs(t *testing.T) {
	st := newTestStorage(t)
	require.NoError(t, st.SetPrefab("goblin", snapshot.Bag{}))
	require.NoError(t, st.SetPrefab("torch", snapshot.Bag{}))

	names, err := st.ListPrefabs()
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"goblin", "torch"}, names)

	require.NoError(t, st.DeletePrefab("goblin"))
	_, err = st.GetPrefab("goblin")
	assert.True(t, eris.Is(err, storage.ErrNoPrefabFound))
}

func TestSchemaStorage(t *testing.T) {
	st := newTestStorage(t)

	_, err := st.GetSchema("Position")
	require.True(t, eris.Is(err, registry.ErrNoSchemaFound))

	schema := []byte(`{"type":"object"}`)
	require.NoError(t, st.SetSchema("Position", schema))

	got, err := st.GetSchema("Position")
	require.NoError(t, err)
	assert.Equal(t, schema, got)
}

func TestNamespacesAreIsolated(t *testing.T) {
	s := miniredis.RunT(t)
	one := storage.NewRedisStorage(storage.Options{Addr: s.Addr()}, "one")
	two := storage.NewRedisStorage(storage.Options{Addr: s.Addr()}, "two")
	t.Cleanup(func() { _ = one.Close(); _ = two.Close() })

	require.NoError(t, one.SetPrefab("goblin", snapshot.Bag{}))
	_, err := two.GetPrefab("goblin")
	assert.True(t, eris.Is(err, storage.ErrNoPrefabFound))
}
