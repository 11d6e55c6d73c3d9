package redis

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/lodengine/loden/snapshot"
)

var ErrNoPrefabFound = eris.New("no prefab found")

// PrefabStorage persists named component bags. Saving a selected entity as a
// prefab captures its bag; instantiating the prefab restores the bag onto a
// freshly allocated entity.
type PrefabStorage struct {
	Client    *redis.Client
	Namespace string
}

func NewPrefabStorage(client *redis.Client, namespace string) PrefabStorage {
	return PrefabStorage{
		Client:    client,
		Namespace: namespace,
	}
}

func (r *PrefabStorage) SetPrefab(name string, bag snapshot.Bag) error {
	ctx := context.Background()
	bz, err := json.Marshal(bag)
	if err != nil {
		return eris.Wrapf(err, "could not serialize prefab %q", name)
	}
	return eris.Wrap(r.Client.HSet(ctx, prefabStorageKey(r.Namespace), name, bz).Err(), "")
}

func (r *PrefabStorage) GetPrefab(name string) (snapshot.Bag, error) {
	ctx := context.Background()
	bz, err := r.Client.HGet(ctx, prefabStorageKey(r.Namespace), name).Bytes()
	if eris.Is(err, redis.Nil) {
		return nil, eris.Wrap(ErrNoPrefabFound, name)
	} else if err != nil {
		return nil, eris.Wrap(err, "")
	}
	var bag snapshot.Bag
	if err := json.Unmarshal(bz, &bag); err != nil {
		return nil, eris.Wrapf(err, "could not deserialize prefab %q", name)
	}
	return bag, nil
}

func (r *PrefabStorage) ListPrefabs() ([]string, error) {
	ctx := context.Background()
	names, err := r.Client.HKeys(ctx, prefabStorageKey(r.Namespace)).Result()
	if err != nil {
		return nil, eris.Wrap(err, "")
	}
	return names, nil
}

func (r *PrefabStorage) DeletePrefab(name string) error {
	ctx := context.Background()
	return eris.Wrap(r.Client.HDel(ctx, prefabStorageKey(r.Namespace), name).Err(), "")
}
