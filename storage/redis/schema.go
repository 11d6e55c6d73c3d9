package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/lodengine/loden/registry"
)

// SchemaStorage persists one JSON schema per component type name. It backs
// registry.WithSchemaStorage.
type SchemaStorage struct {
	Client    *redis.Client
	Namespace string
}

func NewSchemaStorage(client *redis.Client, namespace string) SchemaStorage {
	return SchemaStorage{
		Client:    client,
		Namespace: namespace,
	}
}

func (r *SchemaStorage) GetSchema(componentName string) ([]byte, error) {
	ctx := context.Background()
	schemaBytes, err := r.Client.HGet(ctx, schemaStorageKey(r.Namespace), componentName).Bytes()
	if eris.Is(err, redis.Nil) {
		return nil, eris.Wrap(registry.ErrNoSchemaFound, componentName)
	} else if err != nil {
		return nil, eris.Wrap(err, "")
	}
	return schemaBytes, nil
}

func (r *SchemaStorage) SetSchema(componentName string, schemaData []byte) error {
	ctx := context.Background()
	return eris.Wrap(r.Client.HSet(ctx, schemaStorageKey(r.Namespace), componentName, schemaData).Err(), "")
}
