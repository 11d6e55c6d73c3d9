package redis

import (
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Storage bundles the redis-backed stores the engine persists outside of a
// running world: component schemas and prefab bags.
type Storage struct {
	Namespace string
	Client    *redis.Client
	Log       zerolog.Logger
	SchemaStorage
	PrefabStorage
}

type Options = redis.Options

func NewRedisStorage(options Options, namespace string) Storage {
	client := redis.NewClient(&options)
	return Storage{
		Namespace:     namespace,
		Client:        client,
		Log:           zerolog.New(os.Stdout),
		SchemaStorage: NewSchemaStorage(client, namespace),
		PrefabStorage: NewPrefabStorage(client, namespace),
	}
}

func (r *Storage) Close() error {
	r.Log.Info().Msg("Closing storage connection.")
	if err := r.Client.Close(); err != nil {
		return eris.Wrap(err, "")
	}
	r.Log.Info().Msg("Successfully closed storage connection.")
	return nil
}
