package log

import (
	"github.com/rs/zerolog"

	"github.com/lodengine/loden/registry"
	"github.com/lodengine/loden/types"
)

func loadEntryIntoArrayLogger(entry *registry.Entry, arrayLogger *zerolog.Array) *zerolog.Array {
	dictLogger := zerolog.Dict()
	dictLogger = dictLogger.Str("component_name", entry.Name())
	dictLogger = dictLogger.Int("field_count", len(entry.Fields()))
	return arrayLogger.Dict(dictLogger)
}

func loadRegistryToEvent(zeroLoggerEvent *zerolog.Event, reg *registry.Registry) *zerolog.Event {
	entries := reg.All()
	zeroLoggerEvent.Int("total_components", len(entries))
	arrayLogger := zerolog.Arr()
	for _, entry := range entries {
		arrayLogger = loadEntryIntoArrayLogger(entry, arrayLogger)
	}
	return zeroLoggerEvent.Array("components", arrayLogger)
}

// Registry logs every registered component type.
func Registry(logger *zerolog.Logger, reg *registry.Registry, level zerolog.Level) {
	zeroLoggerEvent := logger.WithLevel(level)
	zeroLoggerEvent = loadRegistryToEvent(zeroLoggerEvent, reg)
	zeroLoggerEvent.Send()
}

// Entity logs an entity and the components it owns.
func Entity(logger *zerolog.Logger, level zerolog.Level, entityID types.EntityID, entries []*registry.Entry) {
	zeroLoggerEvent := logger.WithLevel(level)
	arrayLogger := zerolog.Arr()
	for _, entry := range entries {
		arrayLogger = loadEntryIntoArrayLogger(entry, arrayLogger)
	}
	zeroLoggerEvent.Array("components", arrayLogger)
	zeroLoggerEvent.Uint64("entity_id", uint64(entityID)).Send()
}

// CreateScriptLogger creates a sub logger tagged with an entity and script
// identity, used when reporting script callback failures.
func CreateScriptLogger(logger *zerolog.Logger, entityID types.EntityID, scriptID types.ScriptID) *zerolog.Logger {
	newLogger := logger.With().
		Uint64("entity_id", uint64(entityID)).
		Uint64("script_id", uint64(scriptID)).
		Logger()
	return &newLogger
}

// CreateSystemLogger creates a sub logger with the entry {"system": systemName}.
func CreateSystemLogger(logger *zerolog.Logger, systemName string) *zerolog.Logger {
	newLogger := logger.With().Str("system", systemName).Logger()
	return &newLogger
}
