package config_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/lodengine/loden/config"
)

func TestLoadUsesDefaultsWhenUnset(t *testing.T) {
	cfg, err := config.Load()
	assert.NilError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, "loden", cfg.Namespace)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "redis.internal:6380")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SCRIPTS_DIR", "assets/scripts")

	cfg, err := config.Load()
	assert.NilError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "assets/scripts", cfg.ScriptsDir)
	assert.Equal(t, "loden", cfg.Namespace)
}
