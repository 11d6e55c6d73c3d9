package config

import (
	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
)

// EngineConfig is the engine's ambient configuration, loaded from the
// environment with sensible development defaults.
type EngineConfig struct {
	RedisAddress  string
	RedisPassword string
	Namespace     string
	ScriptsDir    string
	LogLevel      string
}

// Default returns the development defaults.
func Default() EngineConfig {
	return EngineConfig{
		RedisAddress:  "localhost:6379",
		RedisPassword: "",
		Namespace:     "loden",
		ScriptsDir:    "scripts",
		LogLevel:      "info",
	}
}

// Load reads EngineConfig from the environment (REDIS_ADDRESS, LOG_LEVEL,
// ...), falling back to defaults for unset variables.
func Load() (EngineConfig, error) {
	cfg := Default()
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "could not load engine config from environment")
	}
	return cfg, nil
}
