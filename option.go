package loden

import (
	"github.com/rs/zerolog"

	"github.com/lodengine/loden/config"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithConfig supplies an explicit configuration instead of config.Default.
func WithConfig(cfg config.EngineConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger replaces the default stdout logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}
