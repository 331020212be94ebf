package internal

import "github.com/starford/berkana/internal/bridge"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	bridge bridge.Bridge
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithBridge overrides the host bridge built from configuration. Used by
// tests to observe notifications.
func WithBridge(b bridge.Bridge) Option {
	return func(a *application) {
		a.bridge = b
	}
}
