package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Bridge modes and streams.
const (
	BridgeModeStdio = "stdio"
	BridgeModeNone  = "none"

	BridgeStreamStdout = "stdout"
	BridgeStreamStderr = "stderr"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Widget WidgetConfig      `yaml:"widget"`
	Mirror MirrorConfig      `yaml:"mirror"`
	Bridge BridgeConfig      `yaml:"bridge"`
	MCP    MCPConfig         `yaml:"mcp"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Widget.Validate(); err != nil {
		return err
	}
	if err := c.Bridge.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	// The MCP server owns stdout when enabled; bridge notifications must
	// move to stderr so the two protocols don't interleave.
	if c.MCP.Enabled && c.Bridge.Mode == BridgeModeStdio && c.Bridge.Stream == BridgeStreamStdout {
		return fmt.Errorf("bridge: stream must be %q when mcp is enabled", BridgeStreamStderr)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds the key-value database path.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// WidgetConfig holds widget behavior settings.
type WidgetConfig struct {
	// SaveWindowMS is the autosave debounce window in milliseconds.
	SaveWindowMS int `yaml:"save_window_ms"`
	// Transparency is the initial level in [0, 1].
	Transparency float64 `yaml:"transparency"`
	// PersistTheme controls whether theme cycling is persisted.
	PersistTheme bool `yaml:"persist_theme"`
}

// SaveWindow returns the debounce window as a duration.
func (c *WidgetConfig) SaveWindow() time.Duration {
	return time.Duration(c.SaveWindowMS) * time.Millisecond
}

// Validate validates the widget configuration.
func (c *WidgetConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SaveWindowMS, validation.Required, validation.Min(1)),
		validation.Field(&c.Transparency, validation.Min(0.0), validation.Max(1.0)),
	)
}

// MirrorConfig holds the optional mirror file path. An empty path disables
// mirroring.
type MirrorConfig struct {
	Path string `yaml:"path"`
}

// Enabled returns true when a mirror path is configured.
func (c *MirrorConfig) Enabled() bool {
	return c.Path != ""
}

// BridgeConfig selects the host bridge implementation.
//
// Mode controls where notifications go:
//   - "stdio": one JSON line per notification on the selected stream, for a
//     supervising native shell.
//   - "none": no host present; notifications are skipped.
type BridgeConfig struct {
	Mode   string `yaml:"mode"`
	Stream string `yaml:"stream"`
}

// Validate validates the bridge configuration.
func (c *BridgeConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = BridgeModeNone
	}
	if c.Stream == "" {
		c.Stream = BridgeStreamStdout
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(BridgeModeStdio, BridgeModeNone)),
		validation.Field(&c.Stream, validation.Required, validation.In(BridgeStreamStdout, BridgeStreamStderr)),
	)
}

// MCPConfig controls the optional MCP stdio server.
type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for a
//     localhost-only widget.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8090,
			},
		},
		Store: StoreConfig{
			Path: "./berkana.db",
		},
		Widget: WidgetConfig{
			SaveWindowMS: 500,
			Transparency: 0.94,
			PersistTheme: true,
		},
		Bridge: BridgeConfig{
			Mode:   BridgeModeStdio,
			Stream: BridgeStreamStdout,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
