package internal

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestWidgetSaveWindow(t *testing.T) {
	cfg := WidgetConfig{SaveWindowMS: 500}
	if cfg.SaveWindow() != 500*time.Millisecond {
		t.Errorf("SaveWindow = %v", cfg.SaveWindow())
	}
}

func TestWidgetConfig_ZeroWindowInvalid(t *testing.T) {
	cfg := WidgetConfig{SaveWindowMS: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero save window should fail validation")
	}
}

func TestWidgetConfig_TransparencyRange(t *testing.T) {
	cfg := WidgetConfig{SaveWindowMS: 500, Transparency: 1.2}
	if err := cfg.Validate(); err == nil {
		t.Fatal("transparency above 1 should fail validation")
	}
	cfg.Transparency = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero transparency is legal: %v", err)
	}
}

func TestBridgeConfig_EmptyModeDefaultsNone(t *testing.T) {
	cfg := BridgeConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty bridge config should validate: %v", err)
	}
	if cfg.Mode != BridgeModeNone {
		t.Errorf("mode = %q, want %q", cfg.Mode, BridgeModeNone)
	}
	if cfg.Stream != BridgeStreamStdout {
		t.Errorf("stream = %q, want %q", cfg.Stream, BridgeStreamStdout)
	}
}

func TestBridgeConfig_InvalidMode(t *testing.T) {
	cfg := BridgeConfig{Mode: "carrier-pigeon"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid bridge mode should fail")
	}
}

func TestMCPStdoutConflict(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MCP.Enabled = true
	cfg.Bridge.Mode = BridgeModeStdio
	cfg.Bridge.Stream = BridgeStreamStdout

	err := cfg.Validate()
	if err == nil {
		t.Fatal("mcp + stdout bridge should conflict")
	}
	if !strings.Contains(err.Error(), "stderr") {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Bridge.Stream = BridgeStreamStderr
	if err := cfg.Validate(); err != nil {
		t.Errorf("stderr bridge with mcp should validate: %v", err)
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestStoreConfig_PathRequired(t *testing.T) {
	cfg := StoreConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty store path should fail validation")
	}
}

func TestHTTPConfig_AddressIsLoopback(t *testing.T) {
	cfg := HTTPConfig{Port: 8090}
	if cfg.Address() != "127.0.0.1:8090" {
		t.Errorf("address = %q", cfg.Address())
	}
}
