package internal

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"gopkg.in/yaml.v3"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
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

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestSyncConfig_InvalidFilter(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sync.Filter = "EVERYTHING"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown filter should fail validation")
	}
}

func TestSyncConfig_InvalidHighlightOrder(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sync.HighlightOrder = "RANDOM"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown highlight order should fail validation")
	}
}

func TestSyncConfig_NegativeFrequency(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sync.Frequency = -5
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative frequency should fail validation")
	}
}

func TestSyncConfig_RequireAPIKey(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Sync.RequireAPIKey(); !errors.Is(err, apperr.ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	cfg.Sync.APIKey = "key"
	if err := cfg.Sync.RequireAPIKey(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSyncConfig_TemplateConfigMapping(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sync.IsSingleFile = true
	cfg.Sync.Folder = "Articles"
	tc := cfg.Sync.TemplateConfig()
	if !tc.IsSingleFile || tc.Folder != "Articles" {
		t.Errorf("template config = %+v", tc)
	}
	if tc.Template == "" {
		t.Error("default template should carry over")
	}
}

func TestSyncConfig_FrontMatterVariablesList(t *testing.T) {
	input := "front_matter_variables:\n  - title\n  - author::writer\n  - tags\n"
	var sc SyncConfig
	if err := yaml.Unmarshal([]byte(input), &sc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"title", "author::writer", "tags"}
	if len(sc.FrontMatterVariables) != len(want) {
		t.Fatalf("variables = %v, want %v", sc.FrontMatterVariables, want)
	}
	for i, v := range want {
		if sc.FrontMatterVariables[i] != v {
			t.Errorf("variables[%d] = %q, want %q", i, sc.FrontMatterVariables[i], v)
		}
	}
	tc := sc.TemplateConfig()
	if len(tc.FrontMatterVariables) != 3 || tc.FrontMatterVariables[1] != "author::writer" {
		t.Errorf("template config variables = %v", tc.FrontMatterVariables)
	}
}
