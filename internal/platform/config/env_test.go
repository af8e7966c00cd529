package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	MaxDepth int    `env:"ROLLTABLES_TEST_MAX_DEPTH" envDefault:"5"`
	Formula  string `env:"ROLLTABLES_TEST_FORMULA" envDefault:"1d100"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.MaxDepth != 5 {
		t.Fatalf("expected default max depth 5, got %d", cfg.MaxDepth)
	}
	if cfg.Formula != "1d100" {
		t.Fatalf("expected default formula 1d100, got %q", cfg.Formula)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("ROLLTABLES_TEST_MAX_DEPTH", "deep")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvFromUsesExplicitEnvironment(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("ROLLTABLES_TEST_MAX_DEPTH", "9")

	if err := ParseEnvFrom(&cfg, map[string]string{"ROLLTABLES_TEST_MAX_DEPTH": "3"}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.MaxDepth != 3 {
		t.Fatalf("max depth = %d, want 3", cfg.MaxDepth)
	}
}

func TestParseEnvFromNilEnvironmentUsesDefaults(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("ROLLTABLES_TEST_MAX_DEPTH", "9")

	if err := ParseEnvFrom(&cfg, nil); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.MaxDepth != 5 {
		t.Fatalf("max depth = %d, want 5", cfg.MaxDepth)
	}
}
