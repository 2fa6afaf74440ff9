package weaveconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.weave"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != (Config{}) {
		t.Errorf("got %+v, want zero value", cfg)
	}
}

func TestLoadBesideSource(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "weave.yaml")
	content := "default_source: main.weave\ntrace_bytecode: true\n"
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(filepath.Join(dir, "main.weave"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultSource != "main.weave" {
		t.Errorf("DefaultSource = %q, want %q", cfg.DefaultSource, "main.weave")
	}
	if !cfg.TraceBytecode {
		t.Errorf("TraceBytecode = false, want true")
	}
}

func TestLoadMalformedYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "weave.yaml")
	if err := os.WriteFile(yamlPath, []byte("default_source: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(filepath.Join(dir, "main.weave")); err == nil {
		t.Fatal("expected an error for malformed YAML, got nil")
	}
}
