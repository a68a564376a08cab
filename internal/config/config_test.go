// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nblab-cli/pkg/types"
)

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ContainerEngine != ContainerEngineAuto {
		t.Errorf("ContainerEngine = %q, want %q", cfg.ContainerEngine, ContainerEngineAuto)
	}
	if cfg.Jupyter.Port != types.DefaultJupyterPort {
		t.Errorf("Jupyter.Port = %d, want %d", cfg.Jupyter.Port, types.DefaultJupyterPort)
	}
	if cfg.Conda.Binary != "conda" {
		t.Errorf("Conda.Binary = %q, want %q", cfg.Conda.Binary, "conda")
	}
	if cfg.Image == "" || cfg.DevImage == "" {
		t.Error("default images must be non-empty")
	}
}

func TestLoad_ConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	content := `
container_engine: "docker"
jupyter: port: 9999
`
	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ContainerEngine != ContainerEngineDocker {
		t.Errorf("ContainerEngine = %q, want docker", cfg.ContainerEngine)
	}
	if cfg.Jupyter.Port != 9999 {
		t.Errorf("Jupyter.Port = %d, want 9999", cfg.Jupyter.Port)
	}
	// Untouched fields keep their defaults.
	if cfg.Conda.Binary != "conda" {
		t.Errorf("Conda.Binary = %q, want default", cfg.Conda.Binary)
	}
}

func TestLoad_RejectsUnknownEngine(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	if err := os.WriteFile(filepath.Join(dir, "config.cue"),
		[]byte(`container_engine: "rkt"`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an unknown container engine")
	}
}

func TestLoad_RejectsMalformedCUE(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	if err := os.WriteFile(filepath.Join(dir, "config.cue"),
		[]byte(`jupyter: port: "not-a-port"`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a schema-violating config")
	}
}

func TestLoad_ExplicitConfigFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(path, []byte(`jupyter: port: 8890`), 0o644); err != nil {
		t.Fatal(err)
	}
	SetConfigDirOverride(t.TempDir())
	SetConfigFilePathOverride(path)
	t.Cleanup(Reset)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Jupyter.Port != 8890 {
		t.Errorf("Jupyter.Port = %d, want 8890", cfg.Jupyter.Port)
	}
}

func TestContainerEngine_Validate(t *testing.T) {
	t.Parallel()

	for _, engine := range []ContainerEngine{ContainerEngineAuto, ContainerEngineDocker, ContainerEnginePodman} {
		if err := engine.Validate(); err != nil {
			t.Errorf("%q.Validate() error = %v", engine, err)
		}
	}

	err := ContainerEngine("rkt").Validate()
	if err == nil {
		t.Fatal("unknown engine should fail validation")
	}
	if !errors.Is(err, ErrInvalidContainerEngine) {
		t.Errorf("error should unwrap to ErrInvalidContainerEngine, got %v", err)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}
