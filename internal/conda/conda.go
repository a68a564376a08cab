// SPDX-License-Identifier: MPL-2.0

// Package conda wraps the conda CLI: environment listing, creation, and
// kernel registration. All invocations are structured argv calls; the only
// output parsed is the JSON env listing conda documents for `--json`.
package conda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
)

// InstallHintText is the remediation suggestion shown when the conda binary
// is absent.
const InstallHintText = "Install conda: https://docs.conda.io/projects/miniconda/en/latest/"

// ErrCondaNotAvailable is returned when the conda binary cannot be found.
var ErrCondaNotAvailable = errors.New("conda is not available")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a Manager.
	Option func(*Manager)

	// Manager is a CLI adapter for the conda environment manager.
	Manager struct {
		binaryPath  string
		execCommand ExecCommandFunc
	}

	// envList is the JSON wire format of `conda env list --json`.
	envList struct {
		Envs []string `json:"envs"`
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(m *Manager) {
		m.execCommand = fn
	}
}

// WithBinaryPath sets the conda binary path directly, bypassing PATH
// resolution. Primarily for tests on hosts without conda installed.
func WithBinaryPath(path string) Option {
	return func(m *Manager) {
		m.binaryPath = path
	}
}

// NewManager creates a Manager for the given conda binary name or path.
// The binary is resolved via the PATH; an unresolvable binary leaves the
// Manager unavailable rather than failing construction.
func NewManager(binary string, opts ...Option) *Manager {
	path, _ := exec.LookPath(binary)
	m := &Manager{
		binaryPath:  path,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Available reports whether the conda binary was found.
func (m *Manager) Available() bool {
	return m.binaryPath != ""
}

// ListEnvs returns the base names of all existing conda environments,
// parsed from the JSON listing.
func (m *Manager) ListEnvs(ctx context.Context) ([]string, error) {
	if !m.Available() {
		return nil, ErrCondaNotAvailable
	}

	cmd := m.execCommand(ctx, m.binaryPath, "env", "list", "--json")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("list conda environments: %w", err)
	}

	var listing envList
	if err := json.Unmarshal(out.Bytes(), &listing); err != nil {
		return nil, fmt.Errorf("parse conda env listing: %w", err)
	}

	names := make([]string, 0, len(listing.Envs))
	for _, envPath := range listing.Envs {
		names = append(names, filepath.Base(envPath))
	}
	return names, nil
}

// EnvExists reports whether an environment with the given name exists.
func (m *Manager) EnvExists(ctx context.Context, name string) (bool, error) {
	names, err := m.ListEnvs(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateEnv creates an environment from its definition file, streaming
// conda's output to the given writers.
func (m *Manager) CreateEnv(ctx context.Context, envFile string, stdout, stderr io.Writer) error {
	if !m.Available() {
		return ErrCondaNotAvailable
	}

	cmd := m.execCommand(ctx, m.binaryPath, "env", "create", "-f", envFile)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("create conda environment from %s: %w", envFile, err)
	}
	return nil
}

// RegisterKernel registers a Jupyter kernel spec for the environment, so
// notebooks can select it as their execution backend.
func (m *Manager) RegisterKernel(ctx context.Context, env string, stdout, stderr io.Writer) error {
	if !m.Available() {
		return ErrCondaNotAvailable
	}

	args := m.RunInArgs(env, "python", "-m", "ipykernel", "install", "--user", "--name", env)
	cmd := m.execCommand(ctx, m.binaryPath, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("register kernel for environment %s: %w", env, err)
	}
	return nil
}

// RunInArgs returns the argv (after the conda binary itself) to run a
// command inside the named environment.
func (m *Manager) RunInArgs(env string, argv ...string) []string {
	args := []string{"run", "-n", env}
	return append(args, argv...)
}

// Command creates an exec.Cmd running argv inside the named environment.
// The caller wires stdio and starts or runs it.
func (m *Manager) Command(ctx context.Context, env string, argv ...string) *exec.Cmd {
	return m.execCommand(ctx, m.binaryPath, m.RunInArgs(env, argv...)...)
}
