// SPDX-License-Identifier: MPL-2.0

// Package jupyter runs notebook servers and headless notebook executions
// inside conda environments.
package jupyter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"nblab-cli/internal/conda"
	"nblab-cli/pkg/types"

	"github.com/charmbracelet/log"
)

// Runner builds and runs Jupyter commands through the conda adapter.
type Runner struct {
	conda *conda.Manager
}

// NewRunner creates a Runner backed by the given conda manager.
func NewRunner(m *conda.Manager) *Runner {
	return &Runner{conda: m}
}

// LabArgs returns the jupyter argv for a notebook server listening on port,
// serving notebookDir.
func LabArgs(port types.ListenPort, notebookDir string) []string {
	return []string{
		"jupyter", "lab",
		"--allow-root",
		"--ip=0.0.0.0",
		"--no-browser",
		fmt.Sprintf("--port=%d", port),
		"--notebook-dir=" + notebookDir,
	}
}

// NbconvertArgs returns the jupyter argv for a headless execution of
// notebook, writing the executed copy next to it with an .out.ipynb suffix.
func NbconvertArgs(notebook string) []string {
	base := strings.TrimSuffix(filepath.Base(notebook), ".ipynb")
	return []string{
		"jupyter", "nbconvert",
		"--to", "notebook",
		"--execute", notebook,
		"--output", base + ".out.ipynb",
	}
}

// HostLab starts a notebook server in env as a tracked background process,
// then blocks until the server exits. The returned exit code is the
// server's own.
func (r *Runner) HostLab(ctx context.Context, env string, port types.ListenPort, notebookDir string, tracker *Tracker, stdout, stderr io.Writer) (types.ExitCode, error) {
	cmd := r.conda.Command(ctx, env, LabArgs(port, notebookDir)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return types.ExitFailure, fmt.Errorf("start notebook server: %w", err)
	}

	tracker.Track(cmd.Process)
	log.Info("notebook server started", "env", env, "port", port, "pid", cmd.Process.Pid)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return types.ExitCode(exitErr.ExitCode()), nil
		}
		return types.ExitFailure, fmt.Errorf("wait for notebook server: %w", err)
	}

	return 0, nil
}

// ExecuteNotebook runs a headless notebook execution in env, blocking until
// it completes. A non-zero exit status is returned as the exit code, not as
// an error.
func (r *Runner) ExecuteNotebook(ctx context.Context, env, notebook string, stdout, stderr io.Writer) (types.ExitCode, error) {
	cmd := r.conda.Command(ctx, env, NbconvertArgs(notebook)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Info("executing notebook", "env", env, "notebook", notebook)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return types.ExitCode(exitErr.ExitCode()), nil
		}
		return types.ExitFailure, fmt.Errorf("execute notebook %s: %w", notebook, err)
	}

	return 0, nil
}
