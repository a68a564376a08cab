// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PodmanEngine implements the Engine interface using the Podman CLI.
// Podman's CLI is docker-compatible for the run surface this launcher uses;
// GPU passthrough goes through CDI device selection instead of --gpus.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := exec.LookPath("podman")
	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(string(EngineTypePodman), path, opts...),
	}
}

// Available checks if Podman is available.
func (e *PodmanEngine) Available() bool {
	return e.BinaryPath() != ""
}

// Version returns the Podman client version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// GPURunFlags returns the CDI GPU device flag. Podman never uses the docker
// legacy nvidia runtime, so the substitution flag is always false. The
// version is still parsed so a garbled probe surfaces as an error.
func (e *PodmanEngine) GPURunFlags(version string) ([]string, bool, error) {
	if _, err := SupportsModernGPUFlag(version); err != nil {
		return nil, false, err
	}
	return []string{"--device", "nvidia.com/gpu=all"}, false, nil
}
