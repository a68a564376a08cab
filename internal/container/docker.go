// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DockerEngine implements the Engine interface using the Docker CLI.
// It embeds BaseCLIEngine for common CLI operations.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a new Docker engine.
func NewDockerEngine(opts ...BaseCLIEngineOption) *DockerEngine {
	path, _ := exec.LookPath("docker")
	return &DockerEngine{
		BaseCLIEngine: NewBaseCLIEngine(string(EngineTypeDocker), path, opts...),
	}
}

// Available checks if Docker is available.
func (e *DockerEngine) Available() bool {
	return e.BinaryPath() != ""
}

// Version returns the Docker client version.
func (e *DockerEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get docker version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// GPURunFlags returns the GPU passthrough flags for the probed client
// version: `--gpus all` on 19.03.0 and later, the legacy nvidia runtime
// flag below that. The boolean reports the legacy substitution.
func (e *DockerEngine) GPURunFlags(version string) ([]string, bool, error) {
	modern, err := SupportsModernGPUFlag(version)
	if err != nil {
		return nil, false, err
	}
	if !modern {
		return []string{"--runtime=nvidia"}, true, nil
	}
	return []string{"--gpus", "all"}, false, nil
}
