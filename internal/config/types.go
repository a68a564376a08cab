// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"nblab-cli/pkg/types"
)

const (
	// ContainerEngineAuto picks the first available engine (podman, then docker).
	ContainerEngineAuto ContainerEngine = "auto"
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
)

// ErrInvalidContainerEngine is the sentinel error wrapped by InvalidContainerEngineError.
var ErrInvalidContainerEngine = errors.New("invalid container engine")

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// JupyterConfig holds notebook-server settings.
	JupyterConfig struct {
		// Port is the default port for hosted notebook servers.
		Port types.ListenPort `mapstructure:"port"`
	}

	// CondaConfig holds environment-manager settings.
	CondaConfig struct {
		// Binary is the conda executable name or path.
		Binary string `mapstructure:"binary"`
	}

	// Config is the launcher configuration. All fields have working
	// defaults; the tool runs without a config file.
	Config struct {
		ContainerEngine ContainerEngine `mapstructure:"container_engine"`
		// Image is the container image for the `container` command.
		Image string `mapstructure:"image"`
		// DevImage is the container image for the `dev` command.
		DevImage string `mapstructure:"dev_image"`
		Jupyter  JupyterConfig `mapstructure:"jupyter"`
		Conda    CondaConfig   `mapstructure:"conda"`
	}
)

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: auto, docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine so callers can use errors.Is for programmatic detection.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Validate returns an error if the ContainerEngine is not one of the defined engines.
func (c ContainerEngine) Validate() error {
	switch c {
	case ContainerEngineAuto, ContainerEngineDocker, ContainerEnginePodman:
		return nil
	default:
		return &InvalidContainerEngineError{Value: c}
	}
}

// String returns the string representation of the ContainerEngine.
func (c ContainerEngine) String() string { return string(c) }

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineAuto,
		Image:           "rapidsai/rapidsai:cuda11.0-runtime-ubuntu18.04-py3.8",
		DevImage:        "rapidsai/rapidsai-dev:cuda11.0-devel-ubuntu18.04-py3.8",
		Jupyter: JupyterConfig{
			Port: types.DefaultJupyterPort,
		},
		Conda: CondaConfig{
			Binary: "conda",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.ContainerEngine.Validate(); err != nil {
		return err
	}
	if err := c.Jupyter.Port.Validate(); err != nil {
		return err
	}
	if c.Image == "" {
		return errors.New("image must not be empty")
	}
	if c.DevImage == "" {
		return errors.New("dev_image must not be empty")
	}
	if c.Conda.Binary == "" {
		return errors.New("conda.binary must not be empty")
	}
	return nil
}
