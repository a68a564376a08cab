// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nblab-cli/internal/config"
	"nblab-cli/internal/container"
	"nblab-cli/internal/issue"
	"nblab-cli/pkg/types"
)

// containerDataMount is where the dataset directory appears inside the
// container; the example notebooks expect their data there.
const containerDataMount = "/rapids/data"

// containerRepoMount is where the dev command mounts the repository checkout.
const containerRepoMount = "/rapids/nblab"

// containerSessionParams bundles the dependencies and flags shared by the
// container and dev commands.
type containerSessionParams struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	engine    container.Engine
	image     string
	dataDir   string
	port      types.ListenPort
	repoDir   string   // non-empty for dev: mount the checkout and start a shell
	command   []string // override the image entrypoint (dev shell)
}

// newContainerCommand creates the `nblab container` command, which hosts the
// notebook server inside the published runtime image.
func newContainerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Host the notebook server inside the runtime container image",
		Long: `Host the example notebook server inside the published runtime image.

The container is disposable and runs in the foreground: the dataset
directory is mounted, the notebook port is published, and the GPU is
passed through with the flag appropriate for the engine version.`,
		Example: `  # Host the containerized notebook server
  nblab container -d ./data

  # Publish a different port
  nblab container -d ./data -p 9999`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContainerRunE(cmd, false)
		},
	}

	addContainerFlags(cmd)
	return cmd
}

// newDevCommand creates the `nblab dev` command, which opens an interactive
// shell in the development image with the repository mounted.
func newDevCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Open an interactive shell in the development container image",
		Long: `Open an interactive shell inside the development image with the
repository checkout mounted alongside the dataset directory, for
working on the notebooks and their dependencies from source.`,
		Example: `  # Open a dev shell
  nblab dev -d ./data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContainerRunE(cmd, true)
		},
	}

	addContainerFlags(cmd)
	return cmd
}

// addContainerFlags registers the flags shared by container and dev.
func addContainerFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("data-dir", "d", "", "directory holding the dataset files")
	cmd.Flags().IntP("port", "p", int(types.DefaultJupyterPort), "port to publish for the notebook server")
	_ = cmd.MarkFlagRequired("data-dir")
}

// runContainerRunE assembles the session params from flags and config and
// delegates to runContainerSession, translating failures into ExitErrors.
func runContainerRunE(cmd *cobra.Command, dev bool) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg := activeConfig()
	port, err := resolvePort(cmd, cfg)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	engine, err := engineFromConfig(cfg)
	if err != nil {
		hint := container.InstallHint(cfg.ContainerEngine.String())
		wrapped := issue.NewErrorContext().
			WithOperation("locate a container engine").
			WithResource(cfg.ContainerEngine.String()).
			WithSuggestion(hint).
			Wrap(err).
			BuildError()
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(wrapped, verbose))
		return &ExitError{Code: types.ExitFailure, Err: wrapped}
	}

	p := containerSessionParams{
		stdin:   cmd.InOrStdin(),
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
		engine:  engine,
		image:   cfg.Image,
		dataDir: dataDir,
		port:    port,
	}
	if dev {
		repoDir, wdErr := os.Getwd()
		if wdErr != nil {
			return &ExitError{Code: types.ExitFailure, Err: wdErr}
		}
		p.image = cfg.DevImage
		p.repoDir = repoDir
		p.command = []string{"/bin/bash"}
	}

	if err := runContainerSession(cmd.Context(), p); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		fmt.Fprintln(p.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: types.ExitFailure, Err: err}
	}
	return nil
}

// engineFromConfig builds the configured container engine, auto-detecting
// when the config says so.
func engineFromConfig(cfg *config.Config) (container.Engine, error) {
	if cfg.ContainerEngine == config.ContainerEngineAuto {
		return container.AutoDetectEngine()
	}
	return container.NewEngine(container.EngineType(cfg.ContainerEngine))
}

// runContainerSession probes the engine version, picks the GPU passthrough
// flags, and runs a disposable foreground container. The container's exit
// status becomes the process exit status.
func runContainerSession(ctx context.Context, p containerSessionParams) error {
	version, err := p.engine.Version(ctx)
	if err != nil {
		return fmt.Errorf("probe %s version: %w", p.engine.Name(), err)
	}

	gpuFlags, legacy, err := p.engine.GPURunFlags(version)
	if err != nil {
		return fmt.Errorf("determine GPU flags for %s %s: %w", p.engine.Name(), version, err)
	}
	if legacy {
		fmt.Fprintln(p.stderr, WarningStyle.Render(fmt.Sprintf(
			"Warning: %s %s predates the modern GPU flag, falling back to --runtime=nvidia",
			p.engine.Name(), version)))
	}

	opts := container.RunOptions{
		Image:       p.image,
		Command:     p.command,
		Volumes:     []string{p.dataDir + ":" + containerDataMount},
		Ports:       []string{p.port.Publish()},
		GPUFlags:    gpuFlags,
		Remove:      true,
		Interactive: true,
		TTY:         true,
		Stdin:       p.stdin,
		Stdout:      p.stdout,
		Stderr:      p.stderr,
	}
	if p.repoDir != "" {
		opts.Volumes = append(opts.Volumes, p.repoDir+":"+containerRepoMount)
		opts.WorkDir = containerRepoMount
	}

	res, err := p.engine.Run(ctx, opts)
	if err != nil {
		return err
	}
	if res.Error != nil {
		return res.Error
	}
	if !res.ExitCode.IsSuccess() {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}
