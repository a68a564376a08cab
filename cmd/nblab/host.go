// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"nblab-cli/internal/conda"
	"nblab-cli/internal/fetch"
	"nblab-cli/internal/jupyter"
	"nblab-cli/internal/registry"
	"nblab-cli/pkg/types"
)

// hostParams bundles the dependencies and flags for the host command.
type hostParams struct {
	stdout      io.Writer
	stderr      io.Writer
	reg         *registry.Registry
	mgr         *conda.Manager
	runner      *jupyter.Runner
	tracker     *jupyter.Tracker
	downloader  *fetch.Downloader
	dataDir     string
	example     string
	port        types.ListenPort
	notebookDir string
}

// newHostCommand creates the `nblab host` command, which prepares an
// example's conda environment and dataset, then hosts Jupyter Lab on the
// local machine until it exits or the process is interrupted.
func newHostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host Jupyter Lab locally for an example",
		Long: `Host Jupyter Lab on the local machine for one of the registered
examples. The example's conda environment is created if missing and
its dataset files are downloaded first; the server then runs inside
that environment.

The command blocks until the server exits; on interrupt, the tracked
server process is terminated.`,
		Example: `  # Host Jupyter Lab for the hlca_lung example
  nblab host -d ./data -e hlca_lung

  # Use a different port
  nblab host -d ./data -e hlca_lung -p 9999`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			dataDir, _ := cmd.Flags().GetString("data-dir")
			example, _ := cmd.Flags().GetString("example")

			cfg := activeConfig()
			port, err := resolvePort(cmd, cfg)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}

			reg, err := registry.Default()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}

			// The repository checkout is the notebook root, so the hosted
			// session sees the same paths the container commands mount.
			notebookDir, err := os.Getwd()
			if err != nil {
				return &ExitError{Code: types.ExitFailure, Err: err}
			}

			mgr := conda.NewManager(cfg.Conda.Binary)
			p := hostParams{
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
				reg:         reg,
				mgr:         mgr,
				runner:      jupyter.NewRunner(mgr),
				tracker:     jupyter.NewTracker(),
				downloader:  fetch.NewDownloader(),
				dataDir:     dataDir,
				example:     example,
				port:        port,
				notebookDir: notebookDir,
			}

			if err := runHost(cmd.Context(), p); err != nil {
				var exitErr *ExitError
				if errors.As(err, &exitErr) {
					return err
				}
				fmt.Fprintln(p.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringP("data-dir", "d", "", "directory holding the dataset files")
	cmd.Flags().StringP("example", "e", "", "example to host Jupyter Lab for")
	cmd.Flags().IntP("port", "p", int(types.DefaultJupyterPort), "port to serve Jupyter Lab on")
	_ = cmd.MarkFlagRequired("data-dir")
	_ = cmd.MarkFlagRequired("example")

	return cmd
}

// runHost is the core host logic, separated from Cobra for testability.
//
// Flow:
//  1. Resolve the example through the registry (halt on miss).
//  2. Ensure the example's conda environment and dataset.
//  3. Spawn a tracked Jupyter Lab in that environment and block until it
//     exits.
//  4. Terminate tracked processes on the way out, interrupt included.
func runHost(ctx context.Context, p hostParams) error {
	ex, err := p.reg.Lookup(p.example)
	if err != nil {
		return err
	}

	if err := ensureCondaEnv(ctx, p.mgr, ex.CondaEnv, ex.EnvFile, p.stdout, p.stderr); err != nil {
		return err
	}
	if err := ensureDatasets(ctx, p.downloader, []registry.Example{ex}, p.dataDir, nil, p.stdout); err != nil {
		return err
	}

	defer p.tracker.TerminateAll()

	code, err := p.runner.HostLab(ctx, ex.CondaEnv, p.port, p.notebookDir, p.tracker, p.stdout, p.stderr)
	if err != nil {
		return err
	}
	if !code.IsSuccess() {
		return &ExitError{Code: code}
	}
	return nil
}
