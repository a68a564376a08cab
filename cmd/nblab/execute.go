// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nblab-cli/internal/conda"
	"nblab-cli/internal/fetch"
	"nblab-cli/internal/jupyter"
	"nblab-cli/internal/registry"
	"nblab-cli/pkg/types"
)

// executeParams bundles the dependencies and flags for the execute command.
type executeParams struct {
	stdout     io.Writer
	stderr     io.Writer
	reg        *registry.Registry
	mgr        *conda.Manager
	runner     *jupyter.Runner
	downloader *fetch.Downloader
	dataDir    string
	name       string // example name (empty = all non-visualization examples)
}

// newExecuteCommand creates the `nblab execute` command, which runs example
// notebooks headlessly through nbconvert.
func newExecuteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Execute example notebooks headlessly",
		Long: `Execute example notebooks headlessly through nbconvert, writing each
result next to its source as <name>.out.ipynb.

With no --example, every registered example runs except the
visualization variants, which need an interactive session. The first
failing notebook halts the run and its exit status is propagated.`,
		Example: `  # Execute every non-visualization example
  nblab execute -d ./data

  # Execute a single example
  nblab execute -d ./data -e hlca_lung`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			dataDir, _ := cmd.Flags().GetString("data-dir")
			name, _ := cmd.Flags().GetString("example")

			reg, err := registry.Default()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}

			mgr := conda.NewManager(activeConfig().Conda.Binary)
			p := executeParams{
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
				reg:        reg,
				mgr:        mgr,
				runner:     jupyter.NewRunner(mgr),
				downloader: fetch.NewDownloader(),
				dataDir:    dataDir,
				name:       name,
			}

			if err := runExecute(cmd.Context(), p); err != nil {
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
	cmd.Flags().StringP("example", "e", "", "example name (default: all non-visualization examples)")
	_ = cmd.MarkFlagRequired("data-dir")

	return cmd
}

// runExecute is the core execute logic, separated from Cobra for testability.
// The first notebook that exits non-zero halts the run; its status is
// propagated as the process exit code.
func runExecute(ctx context.Context, p executeParams) error {
	var examples []registry.Example
	if p.name != "" {
		ex, err := p.reg.Lookup(p.name)
		if err != nil {
			return err
		}
		if ex.IsVisualization() {
			return fmt.Errorf("example %s is a visualization notebook and cannot run headlessly, use 'nblab host' instead", ex.Name)
		}
		examples = []registry.Example{ex}
	} else {
		examples = p.reg.Executable()
	}

	for _, ex := range examples {
		fmt.Fprintf(p.stdout, "Executing example %s\n", CmdStyle.Render(ex.Name))

		if err := ensureCondaEnv(ctx, p.mgr, ex.CondaEnv, ex.EnvFile, p.stdout, p.stderr); err != nil {
			return err
		}
		if err := ensureDatasets(ctx, p.downloader, []registry.Example{ex}, p.dataDir, nil, p.stdout); err != nil {
			return err
		}

		code, err := p.runner.ExecuteNotebook(ctx, ex.CondaEnv, ex.Notebook, p.stdout, p.stderr)
		if err != nil {
			return err
		}
		if !code.IsSuccess() {
			fmt.Fprintln(p.stderr, ErrorStyle.Render(fmt.Sprintf("Example %s failed with status %s", ex.Name, code)))
			return &ExitError{Code: code}
		}

		fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Example %s completed", ex.Name)))
	}

	return nil
}
