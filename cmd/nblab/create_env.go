// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"nblab-cli/internal/conda"
	"nblab-cli/internal/issue"
	"nblab-cli/internal/registry"
	"nblab-cli/pkg/types"
)

// createEnvParams bundles the dependencies and flags for the create_env
// command so runCreateEnv can be tested with an injected conda manager.
type createEnvParams struct {
	stdout io.Writer
	stderr io.Writer
	reg    *registry.Registry
	mgr    *conda.Manager
	env    string
}

// newCreateEnvCommand creates the `nblab create_env` command, which creates
// a conda environment from its registered definition file and registers a
// Jupyter kernel for it.
func newCreateEnvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create_env",
		Short: "Create a conda environment for the example notebooks",
		Long: `Create one of the registered conda environments and register its
Jupyter kernel. Creation is skipped when the environment already exists.`,
		Example: `  # Create the rapidgenomics environment
  nblab create_env -e rapidgenomics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			env, _ := cmd.Flags().GetString("env")

			reg, err := registry.Default()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}

			p := createEnvParams{
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
				reg:    reg,
				mgr:    conda.NewManager(activeConfig().Conda.Binary),
				env:    env,
			}

			if err := runCreateEnv(cmd.Context(), p); err != nil {
				fmt.Fprintln(p.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringP("env", "e", "", "conda environment name to create")
	_ = cmd.MarkFlagRequired("env")

	return cmd
}

// runCreateEnv resolves the environment's definition file through the
// registry and delegates to conda. An unregistered environment name halts
// before anything runs.
func runCreateEnv(ctx context.Context, p createEnvParams) error {
	examples, err := p.reg.ExamplesForEnv(p.env)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("resolve the environment definition").
			WithResource(p.env).
			WithSuggestion("Known environments: " + strings.Join(p.reg.EnvNames(), ", ")).
			Wrap(err).
			BuildError()
	}

	// Examples sharing an environment share its definition file.
	return ensureCondaEnv(ctx, p.mgr, p.env, examples[0].EnvFile, p.stdout, p.stderr)
}
