// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"nblab-cli/internal/config"
	"nblab-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "nblab",
		Short: "A launcher for GPU-accelerated single-cell analysis notebooks",
		Long: TitleStyle.Render("nblab") + SubtitleStyle.Render(" - A launcher for GPU-accelerated single-cell analysis notebooks") + `

nblab wraps the external tooling the example notebooks need - a
container runtime (docker/podman), the conda environment manager,
and Jupyter - behind one CLI, so a workstation goes from bare
metal to a running notebook with a couple of commands.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Download an example dataset:   nblab dataset -d ./data -n hlca_lung
  2. Create its conda environment:  nblab create_env -e rapidgenomics
  3. Host Jupyter Lab locally:      nblab host -d ./data -e hlca_lung

` + SubtitleStyle.Render("Examples:") + `
  nblab dataset -d ./data              Download every registered dataset
  nblab execute -d ./data              Run all non-visualization notebooks headlessly
  nblab container -d ./data -p 8888    Host Jupyter inside the RAPIDS container
  nblab dev -d ./data                  Interactive shell in the dev container`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/nblab/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(newDatasetCommand())
	rootCmd.AddCommand(newCreateEnvCommand())
	rootCmd.AddCommand(newHostCommand())
	rootCmd.AddCommand(newExecuteCommand())
	rootCmd.AddCommand(newContainerCommand())
	rootCmd.AddCommand(newDevCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Surface config loading errors, then continue on defaults: a broken
	// config file should not block dataset downloads.
	if _, err := config.Load(); err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
