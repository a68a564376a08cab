// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nblab-cli/internal/fetch"
	"nblab-cli/internal/registry"
	"nblab-cli/pkg/types"
)

// datasetParams bundles the dependencies and flags for the dataset command,
// enabling the core logic in runDataset to be tested without a real Cobra
// command or live downloads.
type datasetParams struct {
	stdout     io.Writer
	stderr     io.Writer
	reg        *registry.Registry
	downloader *fetch.Downloader
	dataDir    string
	name       string // example name (empty = all registered examples)
	checksums  string // optional sha256 manifest path
}

// newDatasetCommand creates the `nblab dataset` command, which downloads the
// dataset files for one example or for every registered example.
func newDatasetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Download example datasets",
		Long: `Download the dataset files an example notebook needs.

Files already present in the data directory are skipped, so re-running
the command is cheap. With no --name, every registered dataset is
downloaded.`,
		Example: `  # Download the hlca_lung dataset
  nblab dataset -d ./data -n hlca_lung

  # Download every registered dataset
  nblab dataset -d ./data

  # Verify files against a sha256sum manifest
  nblab dataset -d ./data --checksums checksums.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			dataDir, _ := cmd.Flags().GetString("data-dir")
			name, _ := cmd.Flags().GetString("name")
			checksums, _ := cmd.Flags().GetString("checksums")

			reg, err := registry.Default()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}

			p := datasetParams{
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
				reg:        reg,
				downloader: fetch.NewDownloader(),
				dataDir:    dataDir,
				name:       name,
				checksums:  checksums,
			}

			if err := runDataset(cmd.Context(), p); err != nil {
				fmt.Fprintln(p.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringP("data-dir", "d", "", "directory to download dataset files into")
	cmd.Flags().StringP("name", "n", "", "example name (default: all registered examples)")
	cmd.Flags().String("checksums", "", "sha256sum manifest to verify downloaded files against")
	_ = cmd.MarkFlagRequired("data-dir")

	return cmd
}

// runDataset is the core dataset logic, separated from Cobra for testability.
// An unconfigured example name halts before any download starts.
func runDataset(ctx context.Context, p datasetParams) error {
	if err := types.FilesystemPath(p.dataDir).Validate(); err != nil {
		return err
	}

	examples := p.reg.Examples()
	if p.name != "" {
		ex, err := p.reg.Lookup(p.name)
		if err != nil {
			return err
		}
		examples = []registry.Example{ex}
	}

	var manifest *fetch.Manifest
	if p.checksums != "" {
		m, err := fetch.LoadManifest(p.checksums)
		if err != nil {
			return err
		}
		manifest = m
	}

	if err := ensureDatasets(ctx, p.downloader, examples, p.dataDir, manifest, p.stdout); err != nil {
		if errors.Is(err, fetch.ErrChecksumMismatch) {
			return fmt.Errorf("a downloaded file failed verification, delete it and retry: %w", err)
		}
		return err
	}
	return nil
}
