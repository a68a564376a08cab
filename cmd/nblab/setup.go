// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"nblab-cli/internal/conda"
	"nblab-cli/internal/config"
	"nblab-cli/internal/fetch"
	"nblab-cli/internal/issue"
	"nblab-cli/internal/registry"
	"nblab-cli/pkg/types"
)

// activeConfig returns the loaded configuration, falling back to built-in
// defaults when loading failed (initRootConfig already warned about it).
func activeConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// resolvePort returns the port to publish: the --port flag when set,
// otherwise the configured default.
func resolvePort(cmd *cobra.Command, cfg *config.Config) (types.ListenPort, error) {
	port := cfg.Jupyter.Port
	if cmd.Flags().Changed("port") {
		v, _ := cmd.Flags().GetInt("port")
		port = types.ListenPort(v)
	}
	if err := port.Validate(); err != nil {
		return 0, err
	}
	return port, nil
}

// ensureCondaEnv makes sure the named conda environment exists, creating it
// from envFile and registering its Jupyter kernel when missing.
func ensureCondaEnv(ctx context.Context, m *conda.Manager, env, envFile string, stdout, stderr io.Writer) error {
	if !m.Available() {
		return issue.NewErrorContext().
			WithOperation("locate the conda binary").
			WithResource("conda").
			WithSuggestion(conda.InstallHintText).
			Wrap(conda.ErrCondaNotAvailable).
			BuildError()
	}

	exists, err := m.EnvExists(ctx, env)
	if err != nil {
		return fmt.Errorf("check conda environment %s: %w", env, err)
	}
	if exists {
		fmt.Fprintf(stdout, "Conda environment %s already exists, skipping creation\n", CmdStyle.Render(env))
		return nil
	}

	fmt.Fprintf(stdout, "Creating conda environment %s from %s\n", CmdStyle.Render(env), envFile)
	if err := m.CreateEnv(ctx, envFile, stdout, stderr); err != nil {
		return err
	}
	if err := m.RegisterKernel(ctx, env, stdout, stderr); err != nil {
		return err
	}

	fmt.Fprintln(stdout, SuccessStyle.Render(fmt.Sprintf("Conda environment %s is ready", env)))
	return nil
}

// ensureDatasets downloads the dataset files for the given examples into
// dataDir. URLs shared across examples are fetched once. When a checksum
// manifest is supplied, every file is verified against it, including files
// that were already present.
func ensureDatasets(ctx context.Context, d *fetch.Downloader, examples []registry.Example, dataDir string, manifest *fetch.Manifest, stdout io.Writer) error {
	seen := make(map[string]struct{})
	for _, ex := range examples {
		for _, u := range ex.DatasetURLs {
			if _, done := seen[u]; done {
				continue
			}
			seen[u] = struct{}{}

			res, err := d.Fetch(ctx, u, dataDir)
			if err != nil {
				return fmt.Errorf("dataset for example %s: %w", ex.Name, err)
			}
			if manifest != nil {
				if err := manifest.Verify(res.Path, filepath.Base(res.Path)); err != nil {
					return err
				}
			}
		}
	}

	fmt.Fprintln(stdout, SuccessStyle.Render(fmt.Sprintf("Datasets ready in %s", dataDir)))
	return nil
}
