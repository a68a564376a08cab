// SPDX-License-Identifier: MPL-2.0

// Package registry defines the built-in catalog of runnable examples.
//
// Each example binds a dataset URL set, a conda environment (name plus
// definition file), and a notebook under one logical name. The catalog is
// an embedded CUE document validated against an embedded schema at load
// time, so a name either resolves to a complete record or Lookup fails;
// there is no partially configured example.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"

	"nblab-cli/pkg/cueutil"
)

// VisualizationMarker is the name fragment identifying visualization
// examples, which `execute` skips during headless runs.
const VisualizationMarker = "_viz"

//go:embed registry_schema.cue
var registrySchema []byte

//go:embed registry.cue
var registryData []byte

// ErrUnknownExample is the sentinel error wrapped by UnknownExampleError.
var ErrUnknownExample = errors.New("unknown example")

// ErrUnknownEnvironment is the sentinel error wrapped by UnknownEnvironmentError.
var ErrUnknownEnvironment = errors.New("unknown conda environment")

type (
	// Example is one registry record.
	Example struct {
		// Name is the logical example name used on the CLI.
		Name string `json:"name"`
		// DatasetURLs are the dataset files to download for this example.
		DatasetURLs []string `json:"dataset_urls"`
		// CondaEnv is the conda environment name.
		CondaEnv string `json:"conda_env"`
		// EnvFile is the conda environment definition file.
		EnvFile string `json:"env_file"`
		// Notebook is the notebook path relative to the repository root.
		Notebook string `json:"notebook"`
	}

	// Registry is the immutable set of examples, keyed by name.
	Registry struct {
		byName map[string]Example
		names  []string
	}

	// UnknownExampleError is returned when a name is not in the registry.
	UnknownExampleError struct {
		Name  string
		Known []string
	}

	// UnknownEnvironmentError is returned when no example references the
	// given conda environment name.
	UnknownEnvironmentError struct {
		Env   string
		Known []string
	}

	// document is the decode target for the embedded CUE registry.
	document struct {
		Examples []Example `json:"examples"`
	}
)

// Error implements the error interface.
func (e *UnknownExampleError) Error() string {
	return fmt.Sprintf("unknown example %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownExample so callers can use errors.Is for programmatic detection.
func (e *UnknownExampleError) Unwrap() error { return ErrUnknownExample }

// Error implements the error interface.
func (e *UnknownEnvironmentError) Error() string {
	return fmt.Sprintf("no example uses conda environment %q (known: %s)", e.Env, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownEnvironment so callers can use errors.Is for programmatic detection.
func (e *UnknownEnvironmentError) Unwrap() error { return ErrUnknownEnvironment }

// IsVisualization reports whether the example is a visualization variant.
func (e Example) IsVisualization() bool {
	return strings.Contains(e.Name, VisualizationMarker)
}

// DatasetFilenames returns the destination filenames for the example's
// dataset URLs: the final path segment of each URL.
func (e Example) DatasetFilenames() ([]string, error) {
	names := make([]string, 0, len(e.DatasetURLs))
	for _, raw := range e.DatasetURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse dataset URL %q: %w", raw, err)
		}
		name := path.Base(u.Path)
		if name == "." || name == "/" {
			return nil, fmt.Errorf("dataset URL %q has no file component", raw)
		}
		names = append(names, name)
	}
	return names, nil
}

// Load parses and validates the embedded registry document.
func Load() (*Registry, error) {
	doc, err := cueutil.ParseAndDecode[document](registrySchema, registryData, "#Registry",
		cueutil.WithFilename("registry.cue"))
	if err != nil {
		return nil, fmt.Errorf("load example registry: %w", err)
	}

	byName := make(map[string]Example, len(doc.Examples))
	names := make([]string, 0, len(doc.Examples))
	for _, ex := range doc.Examples {
		// Uniqueness across list elements is the one constraint the CUE
		// schema does not express.
		if _, dup := byName[ex.Name]; dup {
			return nil, fmt.Errorf("load example registry: duplicate example name %q", ex.Name)
		}
		byName[ex.Name] = ex
		names = append(names, ex.Name)
	}
	sort.Strings(names)

	return &Registry{byName: byName, names: names}, nil
}

// Default returns the shared registry loaded from the embedded document.
// The embedded data is validated once; subsequent calls return the cached value.
var Default = sync.OnceValues(Load)

// Lookup returns the example for name, or an UnknownExampleError.
func (r *Registry) Lookup(name string) (Example, error) {
	ex, ok := r.byName[name]
	if !ok {
		return Example{}, &UnknownExampleError{Name: name, Known: r.names}
	}
	return ex, nil
}

// EnvNames returns the sorted distinct conda environment names referenced
// by the registry.
func (r *Registry) EnvNames() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, name := range r.names {
		env := r.byName[name].CondaEnv
		if _, ok := seen[env]; ok {
			continue
		}
		seen[env] = struct{}{}
		out = append(out, env)
	}
	sort.Strings(out)
	return out
}

// ExamplesForEnv returns, in name order, every example that uses the given
// conda environment, or an UnknownEnvironmentError when none does.
func (r *Registry) ExamplesForEnv(env string) ([]Example, error) {
	var out []Example
	for _, name := range r.names {
		if ex := r.byName[name]; ex.CondaEnv == env {
			out = append(out, ex)
		}
	}
	if len(out) == 0 {
		return nil, &UnknownEnvironmentError{Env: env, Known: r.EnvNames()}
	}
	return out, nil
}

// Names returns the sorted example names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Examples returns all records in name order.
func (r *Registry) Examples() []Example {
	out := make([]Example, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name])
	}
	return out
}

// Executable returns the examples that `execute` should run headlessly:
// every record whose name does not carry the visualization marker.
func (r *Registry) Executable() []Example {
	var out []Example
	for _, ex := range r.Examples() {
		if !ex.IsVisualization() {
			out = append(out, ex)
		}
	}
	return out
}
