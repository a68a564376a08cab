// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for nblab.
//
// This package implements the Cobra command hierarchy for the nblab CLI:
// dataset downloads, conda environment creation, local and containerized
// Jupyter hosting, and headless notebook execution.
package cmd
