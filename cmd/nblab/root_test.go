// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootCommand_UnknownSubcommandFails(t *testing.T) {
	// Not parallel: mutates shared rootCmd state.

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"no_such_command"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("unknown subcommand must fail")
	}
}

func TestRootCommand_RequiredFlags(t *testing.T) {
	// Not parallel: mutates shared rootCmd state.

	tests := []struct {
		name string
		args []string
		want string // required flag named in the error
	}{
		{"dataset requires data-dir", []string{"dataset"}, "data-dir"},
		{"create_env requires env", []string{"create_env"}, "env"},
		{"host requires data-dir", []string{"host", "-e", "hlca_lung"}, "data-dir"},
		{"host requires example", []string{"host", "-d", "/tmp/data"}, "example"},
		{"execute requires data-dir", []string{"execute"}, "data-dir"},
		{"container requires data-dir", []string{"container"}, "data-dir"},
		{"dev requires data-dir", []string{"dev"}, "data-dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Flag state on the shared rootCmd persists across Execute
			// calls; reset the subcommand's flags so a flag set by an
			// earlier subtest does not satisfy this one's required check.
			if sub, _, findErr := rootCmd.Find([]string{tt.args[0]}); findErr == nil && sub != rootCmd {
				sub.Flags().VisitAll(func(f *pflag.Flag) {
					_ = f.Value.Set(f.DefValue)
					f.Changed = false
				})
			}

			var out, errOut bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&errOut)
			rootCmd.SetArgs(tt.args)
			t.Cleanup(func() {
				rootCmd.SetOut(nil)
				rootCmd.SetErr(nil)
				rootCmd.SetArgs(nil)
			})

			err := rootCmd.Execute()
			if err == nil {
				t.Fatalf("%v must fail without its required flag", tt.args)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name required flag %q", err, tt.want)
			}
		})
	}
}
