// SPDX-License-Identifier: MPL-2.0

package jupyter

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"testing"

	"nblab-cli/internal/conda"
	"nblab-cli/pkg/types"
)

type mockRecorder struct {
	invocations [][]string
	exitCode    int
}

func (m *mockRecorder) commandFunc(t *testing.T) conda.ExecCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		m.invocations = append(m.invocations, append([]string{name}, args...))

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.Command(os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", m.exitCode),
		}
		return cmd
	}
}

// TestHelperProcess is the child process spawned by mockRecorder.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	code, _ := strconv.Atoi(os.Getenv("GO_HELPER_EXIT_CODE"))
	os.Exit(code)
}

func newTestRunner(t *testing.T, mock *mockRecorder) *Runner {
	t.Helper()
	m := conda.NewManager("conda", conda.WithExecCommand(mock.commandFunc(t)))
	return NewRunner(m)
}

func TestLabArgs(t *testing.T) {
	t.Parallel()

	args := LabArgs(types.DefaultJupyterPort, "/src/nblab")
	joined := strings.Join(args, " ")

	for _, want := range []string{"jupyter lab", "--port=8888", "--notebook-dir=/src/nblab", "--ip=0.0.0.0"} {
		if !strings.Contains(joined, want) {
			t.Errorf("LabArgs missing %q: %v", want, args)
		}
	}
}

func TestNbconvertArgs(t *testing.T) {
	t.Parallel()

	args := NbconvertArgs("notebooks/hlca_lung_gpu_analysis.ipynb")
	want := []string{
		"jupyter", "nbconvert",
		"--to", "notebook",
		"--execute", "notebooks/hlca_lung_gpu_analysis.ipynb",
		"--output", "hlca_lung_gpu_analysis.out.ipynb",
	}
	if !slices.Equal(args, want) {
		t.Errorf("NbconvertArgs() = %v, want %v", args, want)
	}
}

func TestHostLab_RunsInsideEnvAndTracks(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{}
	r := newTestRunner(t, mock)
	tracker := NewTracker(WithSignalFunc(func(_ *os.Process, _ os.Signal) error { return nil }))

	code, err := r.HostLab(context.Background(), "rapidgenomics", types.DefaultJupyterPort, "/src/nblab",
		tracker, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("HostLab() error = %v", err)
	}
	if !code.IsSuccess() {
		t.Errorf("exit code = %d, want 0", code)
	}

	inv := mock.invocations[0]
	joined := strings.Join(inv, " ")
	for _, want := range []string{"run -n rapidgenomics", "jupyter lab", "--port=8888"} {
		if !strings.Contains(joined, want) {
			t.Errorf("spawned command missing %q: %v", want, inv)
		}
	}

	// HostLab blocked until the server exited, and the handle stays
	// registered for the exit hook to signal.
	if tracker.Len() != 1 {
		t.Errorf("tracker has %d processes, want 1", tracker.Len())
	}
}

func TestExecuteNotebook_PropagatesFailure(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{exitCode: 3}
	r := newTestRunner(t, mock)

	code, err := r.ExecuteNotebook(context.Background(), "rapidgenomics",
		"notebooks/hlca_lung_gpu_analysis.ipynb", io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("ExecuteNotebook() error = %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3 (child status propagated)", code)
	}
}

func TestExecuteNotebook_Success(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{}
	r := newTestRunner(t, mock)

	code, err := r.ExecuteNotebook(context.Background(), "rapidgenomics",
		"notebooks/1M_brain_gpu_analysis_uvm.ipynb", io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("ExecuteNotebook() error = %v", err)
	}
	if !code.IsSuccess() {
		t.Errorf("exit code = %d, want 0", code)
	}
}
