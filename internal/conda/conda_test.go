// SPDX-License-Identifier: MPL-2.0

package conda

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"testing"
)

type mockRecorder struct {
	invocations [][]string
	exitCode    int
	stdout      string
}

func (m *mockRecorder) commandFunc(t *testing.T) ExecCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		m.invocations = append(m.invocations, append([]string{name}, args...))

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.Command(os.Args[0], cs...)
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", m.exitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", m.stdout),
		}
		return cmd
	}
}

// TestHelperProcess is the child process spawned by mockRecorder.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if out := os.Getenv("GO_HELPER_STDOUT"); out != "" {
		fmt.Fprint(os.Stdout, out)
	}
	code, _ := strconv.Atoi(os.Getenv("GO_HELPER_EXIT_CODE"))
	os.Exit(code)
}

func newTestManager(t *testing.T, mock *mockRecorder) *Manager {
	t.Helper()
	m := NewManager("conda", WithExecCommand(mock.commandFunc(t)))
	// The test host may not have conda installed; the mock never execs it.
	m.binaryPath = "conda"
	return m
}

func TestListEnvs_ParsesJSONListing(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{
		stdout: `{"envs": ["/opt/conda", "/opt/conda/envs/rapidgenomics", "/opt/conda/envs/rapidgenomics_viz"]}`,
	}
	m := newTestManager(t, mock)

	envs, err := m.ListEnvs(context.Background())
	if err != nil {
		t.Fatalf("ListEnvs() error = %v", err)
	}

	want := []string{"conda", "rapidgenomics", "rapidgenomics_viz"}
	if !slices.Equal(envs, want) {
		t.Errorf("ListEnvs() = %v, want %v", envs, want)
	}

	if !slices.Equal(mock.invocations[0][1:], []string{"env", "list", "--json"}) {
		t.Errorf("listing args = %v", mock.invocations[0])
	}
}

func TestListEnvs_MalformedJSON(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{stdout: "not json"}
	m := newTestManager(t, mock)

	if _, err := m.ListEnvs(context.Background()); err == nil {
		t.Error("malformed listing should be an error")
	}
}

func TestEnvExists(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{stdout: `{"envs": ["/opt/conda/envs/rapidgenomics"]}`}
	m := newTestManager(t, mock)

	exists, err := m.EnvExists(context.Background(), "rapidgenomics")
	if err != nil {
		t.Fatalf("EnvExists() error = %v", err)
	}
	if !exists {
		t.Error("rapidgenomics should exist")
	}

	exists, err = m.EnvExists(context.Background(), "missing")
	if err != nil {
		t.Fatalf("EnvExists() error = %v", err)
	}
	if exists {
		t.Error("missing env reported as existing")
	}
}

func TestCreateEnv_Args(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{}
	m := newTestManager(t, mock)

	if err := m.CreateEnv(context.Background(), "conda/rapidgenomics_cuda11.0.yml", io.Discard, io.Discard); err != nil {
		t.Fatalf("CreateEnv() error = %v", err)
	}

	want := []string{"env", "create", "-f", "conda/rapidgenomics_cuda11.0.yml"}
	if !slices.Equal(mock.invocations[0][1:], want) {
		t.Errorf("create args = %v, want %v", mock.invocations[0][1:], want)
	}
}

func TestCreateEnv_PropagatesFailure(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{exitCode: 1}
	m := newTestManager(t, mock)

	if err := m.CreateEnv(context.Background(), "conda/x.yml", io.Discard, io.Discard); err == nil {
		t.Error("failed creation should be an error")
	}
}

func TestRegisterKernel_Args(t *testing.T) {
	t.Parallel()

	mock := &mockRecorder{}
	m := newTestManager(t, mock)

	if err := m.RegisterKernel(context.Background(), "rapidgenomics", io.Discard, io.Discard); err != nil {
		t.Fatalf("RegisterKernel() error = %v", err)
	}

	want := []string{"run", "-n", "rapidgenomics", "python", "-m", "ipykernel", "install", "--user", "--name", "rapidgenomics"}
	if !slices.Equal(mock.invocations[0][1:], want) {
		t.Errorf("kernel args = %v, want %v", mock.invocations[0][1:], want)
	}
}

func TestRunInArgs(t *testing.T) {
	t.Parallel()

	m := &Manager{binaryPath: "conda"}
	got := m.RunInArgs("rapidgenomics", "jupyter", "lab")
	want := []string{"run", "-n", "rapidgenomics", "jupyter", "lab"}
	if !slices.Equal(got, want) {
		t.Errorf("RunInArgs() = %v, want %v", got, want)
	}
}

func TestUnavailableManager(t *testing.T) {
	t.Parallel()

	m := &Manager{execCommand: exec.CommandContext}

	if m.Available() {
		t.Error("manager without a binary should be unavailable")
	}
	if _, err := m.ListEnvs(context.Background()); !errors.Is(err, ErrCondaNotAvailable) {
		t.Errorf("ListEnvs error = %v, want ErrCondaNotAvailable", err)
	}
	if err := m.CreateEnv(context.Background(), "x.yml", io.Discard, io.Discard); !errors.Is(err, ErrCondaNotAvailable) {
		t.Errorf("CreateEnv error = %v, want ErrCondaNotAvailable", err)
	}
}
