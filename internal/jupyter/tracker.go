// SPDX-License-Identifier: MPL-2.0

package jupyter

import (
	"os"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
)

type (
	// SignalFunc delivers a signal to a process. Injectable for testing.
	SignalFunc func(p *os.Process, sig os.Signal) error

	// Tracker is an explicit registry of long-lived child processes spawned
	// by the launcher (the hosted notebook server). When the launcher exits,
	// TerminateAll delivers SIGTERM to every tracked process so the servers
	// actually release their ports and GPU memory.
	Tracker struct {
		mu         sync.Mutex
		procs      []*os.Process
		sendSignal SignalFunc
	}

	// TrackerOption configures a Tracker.
	TrackerOption func(*Tracker)
)

// WithSignalFunc sets a custom signal delivery function for testing.
func WithSignalFunc(fn SignalFunc) TrackerOption {
	return func(t *Tracker) {
		t.sendSignal = fn
	}
}

// NewTracker creates an empty Tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		sendSignal: func(p *os.Process, sig os.Signal) error { return p.Signal(sig) },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track registers a started process for cleanup on exit.
func (t *Tracker) Track(p *os.Process) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs = append(t.procs, p)
}

// Len returns the number of tracked processes.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.procs)
}

// TerminateAll sends SIGTERM to every tracked process and clears the
// registry. Delivery failures are logged, not returned: the process may
// already have exited on its own.
func (t *Tracker) TerminateAll() {
	t.mu.Lock()
	procs := t.procs
	t.procs = nil
	t.mu.Unlock()

	for _, p := range procs {
		if err := t.sendSignal(p, syscall.SIGTERM); err != nil {
			log.Warn("could not terminate tracked process", "pid", p.Pid, "err", err)
		}
	}
}
