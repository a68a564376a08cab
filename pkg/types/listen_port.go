// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidListenPort is the sentinel error wrapped by InvalidListenPortError.
var ErrInvalidListenPort = errors.New("invalid listen port")

type (
	// ListenPort represents the TCP port a notebook server listens on.
	// Valid values are in the range 1-65535. The zero value is invalid:
	// the CLI always supplies a concrete port (default 8888).
	ListenPort int

	// InvalidListenPortError is returned when a ListenPort value is
	// outside the valid range (1-65535).
	InvalidListenPortError struct {
		Value ListenPort
	}
)

// DefaultJupyterPort is the port used when no -p/--jupyterPort flag is given.
const DefaultJupyterPort ListenPort = 8888

// String returns the decimal string representation of the ListenPort.
func (p ListenPort) String() string { return strconv.Itoa(int(p)) }

// Validate returns an error if the ListenPort is outside the range 1-65535.
func (p ListenPort) Validate() error {
	if p < 1 || p > 65535 {
		return &InvalidListenPortError{Value: p}
	}
	return nil
}

// Publish returns the port mapping string for a container engine's -p flag,
// publishing the port on the same number inside the container.
func (p ListenPort) Publish() string {
	return fmt.Sprintf("%d:%d", p, p)
}

// Error implements the error interface for InvalidListenPortError.
func (e *InvalidListenPortError) Error() string {
	return fmt.Sprintf("invalid listen port %d: must be in range 1-65535", e.Value)
}

// Unwrap returns ErrInvalidListenPort for errors.Is() compatibility.
func (e *InvalidListenPortError) Unwrap() error { return ErrInvalidListenPort }
