// SPDX-License-Identifier: MPL-2.0

package container

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

// MinModernGPUVersion is the first docker client version with native
// `--gpus` support. Older clients need the legacy nvidia runtime flag.
const MinModernGPUVersion = "19.03.0"

// SupportsModernGPUFlag reports whether the given client version string is
// at or above MinModernGPUVersion. Docker reports versions like "19.03.12"
// or "20.10.7-ce", which go-version parses and strict semver does not.
func SupportsModernGPUFlag(version string) (bool, error) {
	v, err := goversion.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("parse container runtime version %q: %w", version, err)
	}

	min := goversion.Must(goversion.NewVersion(MinModernGPUVersion))
	return v.GreaterThanOrEqual(min), nil
}
