// SPDX-License-Identifier: Unlicense OR MIT

//go:build !linux && !freebsd

package egl

import (
	"fmt"
	"runtime"
)

// Load resolves the EGL entry points from the system library.
func Load() (API, error) {
	return nil, fmt.Errorf("egl: EGL is not supported on %s", runtime.GOOS)
}
